package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint pretty-prints n and its children to w, one node per line indented
// by depth, in the style of the teacher's lang/ast.Printer (which walks the
// tree with a Visitor and indents with repeated ". "). Our node set has no
// generic Walk/Visitor machinery, so Fprint is a direct recursive descent
// instead, but keeps the teacher's "line:col kind(fields...)" line shape.
func Fprint(w io.Writer, n Node) {
	fprint(w, n, 0)
}

func indent(depth int) string { return strings.Repeat(". ", depth) }

func posStr(n Node) string {
	line, col := n.Pos().LineCol()
	return fmt.Sprintf("%d:%d", line, col)
}

func fprint(w io.Writer, n Node, depth int) {
	if n == nil {
		return
	}
	switch x := n.(type) {
	case *Chunk:
		fmt.Fprintf(w, "%sChunk\n", indent(depth))
		for _, s := range x.Stmts {
			fprint(w, s, depth+1)
		}
	case *IntLit:
		fmt.Fprintf(w, "%s[%s] IntLit %d\n", indent(depth), posStr(x), x.Value)
	case *FloatLit:
		fmt.Fprintf(w, "%s[%s] FloatLit %g\n", indent(depth), posStr(x), x.Value)
	case *BoolLit:
		fmt.Fprintf(w, "%s[%s] BoolLit %t\n", indent(depth), posStr(x), x.Value)
	case *StringLit:
		fmt.Fprintf(w, "%s[%s] StringLit %q\n", indent(depth), posStr(x), x.Value)
	case *SymbolRef:
		fmt.Fprintf(w, "%s[%s] SymbolRef %s\n", indent(depth), posStr(x), x.Name)
	case *BinaryExpr:
		fmt.Fprintf(w, "%s[%s] BinaryExpr %s\n", indent(depth), posStr(x), x.Op)
		fprint(w, x.Left, depth+1)
		fprint(w, x.Right, depth+1)
	case *CompareExpr:
		fmt.Fprintf(w, "%s[%s] CompareExpr %s\n", indent(depth), posStr(x), x.Op)
		fprint(w, x.Left, depth+1)
		fprint(w, x.Right, depth+1)
	case *UnaryExpr:
		fmt.Fprintf(w, "%s[%s] UnaryExpr %s\n", indent(depth), posStr(x), x.Op)
		fprint(w, x.Operand, depth+1)
	case *AssignExpr:
		fmt.Fprintf(w, "%s[%s] AssignExpr\n", indent(depth), posStr(x))
		fprint(w, x.Target, depth+1)
		fprint(w, x.Value, depth+1)
	case *TernaryExpr:
		fmt.Fprintf(w, "%s[%s] TernaryExpr\n", indent(depth), posStr(x))
		fprint(w, x.Cond, depth+1)
		fprint(w, x.True, depth+1)
		fprint(w, x.False, depth+1)
	case *CallExpr:
		fmt.Fprintf(w, "%s[%s] CallExpr %s\n", indent(depth), posStr(x), x.Callee)
		for _, a := range x.Args {
			fprint(w, a, depth+1)
		}
	case *RangeExpr:
		fmt.Fprintf(w, "%s[%s] RangeExpr\n", indent(depth), posStr(x))
		fprint(w, x.Start, depth+1)
		fprint(w, x.End, depth+1)
	case *ExprStmt:
		fmt.Fprintf(w, "%s[%s] ExprStmt\n", indent(depth), posStr(x))
		fprint(w, x.X, depth+1)
	case *VarDecl:
		fmt.Fprintf(w, "%s[%s] VarDecl %s\n", indent(depth), posStr(x), x.Name)
		fprint(w, x.Init, depth+1)
	case *FnDecl:
		fmt.Fprintf(w, "%s[%s] FnDecl %s(%s)\n", indent(depth), posStr(x), x.Name, strings.Join(x.Params, ", "))
		fprint(w, x.Body, depth+1)
	case *BlockStmt:
		fmt.Fprintf(w, "%s[%s] BlockStmt\n", indent(depth), posStr(x))
		for _, s := range x.Stmts {
			fprint(w, s, depth+1)
		}
	case *IfStmt:
		fmt.Fprintf(w, "%s[%s] IfStmt\n", indent(depth), posStr(x))
		fprint(w, x.Cond, depth+1)
		fprint(w, x.Then, depth+1)
		if x.Else != nil {
			fprint(w, x.Else, depth+1)
		}
	case *ForStmt:
		fmt.Fprintf(w, "%s[%s] ForStmt %s\n", indent(depth), posStr(x), x.Ident)
		fprint(w, x.Range, depth+1)
		fprint(w, x.Body, depth+1)
	case *ReturnStmt:
		fmt.Fprintf(w, "%s[%s] ReturnStmt\n", indent(depth), posStr(x))
		fprint(w, x.Value, depth+1)
	case *BreakStmt:
		fmt.Fprintf(w, "%s[%s] BreakStmt\n", indent(depth), posStr(x))
	default:
		fmt.Fprintf(w, "%s<unknown node %T>\n", indent(depth), n)
	}
}
