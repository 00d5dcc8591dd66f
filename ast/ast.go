// Package ast defines the syntax tree produced by the parser and
// consumed by the compiler, in the tagged-variant node style of the
// teacher's lang/ast package. Every node carries a token.Pos for error
// reporting.
package ast

import "github.com/kestrelscript/kestrel/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Pos
	node()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmt()
}

// Chunk is the root of a parsed program: a flat list of top-level
// statements, mirroring the teacher's ast.Chunk.
type Chunk struct {
	Stmts []Stmt
}

func (c *Chunk) Pos() token.Pos {
	if len(c.Stmts) == 0 {
		return token.NoPos
	}
	return c.Stmts[0].Pos()
}
func (*Chunk) node() {}

// --- Expressions ---

type IntLit struct {
	PosVal token.Pos
	Value  int64
}

type FloatLit struct {
	PosVal token.Pos
	Value  float64
}

type BoolLit struct {
	PosVal token.Pos
	Value  bool
}

type StringLit struct {
	PosVal token.Pos
	Value  string
}

// SymbolRef references a declared variable, parameter or function name.
type SymbolRef struct {
	PosVal token.Pos
	Name   string
}

// BinaryExpr covers arithmetic and logical binary operators (+ - * / && ||).
type BinaryExpr struct {
	PosVal token.Pos
	Op     token.Token
	Left   Expr
	Right  Expr
}

// CompareExpr covers the comparison operators (== != < > <= >=), kept
// distinct from BinaryExpr because the compiler emits a different opcode
// family and they can't be unary-negated the same way.
type CompareExpr struct {
	PosVal token.Pos
	Op     token.Token
	Left   Expr
	Right  Expr
}

// UnaryExpr covers unary minus and logical not.
type UnaryExpr struct {
	PosVal  token.Pos
	Op      token.Token
	Operand Expr
}

// AssignExpr assigns Value to an already-declared Target.
type AssignExpr struct {
	PosVal token.Pos
	Target *SymbolRef
	Value  Expr
}

type TernaryExpr struct {
	PosVal token.Pos
	Cond   Expr
	True   Expr
	False  Expr
}

// CallExpr invokes a declared function by name.
type CallExpr struct {
	PosVal token.Pos
	Callee string
	Args   []Expr
}

func (e *IntLit) Pos() token.Pos      { return e.PosVal }
func (e *FloatLit) Pos() token.Pos    { return e.PosVal }
func (e *BoolLit) Pos() token.Pos     { return e.PosVal }
func (e *StringLit) Pos() token.Pos   { return e.PosVal }
func (e *SymbolRef) Pos() token.Pos   { return e.PosVal }
func (e *BinaryExpr) Pos() token.Pos  { return e.PosVal }
func (e *CompareExpr) Pos() token.Pos { return e.PosVal }
func (e *UnaryExpr) Pos() token.Pos   { return e.PosVal }
func (e *AssignExpr) Pos() token.Pos  { return e.PosVal }
func (e *TernaryExpr) Pos() token.Pos { return e.PosVal }
func (e *CallExpr) Pos() token.Pos    { return e.PosVal }

func (*IntLit) node()      {}
func (*FloatLit) node()    {}
func (*BoolLit) node()     {}
func (*StringLit) node()   {}
func (*SymbolRef) node()   {}
func (*BinaryExpr) node()  {}
func (*CompareExpr) node() {}
func (*UnaryExpr) node()   {}
func (*AssignExpr) node()  {}
func (*TernaryExpr) node() {}
func (*CallExpr) node()    {}

func (*IntLit) expr()      {}
func (*FloatLit) expr()    {}
func (*BoolLit) expr()     {}
func (*StringLit) expr()   {}
func (*SymbolRef) expr()   {}
func (*BinaryExpr) expr()  {}
func (*CompareExpr) expr() {}
func (*UnaryExpr) expr()   {}
func (*AssignExpr) expr()  {}
func (*TernaryExpr) expr() {}
func (*CallExpr) expr()    {}

// --- Statements ---

type ExprStmt struct {
	PosVal token.Pos
	X      Expr
}

// VarDecl declares a new variable, optionally initialized. An
// uninitialized declaration emits no code: its register reads as null
// only until something writes it, so a previous loop iteration, or the
// caller's register file inside a function body, can leave a value in it.
type VarDecl struct {
	PosVal token.Pos
	Name   string
	Init   Expr // nil if uninitialized
}

// FnDecl declares a named function with positional parameters.
type FnDecl struct {
	PosVal token.Pos
	Name   string
	Params []string
	Body   *BlockStmt
}

type BlockStmt struct {
	PosVal token.Pos
	Stmts  []Stmt
}

type IfStmt struct {
	PosVal token.Pos
	Cond   Expr
	Then   *BlockStmt
	Else   *BlockStmt // nil if no else branch
}

// RangeExpr is the `a..b` bound pair of a for-loop; it is not a general
// first-class expression (spec leaves ranges-as-values an open question),
// only valid directly inside a ForStmt.
type RangeExpr struct {
	PosVal token.Pos
	Start  Expr
	End    Expr
}

func (r *RangeExpr) Pos() token.Pos { return r.PosVal }
func (*RangeExpr) node()            {}
func (*RangeExpr) expr()            {}

// ForStmt is a counted loop `for Ident in Range { Body }`.
type ForStmt struct {
	PosVal token.Pos
	Ident  string
	Range  *RangeExpr
	Body   *BlockStmt
}

// ReturnStmt returns an optional value; a nil Value returns 0.
type ReturnStmt struct {
	PosVal token.Pos
	Value  Expr // nil if bare `return;`
}

// BreakStmt exits the innermost enclosing ForStmt.
type BreakStmt struct {
	PosVal token.Pos
}

func (s *ExprStmt) Pos() token.Pos   { return s.PosVal }
func (s *VarDecl) Pos() token.Pos    { return s.PosVal }
func (s *FnDecl) Pos() token.Pos     { return s.PosVal }
func (s *BlockStmt) Pos() token.Pos  { return s.PosVal }
func (s *IfStmt) Pos() token.Pos     { return s.PosVal }
func (s *ForStmt) Pos() token.Pos    { return s.PosVal }
func (s *ReturnStmt) Pos() token.Pos { return s.PosVal }
func (s *BreakStmt) Pos() token.Pos  { return s.PosVal }

func (*ExprStmt) node()   {}
func (*VarDecl) node()    {}
func (*FnDecl) node()     {}
func (*BlockStmt) node()  {}
func (*IfStmt) node()     {}
func (*ForStmt) node()    {}
func (*ReturnStmt) node() {}
func (*BreakStmt) node()  {}

func (*ExprStmt) stmt()   {}
func (*VarDecl) stmt()    {}
func (*FnDecl) stmt()     {}
func (*BlockStmt) stmt()  {}
func (*IfStmt) stmt()     {}
func (*ForStmt) stmt()    {}
func (*ReturnStmt) stmt() {}
func (*BreakStmt) stmt()  {}
