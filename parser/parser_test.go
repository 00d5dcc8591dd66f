package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscript/kestrel/ast"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/parser"
)

func parseOK(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(src, errs)
	require.False(t, errs.HasErrors(), "unexpected parse errors: %s", errs.String())
	return chunk
}

func TestParseVarDeclAndArithmeticPrecedence(t *testing.T) {
	chunk := parseOK(t, `let a = 2 + 3 * 4; return a;`)
	require.Len(t, chunk.Stmts, 2)

	decl, ok := chunk.Stmts[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "a", decl.Name)

	bin, ok := decl.Init.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op.String())
	_, ok = bin.Left.(*ast.IntLit)
	require.True(t, ok)
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Op.String())
}

func TestParseIfElse(t *testing.T) {
	chunk := parseOK(t, `let a = 1; if (a == 1) { a = 42; } else { a = 7; } return a;`)
	require.Len(t, chunk.Stmts, 3)

	ifs, ok := chunk.Stmts[1].(*ast.IfStmt)
	require.True(t, ok)
	_, ok = ifs.Cond.(*ast.CompareExpr)
	require.True(t, ok)
	require.NotNil(t, ifs.Else)
	require.Len(t, ifs.Then.Stmts, 1)
	require.Len(t, ifs.Else.Stmts, 1)
}

func TestParseForRange(t *testing.T) {
	chunk := parseOK(t, `let s = 0; for i in 0..5 { s = s + i; } return s;`)
	require.Len(t, chunk.Stmts, 3)

	loop, ok := chunk.Stmts[1].(*ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "i", loop.Ident)
	assert.Equal(t, int64(0), loop.Range.Start.(*ast.IntLit).Value)
	assert.Equal(t, int64(5), loop.Range.End.(*ast.IntLit).Value)
}

func TestParseTernary(t *testing.T) {
	chunk := parseOK(t, `return (3 < 5) ? 100 : 200;`)
	require.Len(t, chunk.Stmts, 1)
	ret := chunk.Stmts[0].(*ast.ReturnStmt)
	tern, ok := ret.Value.(*ast.TernaryExpr)
	require.True(t, ok)
	assert.Equal(t, int64(100), tern.True.(*ast.IntLit).Value)
	assert.Equal(t, int64(200), tern.False.(*ast.IntLit).Value)
}

func TestParseFunctionDeclAndCall(t *testing.T) {
	chunk := parseOK(t, `fn add(x, y) { return x + y; } return add(2, 40);`)
	require.Len(t, chunk.Stmts, 2)

	fn, ok := chunk.Stmts[0].(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []string{"x", "y"}, fn.Params)

	ret := chunk.Stmts[1].(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "add", call.Callee)
	require.Len(t, call.Args, 2)
}

func TestParseErrorRecoveryContinuesAfterMissingSemicolon(t *testing.T) {
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(`let a = 1 let b = 2;`, errs)
	assert.True(t, errs.HasErrors())
	// Recovery should still produce statements for both declarations.
	assert.Len(t, chunk.Stmts, 2)
}
