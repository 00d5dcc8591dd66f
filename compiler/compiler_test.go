package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscript/kestrel/compiler"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/parser"
)

func compileSrc(t *testing.T, src string) (*compiler.Context, *errlist.List) {
	t.Helper()
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(src, errs)
	require.False(t, errs.HasErrors(), "parse errors: %s", errs.String())
	ctx := compiler.Compile("test.kes", chunk, errs)
	return ctx, errs
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	ctx, errs := compileSrc(t, `let a = 2 + 3 * 4; return a;`)
	assert.False(t, errs.HasErrors())
	assert.Greater(t, ctx.Buffer().Size(), 0)
}

func TestCompileIfElse(t *testing.T) {
	_, errs := compileSrc(t, `
		let x = 1;
		if (x == 1) {
			return 42;
		} else {
			return 7;
		}
	`)
	assert.False(t, errs.HasErrors())
}

func TestCompileCountedLoop(t *testing.T) {
	_, errs := compileSrc(t, `
		let sum = 0;
		for i in 0..5 {
			sum = sum + i;
		}
		return sum;
	`)
	assert.False(t, errs.HasErrors())
}

func TestCompileTernary(t *testing.T) {
	_, errs := compileSrc(t, `let y = true ? 100 : 200; return y;`)
	assert.False(t, errs.HasErrors())
}

func TestCompileFunctionDeclAndCall(t *testing.T) {
	ctx, errs := compileSrc(t, `
		fn add(x, y) { return x + y; }
		return add(2, 40);
	`)
	require.False(t, errs.HasErrors())

	rec, ok := ctx.Registry().Lookup("add")
	require.True(t, ok)
	assert.Equal(t, 2, rec.Arity)
	assert.Equal(t, uint16(0), rec.ArgB)
	assert.Equal(t, uint16(1), rec.ArgE)
	assert.False(t, rec.Body.Linked())
	assert.Equal(t, []string{"x", "y"}, rec.Locals, "Record.Locals captures the function's own params/locals for disassembly labels")
}

func TestCompileRecordsSourcePositionsForDisassembly(t *testing.T) {
	ctx, errs := compileSrc(t, `let a = 1; return a;`)
	require.False(t, errs.HasErrors())

	assert.False(t, ctx.Buffer().PosAt(0, 0).Unknown(), "the first statement's position should be recorded at chunk 0 offset 0")
}

func TestCompileArityMismatchIsCompileError(t *testing.T) {
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(`
		fn add(x, y) { return x + y; }
		return add(1);
	`, errs)
	require.False(t, errs.HasErrors())

	compiler.Compile("test.kes", chunk, errs)
	require.True(t, errs.HasErrors())
	assert.Equal(t, 1, errs.Count(errlist.Compile))
}

func TestCompileUndefinedIdentifierIsCompileError(t *testing.T) {
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(`return undefinedThing;`, errs)
	require.False(t, errs.HasErrors())

	compiler.Compile("test.kes", chunk, errs)
	require.True(t, errs.HasErrors())
	assert.Equal(t, 1, errs.Count(errlist.Compile))
}

func TestCompileDuplicateDeclarationIsCompileError(t *testing.T) {
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(`let a = 1; let a = 2; return a;`, errs)
	require.False(t, errs.HasErrors())

	compiler.Compile("test.kes", chunk, errs)
	require.True(t, errs.HasErrors())
	assert.Equal(t, 1, errs.Count(errlist.Compile))
}

func TestCompileBreakOutsideLoopIsCompileError(t *testing.T) {
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(`break;`, errs)
	require.False(t, errs.HasErrors())

	compiler.Compile("test.kes", chunk, errs)
	require.True(t, errs.HasErrors())
}

func TestCompileBreakInsideLoopPatchesToExit(t *testing.T) {
	_, errs := compileSrc(t, `
		for i in 0..10 {
			if (i == 3) {
				break;
			}
		}
		return 0;
	`)
	assert.False(t, errs.HasErrors())
}

func TestCompileDivisionByZeroIsNotACompileTimeError(t *testing.T) {
	// Division by zero is a runtime error (spec.md §7), not something the
	// compiler can reject statically for a non-constant divisor.
	_, errs := compileSrc(t, `let z = 0; return 1 / z;`)
	assert.False(t, errs.HasErrors())
}
