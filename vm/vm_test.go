package vm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscript/kestrel/compiler"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/parser"
	"github.com/kestrelscript/kestrel/value"
	"github.com/kestrelscript/kestrel/vm"
)

// run parses, compiles and executes src, failing the test on any lex,
// parse or compile error.
func run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(src, errs)
	require.False(t, errs.HasErrors(), "parse errors: %s", errs.String())

	ctx := compiler.Compile("test.kes", chunk, errs)
	require.False(t, errs.HasErrors(), "compile errors: %s", errs.String())

	m := vm.New(ctx.Buffer(), ctx.Registry(), ctx.Constants(), errs)
	return m.Run(context.Background())
}

func TestArithmeticPrecedence(t *testing.T) {
	v, err := run(t, `let a = 2 + 3 * 4; return a;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(14), v)
}

func TestIfElseTrueBranch(t *testing.T) {
	v, err := run(t, `
		let x = 1;
		if (x == 1) {
			return 42;
		} else {
			return 7;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(42), v)
}

func TestIfElseFalseBranch(t *testing.T) {
	v, err := run(t, `
		let x = 0;
		if (x == 1) {
			return 42;
		} else {
			return 7;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(7), v)
}

func TestCountedLoopSum(t *testing.T) {
	v, err := run(t, `
		let sum = 0;
		for i in 0..5 {
			sum = sum + i;
		}
		return sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(10), v)
}

func TestTernaryTrue(t *testing.T) {
	v, err := run(t, `let y = true ? 100 : 200; return y;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(100), v)
}

func TestTernaryFalse(t *testing.T) {
	v, err := run(t, `let y = false ? 100 : 200; return y;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(200), v)
}

func TestFunctionCallReturnsSum(t *testing.T) {
	v, err := run(t, `
		fn add(x, y) { return x + y; }
		return add(2, 40);
	`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(42), v)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `let z = 0; return 1 / z;`)
	require.Error(t, err)
}

func TestRuntimeErrorCitesSourceLine(t *testing.T) {
	_, err := run(t, "let z = 0;\nreturn 1 / z;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2:", "the faulting division is on line 2")
}

func TestRecursiveCall(t *testing.T) {
	v, err := run(t, `
		fn fact(n) {
			if (n <= 1) {
				return 1;
			}
			return n * fact(n - 1);
		}
		return fact(5);
	`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(120), v)
}

func TestBreakExitsLoop(t *testing.T) {
	v, err := run(t, `
		let count = 0;
		for i in 0..100 {
			if (i == 3) {
				break;
			}
			count = count + 1;
		}
		return count;
	`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(3), v)
}

func TestFloatIntPromotion(t *testing.T) {
	v, err := run(t, `let a = 1 + 2.5; return a;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewFloat(3.5), v)
}

func TestComparisonLessThan(t *testing.T) {
	v, err := run(t, `return 3 < 5;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewBool(true), v)
}

func TestRunCancelledContextIsRuntimeError(t *testing.T) {
	errs := errlist.NewList("test.kes")
	chunk := parser.Parse(`let a = 1; return a;`, errs)
	require.False(t, errs.HasErrors())
	cc := compiler.Compile("test.kes", chunk, errs)
	require.False(t, errs.HasErrors())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := vm.New(cc.Buffer(), cc.Registry(), cc.Constants(), errs)
	_, err := m.Run(ctx)
	require.Error(t, err)
}

func TestUnaryMinusAndNot(t *testing.T) {
	v, err := run(t, `let a = -5; return a;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(-5), v)

	v, err = run(t, `let b = !false; return b;`)
	require.NoError(t, err)
	assert.Equal(t, value.NewBool(true), v)
}
