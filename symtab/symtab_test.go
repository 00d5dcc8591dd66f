package symtab_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscript/kestrel/symtab"
)

func TestDeclareAndLookupInSameScope(t *testing.T) {
	tbl := symtab.New()
	reg, err := tbl.DeclareVariable("a")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), reg)

	sym, ok := tbl.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, symtab.Variable, sym.Kind)
	assert.Equal(t, uint16(0), sym.Register)
}

func TestDuplicateDeclarationInSameScopeFails(t *testing.T) {
	tbl := symtab.New()
	_, err := tbl.DeclareVariable("a")
	require.NoError(t, err)
	_, err = tbl.DeclareVariable("a")
	require.Error(t, err)
	var dup *symtab.ErrDuplicate
	assert.ErrorAs(t, err, &dup)
}

func TestChildScopeRegisterCounterContinuesParent(t *testing.T) {
	tbl := symtab.New()
	_, err := tbl.DeclareVariable("a")
	require.NoError(t, err)
	_, err = tbl.DeclareVariable("b")
	require.NoError(t, err)

	tbl.Enter()
	reg, err := tbl.DeclareVariable("c")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), reg, "child scope's counter should continue from the parent's")
}

func TestInnermostScopeShadowsOuter(t *testing.T) {
	tbl := symtab.New()
	_, err := tbl.DeclareVariable("x")
	require.NoError(t, err)

	tbl.Enter()
	_, err = tbl.DeclareVariable("x")
	require.NoError(t, err, "shadowing in a nested scope is allowed")

	sym, ok := tbl.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, uint16(1), sym.Register)

	tbl.Exit()
	sym, ok = tbl.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, uint16(0), sym.Register, "exiting the scope restores visibility of the outer declaration")
}

func TestRegisterIndicesAreNotReusedAcrossScopeExit(t *testing.T) {
	tbl := symtab.New()
	tbl.Enter()
	r1, err := tbl.DeclareVariable("tmp1")
	require.NoError(t, err)
	tbl.Exit()

	tbl.Enter()
	r2, err := tbl.DeclareVariable("tmp2")
	require.NoError(t, err)

	assert.NotEqual(t, r1, r2, "spec.md requires register indices stay injective even across exited sibling scopes")
}

func TestLookupUnknownNameFails(t *testing.T) {
	tbl := symtab.New()
	_, ok := tbl.Lookup("nope")
	assert.False(t, ok)
}

func TestDeclareFunctionAndRegisterRange(t *testing.T) {
	tbl := symtab.New()
	sym, err := tbl.DeclareFunction("add", 2)
	require.NoError(t, err)

	tbl.EnterFunction()
	argB, _ := tbl.DeclareVariable("x")
	argE, _ := tbl.DeclareVariable("y")
	sym.SetFunctionRegisterRange(argB, argE)
	tbl.ExitFunction()

	got, ok := tbl.Lookup("add")
	require.True(t, ok)
	assert.Equal(t, symtab.Function, got.Kind)
	assert.Equal(t, 2, got.Arity)
	assert.Equal(t, uint16(0), got.ArgB)
	assert.Equal(t, uint16(1), got.ArgE)
}

func TestFunctionBodyGetsFreshRegisterCounter(t *testing.T) {
	tbl := symtab.New()
	_, err := tbl.DeclareVariable("outer1")
	require.NoError(t, err)
	_, err = tbl.DeclareVariable("outer2")
	require.NoError(t, err)

	_, err = tbl.DeclareFunction("f", 1)
	require.NoError(t, err)
	tbl.EnterFunction()
	reg, err := tbl.DeclareVariable("param")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), reg, "a new function body starts its own register numbering at 0")
	tbl.ExitFunction()

	reg3, err := tbl.DeclareVariable("outer3")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), reg3, "the outer counter resumes where it left off, unaffected by the function body")
}

func TestRegisterOverflowIsRejected(t *testing.T) {
	tbl := symtab.New()
	for i := 0; i < symtab.MaxRegisters; i++ {
		_, err := tbl.DeclareVariable("v" + strconv.Itoa(i))
		require.NoError(t, err)
	}
	_, err := tbl.DeclareVariable("overflow")
	require.Error(t, err)
	var overflow *symtab.ErrRegisterOverflow
	assert.ErrorAs(t, err, &overflow)
}
