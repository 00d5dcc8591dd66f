package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscript/kestrel/bytecode"
	"github.com/kestrelscript/kestrel/registry"
)

func TestRegisterAndLookup(t *testing.T) {
	buf := bytecode.NewBuffer()
	buf.BeginNonLinkedRegion()
	buf.EmitOp(bytecode.RETURN)
	body := buf.EndNonLinkedRegion()

	reg := registry.New()
	err := reg.Register(&registry.Record{Name: "add", Body: body, Arity: 2, ArgB: 0, ArgE: 1})
	require.NoError(t, err)

	rec, ok := reg.Lookup("add")
	require.True(t, ok)
	assert.Equal(t, 2, rec.Arity)
	assert.Equal(t, body, rec.Body)
}

func TestLookupMissingFails(t *testing.T) {
	reg := registry.New()
	_, ok := reg.Lookup("nope")
	assert.False(t, ok)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Record{Name: "f", Arity: 0}))
	err := reg.Register(&registry.Record{Name: "f", Arity: 1})
	require.Error(t, err)
	var dup *registry.ErrAlreadyRegistered
	assert.ErrorAs(t, err, &dup)
}

func TestEachVisitsAllEntries(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Record{Name: "a"}))
	require.NoError(t, reg.Register(&registry.Record{Name: "b"}))

	seen := map[string]bool{}
	reg.Each(func(name string, rec *registry.Record) { seen[name] = true })
	assert.Equal(t, 2, len(seen))
	assert.Equal(t, 2, reg.Len())
}
