// Package registry implements the Function Registry: a name-keyed map
// of compiled function bodies owned by the compilation context. Per
// SPEC_FULL.md §3, it is backed by github.com/dolthub/swiss's Swiss-table
// hash map rather than a built-in Go map, since spec.md §4.3 describes
// the registry explicitly as "lookup is a hash probe by name" — exactly
// swiss.Map's shape.
package registry

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/kestrelscript/kestrel/bytecode"
)

// Record is a Function Record: a name, the non-linked chunk holding its
// body, its arity, and the inclusive parameter register range assigned
// by the symbol table. The return-address slot and operand-stack
// reference described in spec.md §3 are VM-side call-frame state, not
// stored here (see package vm's callFrame).
type Record struct {
	Name  string
	Body  *bytecode.Chunk
	Arity int
	ArgB  uint16
	ArgE  uint16

	// Locals holds every name declared in the function's own scope
	// (parameters and locals alike, sorted), captured by the compiler
	// before the scope is discarded. Consumed only by disassembly
	// (internal/maincmd/compile.go builds a chunk-id-keyed label map from
	// it for bytecode.Disassemble) — never read at runtime.
	Locals []string
}

// ErrAlreadyRegistered is returned by Register when name is already
// present; the compiler should have rejected the duplicate declaration
// earlier via symtab, so this indicates a compiler bug if ever seen.
type ErrAlreadyRegistered struct{ Name string }

func (e *ErrAlreadyRegistered) Error() string {
	return fmt.Sprintf("function %q already registered", e.Name)
}

// Registry is a name-keyed map of Records, backed by a Swiss-table hash
// map for hash-probe lookup.
type Registry struct {
	m *swiss.Map[string, *Record]
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{m: swiss.NewMap[string, *Record](uint32(8))}
}

// Register adds rec under its own Name. Returns *ErrAlreadyRegistered on
// collision.
func (r *Registry) Register(rec *Record) error {
	if _, ok := r.m.Get(rec.Name); ok {
		return &ErrAlreadyRegistered{Name: rec.Name}
	}
	r.m.Put(rec.Name, rec)
	return nil
}

// Lookup returns the Record registered under name, if any.
func (r *Registry) Lookup(name string) (*Record, bool) {
	return r.m.Get(name)
}

// Len reports how many functions are registered.
func (r *Registry) Len() int { return int(r.m.Count()) }

// Each calls fn once per registered function, in unspecified order,
// matching swiss.Map's own iteration contract.
func (r *Registry) Each(fn func(name string, rec *Record)) {
	r.m.Iter(func(k string, v *Record) (stop bool) {
		fn(k, v)
		return false
	})
}
