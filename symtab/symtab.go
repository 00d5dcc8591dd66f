// Package symtab implements kestrel's lexically scoped symbol table:
// register-index assignment during compilation, name resolution walking
// scopes innermost-first, and duplicate-declaration detection. Grounded
// on spec.md §4.2 and on original_source/symbol_table.{c,h}'s
// Scope/SymbolTable shape; the nested-scope push/pop texture also
// follows the teacher's lang/resolver package.
package symtab

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// SymbolKind distinguishes a variable symbol from a function symbol.
type SymbolKind uint8

const (
	Variable SymbolKind = iota
	Function
)

// Symbol is either a variable (carrying its register index) or a
// function (carrying its arity and the inclusive parameter register
// range [ArgB, ArgE]).
type Symbol struct {
	Name string
	Kind SymbolKind

	// Variable fields.
	Register    uint16
	Initialized bool

	// Function fields.
	Arity int
	ArgB  uint16 // first parameter register (inclusive)
	ArgE  uint16 // last parameter register (inclusive); ArgB and ArgE are both 0 if Arity == 0
}

// Scope owns a name->symbol mapping for one lexical block. Register
// assignment is NOT per-scope: it is tracked per function body (see
// Table.regCounters), because the VM's CALL/RETURN save and restore the
// entire register file as a unit, so sibling block scopes within the
// same function must not reuse each other's register indices, while
// a freshly entered function body may safely start back at 0.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]*Symbol)}
}

// Names returns the scope's own declared names in a deterministic order,
// used for disassembly/debug output of a scope's contents.
func (s *Scope) Names() []string {
	names := maps.Keys(s.symbols)
	sort.Strings(names)
	return names
}

// ErrDuplicate is returned by Declare* when a name is already declared
// in the current (innermost) scope.
type ErrDuplicate struct {
	Name string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("symbol %q already declared in this scope", e.Name)
}

// ErrRegisterOverflow is returned when a declaration would need a
// register index at or beyond the VM's fixed register file size.
type ErrRegisterOverflow struct {
	Name  string
	Index uint16
}

func (e *ErrRegisterOverflow) Error() string {
	return fmt.Sprintf("declaring %q would require register %d, exceeding the register file capacity", e.Name, e.Index)
}

// MaxRegisters is the VM's fixed register file size (spec.md §3's
// "register file (fixed 512 slots)"); register indices assigned during
// compilation must stay within [0, MaxRegisters).
const MaxRegisters = 512

// Table is a stack of Scopes forming the symbol table for one
// compilation. The outermost (global) scope is created by New.
type Table struct {
	current *Scope
	depth   int

	// regCounters is a stack of per-function register high-water marks.
	// Enter/Exit (plain block scopes) share the top entry; EnterFunction/
	// ExitFunction push and pop a fresh entry starting at 0.
	regCounters []uint16
}

// New creates a Table with a single global scope and one function-level
// register counter (the top-level program is treated as an implicit
// function body for register-numbering purposes).
func New() *Table {
	return &Table{current: newScope(nil), regCounters: []uint16{0}}
}

// Enter pushes a new child scope for name resolution. The register
// counter is shared with the enclosing function body (see Scope's
// doc comment): spec.md's "child scope starts its counter at one past
// its parent's" holds trivially since it is the very same counter.
func (t *Table) Enter() {
	t.current = newScope(t.current)
	t.depth++
}

// Exit pops the current scope, discarding it. Register indices handed
// out within the exited scope are not reclaimed (spec.md §4.2's explicit
// non-reuse invariant, and Design Notes §9's documented leak).
func (t *Table) Exit() {
	if t.current.parent == nil {
		panic("symtab: Exit called on the global scope")
	}
	t.current = t.current.parent
	t.depth--
}

// EnterFunction pushes both a new name-resolution scope and a fresh
// register counter starting at 0, for compiling a function body: the VM
// saves and restores the whole register file around CALL/RETURN, so a
// callee's registers never collide with its caller's live registers.
func (t *Table) EnterFunction() {
	t.current = newScope(t.current)
	t.depth++
	t.regCounters = append(t.regCounters, 0)
}

// ExitFunction pops the scope and register counter pushed by the
// matching EnterFunction.
func (t *Table) ExitFunction() {
	if len(t.regCounters) <= 1 {
		panic("symtab: ExitFunction called without a matching EnterFunction")
	}
	t.regCounters = t.regCounters[:len(t.regCounters)-1]
	t.Exit()
}

// Depth reports how many scopes are currently nested below the global
// scope.
func (t *Table) Depth() int { return t.depth }

// DeclareVariable declares a new variable in the current scope and
// returns its assigned register index. Returns *ErrDuplicate if name is
// already declared in this scope, or *ErrRegisterOverflow if the
// register file would overflow.
func (t *Table) DeclareVariable(name string) (uint16, error) {
	if _, exists := t.current.symbols[name]; exists {
		return 0, &ErrDuplicate{Name: name}
	}
	top := len(t.regCounters) - 1
	reg := t.regCounters[top]
	if reg >= MaxRegisters {
		return 0, &ErrRegisterOverflow{Name: name, Index: reg}
	}
	t.current.symbols[name] = &Symbol{Name: name, Kind: Variable, Register: reg, Initialized: true}
	t.regCounters[top]++
	return reg, nil
}

// DeclareFunction declares a function symbol (name and arity) in the
// current scope; the parameter register range is filled in later via
// SetFunctionRegisterRange once parameters have been declared in the
// nested function scope.
func (t *Table) DeclareFunction(name string, arity int) (*Symbol, error) {
	if _, exists := t.current.symbols[name]; exists {
		return nil, &ErrDuplicate{Name: name}
	}
	sym := &Symbol{Name: name, Kind: Function, Arity: arity}
	t.current.symbols[name] = sym
	return sym, nil
}

// SetFunctionRegisterRange records the inclusive parameter register
// range assigned to a previously declared function symbol.
func (sym *Symbol) SetFunctionRegisterRange(argB, argE uint16) {
	sym.ArgB = argB
	sym.ArgE = argE
}

// Lookup walks scopes from innermost to outermost, returning the first
// matching symbol.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t.current; s != nil; s = s.parent {
		if sym, ok := s.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// CurrentScope exposes the innermost scope, e.g. for debug dumps.
func (t *Table) CurrentScope() *Scope { return t.current }
