// Package value implements kestrel's runtime value representation: a
// closed, tagged sum type rather than the teacher's open interface
// hierarchy (lang/machine/value.go's Value/HasBinary/HasUnary/...), since
// the language's value domain is fixed at seven variants (spec.md §3) and
// does not need to be extensible by embedders.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	Null Kind = iota
	Int
	Float
	Bool
	Str
	Obj // object reference; reserved, not constructible by kestrel source yet
	Ptr // raw pointer; reserved for ALLOC_HEAP/FREE_HEAP, not constructible yet
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Str:
		return "string"
	case Obj:
		return "object"
	case Ptr:
		return "pointer"
	default:
		return "unknown"
	}
}

// Object is the reserved payload for Kind Obj. kestrel source cannot yet
// construct object references (NEW_OBJECT/GET_PROPERTY/SET_PROPERTY are
// reserved opcodes with no handler, per spec.md §6 and §9); the type
// exists so the Value representation is already shaped for it.
type Object struct {
	Class  string
	Fields map[string]Value
}

// Value is kestrel's tagged runtime value. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	obj  *Object
	ptr  uintptr
}

func NewNull() Value           { return Value{kind: Null} }
func NewInt(i int64) Value     { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }
func NewBool(b bool) Value     { return Value{kind: Bool, b: b} }
func NewStr(s string) Value    { return Value{kind: Str, s: s} }
func NewObj(o *Object) Value   { return Value{kind: Obj, obj: o} }
func NewPtr(p uintptr) Value   { return Value{kind: Ptr, ptr: p} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// Int64 returns the underlying int64; valid only when Kind() == Int.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the underlying float64; valid only when Kind() == Float.
func (v Value) Float64() float64 { return v.f }

// Bool returns the underlying bool; valid only when Kind() == Bool.
func (v Value) Bool() bool { return v.b }

// Str returns the underlying string; valid only when Kind() == Str.
func (v Value) Str() string { return v.s }

// Obj returns the underlying object pointer; valid only when Kind() == Obj.
func (v Value) Obj() *Object { return v.obj }

// Ptr returns the underlying raw pointer value; valid only when Kind() == Ptr.
func (v Value) Ptr() uintptr { return v.ptr }

// AsFloat64 returns v's numeric value widened to float64, for use in
// mixed int/float arithmetic. Panics if v is not Int or Float.
func (v Value) AsFloat64() float64 {
	switch v.kind {
	case Int:
		return float64(v.i)
	case Float:
		return v.f
	default:
		panic(fmt.Sprintf("value: AsFloat64 of non-numeric kind %s", v.kind))
	}
}

// Truthy implements kestrel's truthiness rule, used by JMP_IF_TRUE/
// JMP_IF_FALSE and the ternary operator: null and false are falsy, the
// zero values of int/float/string are falsy, everything else truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.b
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	case Str:
		return v.s != ""
	default:
		return true
	}
}

// String renders v for printing (the `print` builtin) and disassembly.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return formatFloat(v.f)
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Str:
		return v.s
	case Obj:
		if v.obj == nil {
			return "<object nil>"
		}
		return fmt.Sprintf("<object %s>", v.obj.Class)
	case Ptr:
		return fmt.Sprintf("<ptr 0x%x>", v.ptr)
	default:
		return "<invalid>"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	return fmt.Sprintf("%g", f)
}

// Equal implements type-sensitive equality: values of different kinds are
// never equal except for the numeric int/float cross-comparison, which
// compares by widened value (spec.md §3: "int/float comparisons promote
// the int operand to float").
func Equal(a, b Value) bool {
	if a.kind == b.kind {
		switch a.kind {
		case Null:
			return true
		case Int:
			return a.i == b.i
		case Float:
			return a.f == b.f
		case Bool:
			return a.b == b.b
		case Str:
			return a.s == b.s
		case Obj:
			return a.obj == b.obj
		case Ptr:
			return a.ptr == b.ptr
		}
	}
	if isNumeric(a.kind) && isNumeric(b.kind) {
		return a.AsFloat64() == b.AsFloat64()
	}
	return false
}

func isNumeric(k Kind) bool { return k == Int || k == Float }

// Compare orders two numeric or string values, returning -1, 0 or 1. It
// panics on non-orderable kinds (bool/null/obj/ptr), which the VM's
// comparison handler (vm.binCompare) rejects before calling Compare.
func Compare(a, b Value) int {
	if a.kind == Str && b.kind == Str {
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	}
	if isNumeric(a.kind) && isNumeric(b.kind) {
		if a.kind == Int && b.kind == Int {
			switch {
			case a.i < b.i:
				return -1
			case a.i > b.i:
				return 1
			default:
				return 0
			}
		}
		af, bf := a.AsFloat64(), b.AsFloat64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	panic(fmt.Sprintf("value: cannot compare kinds %s and %s", a.kind, b.kind))
}
