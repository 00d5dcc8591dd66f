// Package vm implements kestrel's register/stack virtual machine: a
// chunk-hopping bytecode reader, a fixed 512-slot register file, a
// 2048-slot operand stack, and a call stack of frames that snapshot the
// entire register file per spec.md §4.5. Grounded on the teacher's
// lang/machine package for the labeled-loop/switch dispatch texture
// (machine.go's `loop: for { switch op { ... } }`) and on
// original_source/op_handlers.c for per-opcode semantics, with the
// explicit correction noted in spec.md Design Notes §9: no process-wide
// VM singleton — every VM is built by New from its own bytecode,
// function registry and constant pool, passed as explicit arguments.
package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrelscript/kestrel/bytecode"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/registry"
	"github.com/kestrelscript/kestrel/symtab"
	"github.com/kestrelscript/kestrel/token"
	"github.com/kestrelscript/kestrel/value"
)

// OperandStackCapacity is the fixed upper bound on the operand stack
// (spec.md §3: "2048-slot operand stack").
const OperandStackCapacity = 2048

// callFrame snapshots the caller's position and entire register file at
// a CALL, restored verbatim by the matching RETURN.
type callFrame struct {
	chunk     *bytecode.Chunk
	offset    int
	registers [symtab.MaxRegisters]value.Value
}

// VM is one execution of a compiled program. It holds no state shared
// across runs; callers construct a fresh VM per Run.
type VM struct {
	buf       *bytecode.Buffer
	functions *registry.Registry
	consts    []string
	errs      *errlist.List

	// MaxSteps bounds the number of dispatched instructions before Run
	// aborts with a cancellation error, mirroring the teacher's
	// Thread.MaxSteps (lang/machine/thread.go) as ambient plumbing, not a
	// language feature (spec.md Non-goals explicitly excludes a real
	// scheduler/concurrency model). Zero means no limit.
	MaxSteps uint64

	registers [symtab.MaxRegisters]value.Value
	stack     []value.Value
	spMarks   []int
	frames    []callFrame
	steps     uint64

	// curChunkID/curOffset track the reader's position at the start of
	// the instruction currently being dispatched, so runtimeErrorf can
	// cite a source line via buf.PosAt (spec.md §5).
	curChunkID int
	curOffset  int
}

// New creates a VM ready to execute buf, resolving CALL targets through
// functions and LOAD_STRING indices through consts. errs may be nil; if
// given, runtime errors are also reported to it with errlist.Runtime.
func New(buf *bytecode.Buffer, functions *registry.Registry, consts []string, errs *errlist.List) *VM {
	return &VM{
		buf:       buf,
		functions: functions,
		consts:    consts,
		errs:      errs,
		stack:     make([]value.Value, 0, OperandStackCapacity),
	}
}

func (vm *VM) runtimeErrorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	pos := vm.buf.PosAt(vm.curChunkID, vm.curOffset)
	if vm.errs != nil {
		vm.errs.Report(errlist.Runtime, pos, msg)
	}
	if !pos.Unknown() {
		line, col := pos.LineCol()
		return fmt.Errorf("%d:%d: %s", line, col, msg)
	}
	return errors.New(msg)
}

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) >= OperandStackCapacity {
		return vm.runtimeErrorf("operand stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (value.Value, error) {
	if len(vm.stack) == 0 {
		return value.Value{}, vm.runtimeErrorf("operand stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) constAt(idx int) string {
	if idx < 0 || idx >= len(vm.consts) {
		return ""
	}
	return vm.consts[idx]
}

// Run executes the program from the buffer's first chunk until HALT or
// a top-level RETURN, returning the resulting value, or an error on the
// first runtime fault (stack over/underflow, division by zero,
// undefined call target, non-numeric/non-orderable operand, ...).
//
// ctx carries ambient cancellation only (spec.md Design Notes §9: no
// concurrency feature is implemented), grounded on the teacher's
// Thread.RunProgram(ctx, ...) — Run checks ctx.Err() once per dispatched
// instruction, the same point the teacher's machine.go loop checks
// th.cancelled/th.steps.
func (vm *VM) Run(ctx context.Context) (value.Value, error) {
	r := bytecode.NewReader(vm.buf, vm.buf.Head())

	var runtimeErr error
loop:
	for {
		vm.steps++
		if vm.MaxSteps > 0 && vm.steps > vm.MaxSteps {
			runtimeErr = vm.runtimeErrorf("execution cancelled: exceeded %d steps", vm.MaxSteps)
			break loop
		}
		if err := ctx.Err(); err != nil {
			runtimeErr = vm.runtimeErrorf("execution cancelled: %v", err)
			break loop
		}

		vm.curChunkID, vm.curOffset = r.Chunk().ID, r.Offset()
		op, err := r.ReadOp()
		if err != nil {
			runtimeErr = vm.runtimeErrorf("%v", err)
			break loop
		}

		switch op {
		case bytecode.NOP, bytecode.ENTER_SCOPE, bytecode.EXIT_SCOPE:
			// ENTER_SCOPE/EXIT_SCOPE are reserved: scoping is resolved at
			// compile time via the register allocator, so the compiler never
			// emits them.

		case bytecode.LOAD_CONST_INT:
			v, err := r.ReadInt64()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := vm.push(value.NewInt(v)); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.LOAD_CONST_FLOAT:
			v, err := r.ReadFloat64()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := vm.push(value.NewFloat(v)); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.LOAD_BOOL:
			b, err := r.ReadByte()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := vm.push(value.NewBool(b != 0)); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.LOAD_STRING:
			idx, err := r.ReadUint64()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := vm.push(value.NewStr(vm.constAt(int(idx)))); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.LOAD_VAR:
			idx, err := r.ReadUint16()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := vm.push(vm.registers[idx]); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.STORE_VAR:
			idx, err := r.ReadUint16()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			v, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			vm.registers[idx] = v

		case bytecode.INC_REG:
			idx, err := r.ReadUint16()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			cur := vm.registers[idx]
			switch cur.Kind() {
			case value.Int:
				vm.registers[idx] = value.NewInt(cur.Int64() + 1)
			case value.Float:
				vm.registers[idx] = value.NewFloat(cur.Float64() + 1)
			default:
				runtimeErr = vm.runtimeErrorf("INC_REG on non-numeric register %d (%s)", idx, cur.Kind())
				break loop
			}

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV:
			if err := vm.binArith(op); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.AND, bytecode.OR:
			if err := vm.binLogic(op); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.NOT:
			v, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			if err := vm.push(value.NewBool(!v.Truthy())); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.EQUAL, bytecode.NOT_EQUAL:
			b, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			a, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			eq := value.Equal(a, b)
			if op == bytecode.NOT_EQUAL {
				eq = !eq
			}
			if err := vm.push(value.NewBool(eq)); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.LESS_THAN, bytecode.GREATER_THAN, bytecode.LESS_EQUAL, bytecode.GREATER_EQUAL:
			if err := vm.binCompare(op); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.TERNARY:
			falseV, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			trueV, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			condV, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			selected := falseV
			if condV.Truthy() {
				selected = trueV
			}
			if err := vm.push(selected); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.JMP:
			id, off, err := r.ReadJumpTarget()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := r.JumpTo(id, off); err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}

		case bytecode.JMP_IF_TRUE, bytecode.JMP_IF_FALSE:
			id, off, err := r.ReadJumpTarget()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			cond, err := vm.pop()
			if err != nil {
				runtimeErr = err
				break loop
			}
			take := cond.Truthy()
			if op == bytecode.JMP_IF_FALSE {
				take = !take
			}
			if take {
				if err := r.JumpTo(id, off); err != nil {
					runtimeErr = vm.runtimeErrorf("%v", err)
					break loop
				}
			}

		case bytecode.JMP_ADR:
			id, err := r.ReadUint64()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := r.JumpTo(int(id), 0); err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}

		case bytecode.CALL:
			name, err := r.ReadCString()
			if err != nil {
				runtimeErr = vm.runtimeErrorf("%v", err)
				break loop
			}
			if err := vm.call(r, name); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.RETURN:
			done, result, err := vm.doReturn(r)
			if err != nil {
				runtimeErr = err
				break loop
			}
			if done {
				return result, nil
			}

		case bytecode.SAVE_SP:
			vm.spMarks = append(vm.spMarks, len(vm.stack))

		case bytecode.RESET_SP:
			if len(vm.spMarks) == 0 {
				runtimeErr = vm.runtimeErrorf("RESET_SP without a matching SAVE_SP")
				break loop
			}
			top := vm.spMarks[len(vm.spMarks)-1]
			vm.spMarks = vm.spMarks[:len(vm.spMarks)-1]
			vm.stack = vm.stack[:top]

		case bytecode.PUSH:
			runtimeErr = vm.runtimeErrorf("PUSH is reserved and has no compiler-emitted meaning")
			break loop

		case bytecode.POP:
			if _, err := vm.pop(); err != nil {
				runtimeErr = err
				break loop
			}

		case bytecode.HALT:
			if len(vm.stack) == 0 {
				return value.NewNull(), nil
			}
			v, _ := vm.pop()
			return v, nil

		case bytecode.NEW_OBJECT, bytecode.GET_PROPERTY, bytecode.SET_PROPERTY, bytecode.ALLOC_HEAP, bytecode.FREE_HEAP:
			runtimeErr = vm.runtimeErrorf("%s is a reserved opcode with no handler", op)
			break loop

		default:
			runtimeErr = vm.runtimeErrorf("unknown opcode %d", op)
			break loop
		}
	}

	return value.NewNull(), runtimeErr
}

// binArith implements ADD/SUB/MUL/DIV: both operands must be numeric,
// and the result promotes to float if either operand is a float (the
// compiler's unary-minus lowering and this promotion rule together give
// spec.md §3's "int/float promotion" its full effect across every
// arithmetic operator, not only SUB/MUL — see DESIGN.md).
func (vm *VM) binArith(op bytecode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if !isNumeric(a.Kind()) || !isNumeric(b.Kind()) {
		return vm.runtimeErrorf("operator %s requires numeric operands, got %s and %s", op, a.Kind(), b.Kind())
	}
	if op == bytecode.DIV && isZero(b) {
		return vm.runtimeErrorf("division by zero")
	}
	if a.Kind() == value.Int && b.Kind() == value.Int {
		var r int64
		switch op {
		case bytecode.ADD:
			r = a.Int64() + b.Int64()
		case bytecode.SUB:
			r = a.Int64() - b.Int64()
		case bytecode.MUL:
			r = a.Int64() * b.Int64()
		case bytecode.DIV:
			r = a.Int64() / b.Int64()
		}
		return vm.push(value.NewInt(r))
	}
	af, bf := a.AsFloat64(), b.AsFloat64()
	var r float64
	switch op {
	case bytecode.ADD:
		r = af + bf
	case bytecode.SUB:
		r = af - bf
	case bytecode.MUL:
		r = af * bf
	case bytecode.DIV:
		r = af / bf
	}
	return vm.push(value.NewFloat(r))
}

func (vm *VM) binLogic(op bytecode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	var r bool
	if op == bytecode.AND {
		r = a.Truthy() && b.Truthy()
	} else {
		r = a.Truthy() || b.Truthy()
	}
	return vm.push(value.NewBool(r))
}

func (vm *VM) binCompare(op bytecode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if !orderable(a.Kind()) || !orderable(b.Kind()) {
		return vm.runtimeErrorf("operator %s requires orderable operands, got %s and %s", op, a.Kind(), b.Kind())
	}
	c := value.Compare(a, b)
	var r bool
	switch op {
	case bytecode.LESS_THAN:
		r = c < 0
	case bytecode.GREATER_THAN:
		r = c > 0
	case bytecode.LESS_EQUAL:
		r = c <= 0
	case bytecode.GREATER_EQUAL:
		r = c >= 0
	}
	return vm.push(value.NewBool(r))
}

func isNumeric(k value.Kind) bool { return k == value.Int || k == value.Float }

func orderable(k value.Kind) bool { return k == value.Int || k == value.Float || k == value.Str }

func isZero(v value.Value) bool {
	if v.Kind() == value.Int {
		return v.Int64() == 0
	}
	return v.Float64() == 0
}

// call implements CALL: the built-in `print` pops and prints one value
// and leaves a null in its place (every call, builtin or not, leaves
// exactly one value behind); a user-defined call pops Arity values off
// the stack — the arguments the compiler just pushed — into the
// callee's parameter registers, saves a callFrame snapshotting the
// caller's read position and entire register file, and jumps the
// reader into the callee's body. See DESIGN.md for why this omits
// spec.md §4.4's literal parameter-register preserve-push: it is never
// consumed by original_source's own handlers and corrupts sibling
// operands of a binary expression when a call appears as one side.
func (vm *VM) call(r *bytecode.Reader, name string) error {
	if name == "print" {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		fmt.Println(v.String())
		return vm.push(value.NewNull())
	}

	rec, ok := vm.functions.Lookup(name)
	if !ok {
		return vm.runtimeErrorf("call to undefined function %q", name)
	}
	if len(vm.stack) < rec.Arity {
		return vm.runtimeErrorf("not enough arguments on the stack for call to %q", name)
	}

	args := make([]value.Value, rec.Arity)
	for i := rec.Arity - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	frame := callFrame{chunk: r.Chunk(), offset: r.Offset(), registers: vm.registers}
	vm.frames = append(vm.frames, frame)

	for i := 0; i < rec.Arity; i++ {
		vm.registers[int(rec.ArgB)+i] = args[i]
	}

	return r.JumpTo(rec.Body.ID, 0)
}

// doReturn implements RETURN: pop the return value, then either end
// the run (no enclosing call frame — this was the top-level return) or
// restore the caller's position and whole register file and push the
// return value back for the caller to consume.
func (vm *VM) doReturn(r *bytecode.Reader) (done bool, result value.Value, err error) {
	v, err := vm.pop()
	if err != nil {
		return false, value.Value{}, err
	}
	if len(vm.frames) == 0 {
		return true, v, nil
	}

	top := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.registers = top.registers

	if err := r.JumpTo(top.chunk.ID, top.offset); err != nil {
		return false, value.Value{}, vm.runtimeErrorf("%v", err)
	}
	if err := vm.push(v); err != nil {
		return false, value.Value{}, err
	}
	return false, value.Value{}, nil
}
