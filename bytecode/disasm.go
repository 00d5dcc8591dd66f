package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders every chunk in buf, in chunk-list order, as
// mnemonic + operand text. It is a debugging/test aid (spec.md §9 notes
// the source's disassembly is informal); not part of the VM's hot path.
// Grounded on KTStephano-GVM's Instruction.String()-style textual
// rendering and original_source/op_handlers.c's opcode comments.
//
// labels optionally names chunks by the function they hold the body of
// (keyed by chunk id), printed under that chunk's header; pass nil to
// omit. Building this map requires the caller's registry.Registry, which
// bytecode cannot import without a cycle (registry already imports
// bytecode for *Chunk) — see internal/maincmd/compile.go.
//
// Each instruction line is annotated with the source line it was
// compiled from, when the compiler recorded one via Buffer.MarkPos.
func Disassemble(buf *Buffer, labels map[int]string) string {
	var sb strings.Builder
	for c := buf.Head(); c != nil; c = c.next {
		kind := "linked"
		if !c.linked {
			kind = "non-linked"
		}
		fmt.Fprintf(&sb, "chunk %d (%s, %d bytes):\n", c.ID, kind, c.Size())
		if label, ok := labels[c.ID]; ok {
			fmt.Fprintf(&sb, "  ; %s\n", label)
		}
		r := NewReader(buf, c)
		for !r.AtEnd() {
			off := r.Offset()
			line, err := disasmOne(r)
			if err != nil {
				fmt.Fprintf(&sb, "  %4d  <error: %v>\n", off, err)
				break
			}
			if pos := buf.PosAt(c.ID, off); !pos.Unknown() {
				l, col := pos.LineCol()
				fmt.Fprintf(&sb, "  %4d  %-40s ; line %d:%d\n", off, line, l, col)
			} else {
				fmt.Fprintf(&sb, "  %4d  %s\n", off, line)
			}
		}
	}
	return sb.String()
}

func disasmOne(r *Reader) (string, error) {
	op, err := r.ReadOp()
	if err != nil {
		return "", err
	}
	switch op {
	case LOAD_CONST_INT:
		v, err := r.ReadInt64()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %d", op, v), nil
	case LOAD_CONST_FLOAT:
		v, err := r.ReadFloat64()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %g", op, v), nil
	case LOAD_VAR, STORE_VAR, INC_REG:
		v, err := r.ReadUint16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d", op, v), nil
	case JMP, JMP_IF_TRUE, JMP_IF_FALSE:
		id, off, err := r.ReadJumpTarget()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s chunk=%d off=%d", op, id, off), nil
	case JMP_ADR:
		id, err := r.ReadUint64()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s chunk=%d", op, id), nil
	case ALLOC_HEAP, FREE_HEAP, LOAD_STRING:
		v, err := r.ReadUint64()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s 0x%x", op, v), nil
	case LOAD_BOOL:
		v, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %v", op, v != 0), nil
	case CALL:
		name, err := r.ReadCString()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %q", op, name), nil
	default:
		return op.String(), nil
	}
}
