// Package bytecode implements the chunked, append-only bytecode store:
// Chunk/Buffer/Placeholder, atomic instruction emission, forward-jump
// back-patching and a chunk-aware Reader. Grounded on
// original_source/bytecode_buffer.{c,h} for the chunk-linking design and
// on the teacher's lang/machine/opcode.go for the Op enum/String() /
// disassembly texture (KTStephano-GVM's instrToStrMap/strToInstrMap
// informs the reverse name lookup as well).
package bytecode

// Op is a single-byte opcode tag drawn from the closed set in the
// language spec. Each opcode has a fixed-size immediate payload
// (OperandSize), read immediately following it in the byte stream.
type Op uint8

const (
	NOP Op = iota
	LOAD_CONST_INT
	LOAD_CONST_FLOAT
	LOAD_VAR
	STORE_VAR
	ADD
	SUB
	MUL
	DIV
	AND
	OR
	NOT
	EQUAL
	NOT_EQUAL
	LESS_THAN
	GREATER_THAN
	LESS_EQUAL
	GREATER_EQUAL
	JMP
	JMP_IF_TRUE
	JMP_IF_FALSE
	CALL
	RETURN
	NEW_OBJECT
	GET_PROPERTY
	SET_PROPERTY
	ALLOC_HEAP
	FREE_HEAP
	LOAD_STRING
	LOAD_BOOL
	TERNARY
	JMP_ADR
	ENTER_SCOPE
	EXIT_SCOPE
	PUSH
	POP
	SAVE_SP
	RESET_SP
	INC_REG
	HALT

	numOps
)

var opNames = [numOps]string{
	NOP:              "NOP",
	LOAD_CONST_INT:   "LOAD_CONST_INT",
	LOAD_CONST_FLOAT: "LOAD_CONST_FLOAT",
	LOAD_VAR:         "LOAD_VAR",
	STORE_VAR:        "STORE_VAR",
	ADD:              "ADD",
	SUB:              "SUB",
	MUL:              "MUL",
	DIV:              "DIV",
	AND:              "AND",
	OR:               "OR",
	NOT:              "NOT",
	EQUAL:            "EQUAL",
	NOT_EQUAL:        "NOT_EQUAL",
	LESS_THAN:        "LESS_THAN",
	GREATER_THAN:     "GREATER_THAN",
	LESS_EQUAL:       "LESS_EQUAL",
	GREATER_EQUAL:    "GREATER_EQUAL",
	JMP:              "JMP",
	JMP_IF_TRUE:      "JMP_IF_TRUE",
	JMP_IF_FALSE:     "JMP_IF_FALSE",
	CALL:             "CALL",
	RETURN:           "RETURN",
	NEW_OBJECT:       "NEW_OBJECT",
	GET_PROPERTY:     "GET_PROPERTY",
	SET_PROPERTY:     "SET_PROPERTY",
	ALLOC_HEAP:       "ALLOC_HEAP",
	FREE_HEAP:        "FREE_HEAP",
	LOAD_STRING:      "LOAD_STRING",
	LOAD_BOOL:        "LOAD_BOOL",
	TERNARY:          "TERNARY",
	JMP_ADR:          "JMP_ADR",
	ENTER_SCOPE:      "ENTER_SCOPE",
	EXIT_SCOPE:       "EXIT_SCOPE",
	PUSH:             "PUSH",
	POP:              "POP",
	SAVE_SP:          "SAVE_SP",
	RESET_SP:         "RESET_SP",
	INC_REG:          "INC_REG",
	HALT:             "HALT",
}

// reverseLookupOp maps a mnemonic back to its Op, built once at package
// init, mirroring the teacher's reverseLookupOpcode map.
var reverseLookupOp map[string]Op

func init() {
	reverseLookupOp = make(map[string]Op, numOps)
	for op, name := range opNames {
		reverseLookupOp[name] = Op(op)
	}
}

func (op Op) String() string {
	if int(op) >= len(opNames) || opNames[op] == "" {
		return "OP_UNKNOWN"
	}
	return opNames[op]
}

// LookupOp returns the Op for a mnemonic, and whether it was found.
func LookupOp(name string) (Op, bool) {
	op, ok := reverseLookupOp[name]
	return op, ok
}

// jumpOperandSize is the size in bytes of a jump instruction's immediate:
// a (chunk id, offset) pair of size_t slots, each encoded as a fixed
// 8-byte little-endian uint64 (see Placeholder).
const jumpOperandSize = 16

// OperandSize returns the number of immediate bytes that follow op in
// the instruction stream. CALL's callee-name operand is variable length
// (null-terminated) and is not covered by this table; callers must
// special-case CALL.
func (op Op) OperandSize() int {
	switch op {
	case LOAD_CONST_INT:
		return 8 // int64
	case LOAD_CONST_FLOAT:
		return 8 // float64
	case LOAD_VAR, STORE_VAR, INC_REG:
		return 2 // uint16 register index
	case JMP, JMP_IF_TRUE, JMP_IF_FALSE:
		return jumpOperandSize
	case JMP_ADR:
		return 8 // uint64 chunk id (see DESIGN.md: no raw host addresses)
	case ALLOC_HEAP:
		return 8 // uint64 requested size (reserved, no handler)
	case FREE_HEAP:
		return 8 // uint64 pointer (reserved, no handler)
	case LOAD_STRING:
		return 8 // uint64 index into the compiler's string constant pool (not a pointer)
	case LOAD_BOOL:
		return 1 // single byte, 0 or 1
	case CALL:
		return -1 // variable-length, null-terminated name
	default:
		return 0
	}
}

// IsJump reports whether op is one of the three chunk-local jump
// opcodes that carry a (chunk id, offset) Placeholder operand. JMP_ADR
// is excluded: it always targets a fixed chunk id with no patching.
func (op Op) IsJump() bool {
	switch op {
	case JMP, JMP_IF_TRUE, JMP_IF_FALSE:
		return true
	default:
		return false
	}
}
