package bytecode

import (
	"encoding/binary"
	"math"
)

// Placeholder identifies the position of a forward-jump instruction's
// immediate operand whose target is not yet known: a (chunk id, byte
// offset) pair. Back-patching overwrites the two size_t slots at that
// position in place.
type Placeholder struct {
	ChunkID int
	Offset  int // offset of the first byte of the 16-byte jump operand
}

// Buffer owns the chunk list, the head/tail/current chunk pointers, and
// the monotonically increasing next-chunk-id counter. It provides
// append-only emission with an atomic per-instruction write guarantee:
// every emit routine first ensures the current chunk has room for the
// whole instruction (reserving space for a trailing linkage jump in
// every chunk, linked or not) before writing any byte of it.
type Buffer struct {
	head, tail, current *Chunk
	byID                map[int]*Chunk
	nextID               int

	// returnCursor is the chunk to resume emitting into after a non-linked
	// region (a function body) is carved out and closed.
	returnCursor *Chunk

	// posTable maps a chunk id to its source-position entries, in
	// ascending offset order. See MarkPos/PosAt in pos.go.
	posTable map[int][]posEntry
}

// NewBuffer creates a Buffer containing one empty linked chunk.
func NewBuffer() *Buffer {
	b := &Buffer{byID: make(map[int]*Chunk), posTable: make(map[int][]posEntry)}
	c := b.appendChunk(true)
	b.head = c
	b.current = c
	return b
}

func (b *Buffer) appendChunk(linked bool) *Chunk {
	id := b.nextID
	b.nextID++
	c := newChunk(id, linked)
	c.prev = b.tail
	if b.tail != nil {
		b.tail.next = c
	}
	b.tail = c
	b.byID[id] = c
	return c
}

// ChunkByID looks up a chunk by id.
func (b *Buffer) ChunkByID(id int) (*Chunk, bool) {
	c, ok := b.byID[id]
	return c, ok
}

// Current returns the chunk currently being written to.
func (b *Buffer) Current() *Chunk { return b.current }

// Head returns the first chunk in program order.
func (b *Buffer) Head() *Chunk { return b.head }

// Size returns the sum of the sizes of every chunk, i.e. the total
// number of bytes emitted across the whole buffer.
func (b *Buffer) Size() int {
	n := 0
	for c := b.head; c != nil; c = c.next {
		n += c.Size()
	}
	return n
}

// ensureSpace guarantees the current chunk can fit n more bytes,
// spilling into a freshly appended chunk (and bridging with a trailing
// JMP_ADR) if necessary. This is the atomicity guarantee from spec.md
// §4.1: called before a single byte of the instruction is written.
func (b *Buffer) ensureSpace(n int) {
	if b.current.HasFreeSlots(n) {
		return
	}
	linked := b.current.linked
	next := b.appendChunk(linked)
	id := next.ID
	b.current.linkedWith = &id
	b.rawEmitJumpAdr(b.current, next.ID)
	b.current = next
}

// rawEmitJumpAdr writes the trailing linkage jump directly into the
// reserved tail of an outgoing chunk, bypassing ensureSpace (the reserve
// was already held back for exactly this write by HasFreeSlots).
func (b *Buffer) rawEmitJumpAdr(c *Chunk, targetChunkID int) {
	c.Code = append(c.Code, byte(JMP_ADR))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(targetChunkID))
	c.Code = append(c.Code, tmp[:]...)
}

// EmitOp emits a bare opcode with no immediate (e.g. ADD, POP, HALT).
// Returns the (chunk id, offset) of the opcode byte.
func (b *Buffer) EmitOp(op Op) (int, int) {
	b.ensureSpace(1)
	off := b.current.Size()
	b.current.Code = append(b.current.Code, byte(op))
	return b.current.ID, off
}

func (b *Buffer) emitHeader(op Op, immSize int) int {
	b.ensureSpace(1 + immSize)
	off := b.current.Size()
	b.current.Code = append(b.current.Code, byte(op))
	return off
}

// EmitOpInt64 emits op followed by an 8-byte little-endian int64
// immediate (LOAD_CONST_INT).
func (b *Buffer) EmitOpInt64(op Op, v int64) (int, int) {
	chunkOff := b.emitHeader(op, 8)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	b.current.Code = append(b.current.Code, tmp[:]...)
	return b.current.ID, chunkOff
}

// EmitOpFloat64 emits op followed by an 8-byte little-endian float64
// bit pattern (LOAD_CONST_FLOAT).
func (b *Buffer) EmitOpFloat64(op Op, v float64) (int, int) {
	chunkOff := b.emitHeader(op, 8)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.current.Code = append(b.current.Code, tmp[:]...)
	return b.current.ID, chunkOff
}

// EmitOpUint16 emits op followed by a 2-byte little-endian uint16
// immediate (LOAD_VAR / STORE_VAR / INC_REG register index).
func (b *Buffer) EmitOpUint16(op Op, v uint16) (int, int) {
	chunkOff := b.emitHeader(op, 2)
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.current.Code = append(b.current.Code, tmp[:]...)
	return b.current.ID, chunkOff
}

// EmitOpUint64 emits op followed by an 8-byte little-endian uint64
// immediate (JMP_ADR chunk id, ALLOC_HEAP size, FREE_HEAP pointer,
// LOAD_STRING constant-pool index).
func (b *Buffer) EmitOpUint64(op Op, v uint64) (int, int) {
	chunkOff := b.emitHeader(op, 8)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.current.Code = append(b.current.Code, tmp[:]...)
	return b.current.ID, chunkOff
}

// EmitOpByte emits op followed by a single raw byte immediate
// (LOAD_BOOL).
func (b *Buffer) EmitOpByte(op Op, v byte) (int, int) {
	chunkOff := b.emitHeader(op, 1)
	b.current.Code = append(b.current.Code, v)
	return b.current.ID, chunkOff
}

// EmitOpString emits op followed by a null-terminated string (CALL's
// callee name). Strings never cross a chunk boundary: their full length
// plus terminator is reserved up front like any other operand.
func (b *Buffer) EmitOpString(op Op, s string) (int, int) {
	chunkOff := b.emitHeader(op, len(s)+1)
	b.current.Code = append(b.current.Code, s...)
	b.current.Code = append(b.current.Code, 0)
	return b.current.ID, chunkOff
}

// EmitJumpPlaceholder emits a jump opcode (JMP, JMP_IF_TRUE or
// JMP_IF_FALSE) followed by two zero-valued uint64 slots (target chunk
// id, target offset) and returns a handle to back-patch later.
func (b *Buffer) EmitJumpPlaceholder(op Op) Placeholder {
	chunkOff := b.emitHeader(op, jumpOperandSize)
	var zero [jumpOperandSize]byte
	b.current.Code = append(b.current.Code, zero[:]...)
	return Placeholder{ChunkID: b.current.ID, Offset: chunkOff + 1}
}

// BackPatch overwrites the two zero-valued slots at p with the resolved
// target (chunk id, offset), in place.
func (b *Buffer) BackPatch(p Placeholder, targetChunkID, targetOffset int) {
	c, ok := b.ChunkByID(p.ChunkID)
	if !ok {
		panic("bytecode: back-patch references unknown chunk")
	}
	binary.LittleEndian.PutUint64(c.Code[p.Offset:p.Offset+8], uint64(targetChunkID))
	binary.LittleEndian.PutUint64(c.Code[p.Offset+8:p.Offset+16], uint64(targetOffset))
}

// ReadBackPatch returns the (chunk id, offset) currently stored at a
// placeholder's slots, used by tests asserting round-trip back-patching.
func (b *Buffer) ReadBackPatch(p Placeholder) (int, int) {
	c, ok := b.ChunkByID(p.ChunkID)
	if !ok {
		panic("bytecode: read-back-patch references unknown chunk")
	}
	id := binary.LittleEndian.Uint64(c.Code[p.Offset : p.Offset+8])
	off := binary.LittleEndian.Uint64(c.Code[p.Offset+8 : p.Offset+16])
	return int(id), int(off)
}

// BeginNonLinkedRegion saves the current chunk as the return cursor and
// makes a freshly appended non-linked chunk current. Used by the
// compiler when it starts emitting a function body.
func (b *Buffer) BeginNonLinkedRegion() {
	b.returnCursor = b.current
	b.current = b.appendChunk(false)
}

// EndNonLinkedRegion restores the saved return cursor and returns the
// non-linked chunk that was just closed off (the function body's entry
// chunk).
func (b *Buffer) EndNonLinkedRegion() *Chunk {
	body := b.current
	b.current = b.returnCursor
	b.returnCursor = nil
	return body
}

// Pos returns the (chunk id, offset) of the next byte that will be
// written, i.e. the position an instruction emitted right now would
// start at. Used to record loop heads and jump targets.
func (b *Buffer) Pos() (int, int) {
	return b.current.ID, b.current.Size()
}
