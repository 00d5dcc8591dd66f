package bytecode

// ChunkCapacity is the fixed allocation size of every chunk's code
// array. Chosen small enough that ordinary programs force at least one
// chunk split in tests (see bytecode_test.go's boundary scenario),
// mirroring original_source/bytecode_buffer.h's fixed-capacity chunks.
const ChunkCapacity = 256

// linkageJumpReserve is the number of bytes every chunk always holds
// back for its trailing JMP_ADR: one opcode byte plus an 8-byte chunk id
// (see Op.OperandSize for JMP_ADR).
const linkageJumpReserve = 1 + 8

// Chunk is a growable, fixed-capacity byte array holding a run of
// bytecode. Chunks are linked into a doubly linked list owned by a
// Buffer. A linked chunk auto-falls-through to its successor via a
// trailing JMP_ADR once it runs out of room; a non-linked chunk (always
// a function body) is reachable only by CALL or an explicit jump.
type Chunk struct {
	ID   int
	Code []byte

	linked bool
	// linkedWith records the id of a successor chunk queued for
	// auto-linking once this chunk is sealed by Buffer.ensureSpace's
	// trailing rawEmitJumpAdr.
	linkedWith *int

	prev, next *Chunk
}

func newChunk(id int, linked bool) *Chunk {
	return &Chunk{
		ID:     id,
		Code:   make([]byte, 0, ChunkCapacity),
		linked: linked,
	}
}

// Linked reports whether c participates in fall-through linkage.
func (c *Chunk) Linked() bool { return c.linked }

// Next returns the chunk following c in the buffer's chunk list, or nil
// if c is the tail.
func (c *Chunk) Next() *Chunk { return c.next }

// Size returns the number of bytes currently written to c.
func (c *Chunk) Size() int { return len(c.Code) }

// HasCode reports whether any bytes have been written to c yet.
func (c *Chunk) HasCode() bool { return len(c.Code) > 0 }

// freeSpace is the number of bytes still available before ChunkCapacity.
func (c *Chunk) freeSpace() int { return cap(c.Code) - len(c.Code) }

// HasFreeSlots reports whether c can fit n more bytes while preserving
// the linkage-jump reserve. Every chunk — linked or not — reserves room
// for a trailing JMP_ADR, since any chunk (including a non-linked
// function body that outgrows one chunk) may need to bridge to a
// continuation chunk on overflow.
func (c *Chunk) HasFreeSlots(n int) bool {
	return c.freeSpace() >= n+linkageJumpReserve
}
