package bytecode

import "github.com/kestrelscript/kestrel/token"

// posEntry records that, from offset onward (until the next posEntry in
// the same chunk), instructions originate from pos.
type posEntry struct {
	offset int
	pos    token.Pos
}

// MarkPos records pos as the source position of whatever is emitted next,
// so a later PosAt(chunkID, offset) lookup can recover a line number for
// disassembly or a runtime error. Called once per statement by the
// compiler (see compiler.Context.compileStmt); granularity coarser than
// per-instruction is enough to "cite a source line" per spec.md §5.
func (b *Buffer) MarkPos(pos token.Pos) {
	id, off := b.Pos()
	entries := b.posTable[id]
	if n := len(entries); n > 0 && entries[n-1].offset == off {
		entries[n-1].pos = pos
		return
	}
	b.posTable[id] = append(entries, posEntry{offset: off, pos: pos})
}

// PosAt returns the source position registered for the instruction at
// (chunkID, offset), i.e. the position of the last MarkPos call at or
// before that offset in that chunk. Returns token.NoPos if chunkID has no
// recorded position at or before offset.
func (b *Buffer) PosAt(chunkID, offset int) token.Pos {
	entries := b.posTable[chunkID]
	pos := token.NoPos
	for _, e := range entries {
		if e.offset > offset {
			break
		}
		pos = e.pos
	}
	return pos
}
