package tape

import "github.com/asphodex/bbtm"

// FlatTape is an auto-growing symbol array. When a move would leave the
// current buffer it doubles in size, copying the old contents into the
// middle half of the new buffer so growth in either direction amortizes to
// O(1) per cell touched.
type FlatTape struct {
	syms    []bbtm.Symbol
	relPos  int
	initPos int
}

// NewFlatTape allocates a blank flat tape of the given initial length, with
// the head starting at initPos (0 <= initPos < length).
func NewFlatTape(length, initPos int) *FlatTape {
	if length < 1 {
		panic("tape: FlatTape length must be positive")
	}
	if initPos < 0 || initPos >= length {
		panic("tape: FlatTape initial position out of range")
	}
	return &FlatTape{
		syms:    make([]bbtm.Symbol, length),
		initPos: initPos,
	}
}

func (t *FlatTape) memPos() int { return t.relPos + t.initPos }

// Read returns the symbol under the head.
func (t *FlatTape) Read() bbtm.Symbol {
	return t.syms[t.memPos()]
}

// Write stores sym at the head.
func (t *FlatTape) Write(sym bbtm.Symbol) {
	t.syms[t.memPos()] = sym
}

// Move shifts the head by exactly one cell in dir, growing the backing
// array (by doubling) first if that would run off either edge.
func (t *FlatTape) Move(dir bbtm.Direction) error {
	delta := dir.Delta()
	mem := t.memPos()
	for mem+delta < 0 || mem+delta >= len(t.syms) {
		t.grow()
		mem = t.memPos()
	}
	t.relPos += delta
	return nil
}

// grow doubles the backing array, placing the old contents starting at
// offset oldLen/2 so the data sits in the middle half of the new buffer.
func (t *FlatTape) grow() {
	oldLen := len(t.syms)
	newLen := oldLen * 2
	newSyms := make([]bbtm.Symbol, newLen)

	offset := oldLen / 2
	copy(newSyms[offset:], t.syms)

	t.syms = newSyms
	t.initPos += offset
}

// RelPos returns the head's position relative to where the tape started.
func (t *FlatTape) RelPos() int { return t.relPos }

// Len returns the current backing-array length (grows over time).
func (t *FlatTape) Len() int { return len(t.syms) }

// At returns the symbol at absolute memory index i, for use by the macro
// encoder, which reads back a fixed window of cells directly.
func (t *FlatTape) At(i int) bbtm.Symbol { return t.syms[i] }

// SetAt writes sym at absolute memory index i, bypassing the head; used by
// the macro encoder to seed the micro-symbols of a macro cell before
// simulating.
func (t *FlatTape) SetAt(i int, sym bbtm.Symbol) { t.syms[i] = sym }

// MemPos returns the current absolute memory index of the head.
func (t *FlatTape) MemPos() int { return t.memPos() }

// SymbolAt returns the symbol relOffset cells from the head, without
// moving it. Positions never materialized in the backing array (because
// the tape has not grown that far) are implicitly blank.
func (t *FlatTape) SymbolAt(relOffset int) bbtm.Symbol {
	mem := t.memPos() + relOffset
	if mem < 0 || mem >= len(t.syms) {
		return 0
	}
	return t.syms[mem]
}

// CountNonzero scans the full backing array for non-blank symbols. Cells
// added by growth start blank, so the count covers every cell ever written;
// the scan costs O(Len()) rather than the RLE tape's O(segments).
func (t *FlatTape) CountNonzero() int {
	n := 0
	for _, s := range t.syms {
		if s != 0 {
			n++
		}
	}
	return n
}

// Close releases the backing array.
func (t *FlatTape) Close() {
	t.syms = nil
}
