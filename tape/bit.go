package tape

import (
	"fmt"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/bitops"
)

// BitTape is a fixed-capacity tape of N symbols of sym_bits each, packed
// into a bitops.SymbolBuffer. It never grows: a move that would carry the
// head outside [0, N) fails with ErrCapacity.
type BitTape struct {
	buf     *bitops.SymbolBuffer
	n       int
	symBits int
	relPos  int
	initPos int
}

// NewBitTape allocates a blank bit tape of capacity n symbols, each symBits
// bits wide, with the head starting at initPos (0 <= initPos < n).
func NewBitTape(n, symBits, initPos int) *BitTape {
	if n < 1 {
		panic("tape: BitTape capacity must be positive")
	}
	if initPos < 0 || initPos >= n {
		panic(fmt.Sprintf("tape: BitTape initial position %d out of range [0, %d)", initPos, n))
	}
	return &BitTape{
		buf:     bitops.NewSymbolBuffer(n, symBits),
		n:       n,
		symBits: symBits,
		initPos: initPos,
	}
}

func (t *BitTape) memPos() int { return t.relPos + t.initPos }

// Read returns the symbol under the head.
func (t *BitTape) Read() bbtm.Symbol {
	return bbtm.Symbol(t.buf.Read(t.memPos()))
}

// Write stores sym at the head.
func (t *BitTape) Write(sym bbtm.Symbol) {
	t.buf.Write(t.memPos(), bitops.Word(sym))
}

// Move shifts the head by exactly one cell in dir. Returns ErrCapacity if
// that would leave [0, N).
func (t *BitTape) Move(dir bbtm.Direction) error {
	delta := dir.Delta()
	next := t.memPos() + delta
	if next < 0 || next >= t.n {
		return fmt.Errorf("%w: position %d, capacity %d", ErrCapacity, next, t.n)
	}
	t.relPos += delta
	return nil
}

// RelPos returns the head's position relative to where the tape started.
func (t *BitTape) RelPos() int { return t.relPos }

// SymbolAt returns the symbol relOffset cells from the head, without
// moving it. Positions outside the fixed capacity are implicitly blank,
// matching the other backends' treatment of unmaterialized cells.
func (t *BitTape) SymbolAt(relOffset int) bbtm.Symbol {
	mem := t.memPos() + relOffset
	if mem < 0 || mem >= t.n {
		return 0
	}
	return bbtm.Symbol(t.buf.Read(mem))
}

// Close releases the backing buffer.
func (t *BitTape) Close() {
	t.buf = nil
}
