// Package tape provides three interchangeable Turing-machine tape
// backends (a bit-packed fixed tape, an auto-growing flat array, and a
// run-length-encoded linked chain) behind one Tape interface, plus a
// Compare function for cross-checking two tapes representing the same
// infinite sequence in different forms.
package tape

import (
	"errors"
	"fmt"

	"github.com/asphodex/bbtm"
)

// Tape is the common contract every backend implements: read/write the
// cell under the head, move the head by exactly one cell, and release any
// resources the tape owns.
type Tape interface {
	Read() bbtm.Symbol
	Write(sym bbtm.Symbol)
	Move(dir bbtm.Direction) error
	Close()
}

// ErrCapacity is returned when a move would carry the head outside a
// fixed-capacity tape (the BitTape backend only; the other backends grow
// instead of failing).
var ErrCapacity = errors.New("tape: move exceeds fixed capacity")

func invariantf(format string, args ...any) {
	panic(fmt.Sprintf("tape: invariant violation: "+format, args...))
}
