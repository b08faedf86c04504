package tape

import (
	"fmt"

	"github.com/asphodex/bbtm"
)

// CompareKind classifies the outcome of comparing two tapes.
type CompareKind int

const (
	// Equal means the tapes agree on head position and every symbol
	// examined within the comparison window.
	Equal CompareKind = iota
	// DiffHead means the tapes' head positions disagree.
	DiffHead
	// DiffSymbol means the head positions agree but some cell differs.
	DiffSymbol
)

// CompareResult is the outcome of Compare. RelPos is only meaningful when
// Kind is DiffSymbol: the position, relative to the head and closest to it
// on the side examined first, where the tapes first disagree. This is a
// deliberate compromise (not the globally minimum differing position) to
// keep comparison O(window).
type CompareResult struct {
	Kind   CompareKind
	RelPos int
}

func (r CompareResult) String() string {
	switch r.Kind {
	case Equal:
		return "equal"
	case DiffHead:
		return "head positions differ"
	default:
		return fmt.Sprintf("differ at relative position %d", r.RelPos)
	}
}

// DefaultWindow is the default number of cells examined on each side of the
// head when the caller has no more specific bound in mind.
const DefaultWindow = 1000

// relReader is satisfied by every backend: read the symbol relOffset cells
// from the head without moving it.
type relReader interface {
	RelPos() int
	SymbolAt(relOffset int) bbtm.Symbol
}

// Compare reports how a and b, interpreted as two infinite tapes, relate:
// equal, head positions disagree, or the first differing cell found by
// scanning outward from the head within window cells on each side. a and b
// may be any mix of the three backends; each already exposes RelPos and
// SymbolAt, so no backend-pair-specific code is needed.
func Compare(a, b Tape, window int) CompareResult {
	ra, oka := a.(relReader)
	rb, okb := b.(relReader)
	if !oka || !okb {
		panic("tape: Compare called with an unsupported backend")
	}

	if ra.RelPos() != rb.RelPos() {
		return CompareResult{Kind: DiffHead}
	}

	// Walk outward from the head, alternating sides, so the first
	// disagreement reported is the one closest to the head.
	for offset := 0; offset <= window; offset++ {
		if ra.SymbolAt(offset) != rb.SymbolAt(offset) {
			return CompareResult{Kind: DiffSymbol, RelPos: offset}
		}
		if offset > 0 && ra.SymbolAt(-offset) != rb.SymbolAt(-offset) {
			return CompareResult{Kind: DiffSymbol, RelPos: -offset}
		}
	}

	return CompareResult{Kind: Equal}
}
