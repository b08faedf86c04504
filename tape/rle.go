package tape

import (
	"sync"

	"github.com/asphodex/bbtm"
)

// rleSegment is one maximal run of a repeated symbol in the chain. Segments
// with no left/right neighbor represent the edge of the tape, beyond which
// an implicit infinite run of blank (0) symbols is understood to lie.
type rleSegment struct {
	left, right *rleSegment
	sym         bbtm.Symbol
	length      int
}

// SegmentPool recycles rleSegment allocations across many runs, for callers
// whose workload makes per-step segment churn (splits on every write to a
// previously-untouched cell) a measurable cost.
type SegmentPool struct {
	pool sync.Pool
}

// NewSegmentPool creates an empty segment pool.
func NewSegmentPool() *SegmentPool {
	return &SegmentPool{pool: sync.Pool{New: func() any { return new(rleSegment) }}}
}

func (p *SegmentPool) get() *rleSegment {
	if p == nil {
		return new(rleSegment)
	}
	return p.pool.Get().(*rleSegment)
}

func (p *SegmentPool) put(s *rleSegment) {
	if p == nil {
		return
	}
	*s = rleSegment{}
	p.pool.Put(s)
}

// RLETape is a doubly-linked chain of (symbol, run-length) segments
// representing a two-way-infinite blank tape in O(1) amortized time per
// read/move and O(1) split/merge per write.
type RLETape struct {
	curr   *rleSegment
	rlePos int
	relPos int
	pool   *SegmentPool
}

// Option configures an RLETape at construction.
type Option func(*RLETape)

// WithSegmentPool makes the tape allocate and free rleSegment nodes through
// a shared pool instead of the default allocator.
func WithSegmentPool(pool *SegmentPool) Option {
	return func(t *RLETape) { t.pool = pool }
}

// NewRLETape creates a blank RLE tape: a single segment of symbol 0.
func NewRLETape(opts ...Option) *RLETape {
	t := &RLETape{}
	for _, opt := range opts {
		opt(t)
	}
	t.curr = t.newSegment(0, 1)
	return t
}

func (t *RLETape) newSegment(sym bbtm.Symbol, length int) *rleSegment {
	s := t.pool.get()
	s.sym = sym
	s.length = length
	return s
}

func link(left, right *rleSegment) {
	if left != nil {
		left.right = right
	}
	if right != nil {
		right.left = left
	}
}

// shrink decrements a segment's length by one, unlinking and freeing it if
// that drains it to zero.
func (t *RLETape) shrink(s *rleSegment) {
	s.length--
	if s.length <= 0 {
		link(s.left, s.right)
		t.pool.put(s)
	}
}

// Read returns the symbol under the head.
func (t *RLETape) Read() bbtm.Symbol {
	return t.curr.sym
}

// Write stores sym at the head, merging with a neighbor run of the same
// symbol when possible and otherwise splitting the current segment.
func (t *RLETape) Write(sym bbtm.Symbol) {
	orig := t.curr
	if orig.sym == sym {
		return
	}

	if t.rlePos == 0 && orig.left != nil && orig.left.sym == sym {
		t.curr = orig.left
		t.curr.length++
		t.rlePos = t.curr.length - 1
		t.shrink(orig)
		if r := t.curr.right; r != nil && r.sym == sym {
			t.curr.length += r.length
			link(t.curr, r.right)
			t.pool.put(r)
		}
		return
	}

	if t.rlePos == orig.length-1 && orig.right != nil && orig.right.sym == sym {
		t.curr = orig.right
		t.curr.length++
		t.rlePos = 0
		t.shrink(orig)
		if l := t.curr.left; l != nil && l.sym == sym {
			t.curr.length += l.length
			t.rlePos += l.length
			link(l.left, t.curr)
			t.pool.put(l)
		}
		return
	}

	mid := t.newSegment(sym, 1)

	leftLen := t.rlePos
	if leftLen > 0 {
		left := t.newSegment(orig.sym, leftLen)
		link(orig.left, left)
		link(left, mid)
	} else {
		link(orig.left, mid)
	}

	rightLen := orig.length - t.rlePos - 1
	if rightLen > 0 {
		right := t.newSegment(orig.sym, rightLen)
		link(right, orig.right)
		link(mid, right)
	} else {
		link(mid, orig.right)
	}

	t.curr = mid
	t.rlePos = 0
	t.pool.put(orig)
}

// Move shifts the head by exactly one cell, creating a fresh blank segment
// at the edge of the chain (or extending an existing blank edge segment) if
// the move would run off the end of the currently materialized chain.
func (t *RLETape) Move(dir bbtm.Direction) error {
	delta := dir.Delta()
	t.relPos += delta

	orig := t.curr

	if t.rlePos+delta < 0 {
		if orig.left == nil {
			if orig.sym == 0 {
				orig.length++
			} else {
				left := t.newSegment(0, 1)
				link(left, orig)
				t.curr = orig.left
				t.rlePos = t.curr.length - 1
			}
		} else {
			t.curr = orig.left
			t.rlePos = t.curr.length - 1
		}
		return nil
	}

	if t.rlePos+delta >= orig.length {
		if orig.right == nil {
			if orig.sym == 0 {
				orig.length++
				t.rlePos++
			} else {
				right := t.newSegment(0, 1)
				link(orig, right)
				t.curr = orig.right
				t.rlePos = t.curr.length - 1
			}
		} else {
			t.curr = orig.right
			t.rlePos = 0
		}
		return nil
	}

	t.rlePos += delta
	return nil
}

// CountNonzero walks the whole chain, starting from curr and going both
// directions, summing the length of every non-blank run.
func (t *RLETape) CountNonzero() int {
	nonzero := 0
	for s := t.curr; s != nil; s = s.left {
		if s.sym != 0 {
			nonzero += s.length
		}
	}
	for s := t.curr.right; s != nil; s = s.right {
		if s.sym != 0 {
			nonzero += s.length
		}
	}
	return nonzero
}

// RelPos returns the head's position relative to where the tape started.
func (t *RLETape) RelPos() int { return t.relPos }

// SymbolAt returns the symbol relOffset cells from the head, without moving
// it, walking outward along the chain. A position beyond either end of the
// materialized chain is implicitly blank.
func (t *RLETape) SymbolAt(relOffset int) bbtm.Symbol {
	if relOffset == 0 {
		return t.curr.sym
	}

	pos := t.rlePos + relOffset
	seg := t.curr
	if relOffset > 0 {
		for pos >= seg.length {
			pos -= seg.length
			if seg.right == nil {
				return 0
			}
			seg = seg.right
		}
		return seg.sym
	}

	for pos < 0 {
		if seg.left == nil {
			return 0
		}
		seg = seg.left
		pos += seg.length
	}
	return seg.sym
}

// CheckInvariants verifies the segment list's adjacency and acyclicity
// invariants: asserted in tests, and available for callers that want to
// cross-check expensive runs periodically. Panics on violation.
func (t *RLETape) CheckInvariants() {
	leftmost := t.curr
	for leftmost.left != nil {
		leftmost = leftmost.left
	}
	seen := make(map[*rleSegment]bool)
	for s := leftmost; s != nil; s = s.right {
		if seen[s] {
			invariantf("cycle detected in RLE chain")
		}
		seen[s] = true
		if s.length < 1 {
			invariantf("RLE segment with non-positive length %d", s.length)
		}
		if s.right != nil {
			if s.right.left != s {
				invariantf("RLE chain back-pointer mismatch")
			}
			if s.right.sym == s.sym {
				invariantf("adjacent RLE segments share symbol %d", s.sym)
			}
		}
	}
}

// Close frees every segment in the chain.
func (t *RLETape) Close() {
	s := t.curr
	for s.left != nil {
		s = s.left
	}
	for s != nil {
		next := s.right
		t.pool.put(s)
		s = next
	}
	t.curr = nil
}
