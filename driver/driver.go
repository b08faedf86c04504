// Package driver steps a transition table across 1..3 tapes in lockstep,
// cross-checking that every attached tape sees the same symbol under the
// head at every step, and drives a run to halt or until a step budget
// expires.
package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/tape"
)

// MaxTapes is the largest number of tapes a Run may have attached at once.
const MaxTapes = 3

// ErrNoTapes is returned by New when called with no tapes.
var ErrNoTapes = errors.New("driver: at least one tape is required")

// ErrTooManyTapes is returned by New when called with more than MaxTapes.
var ErrTooManyTapes = errors.New("driver: at most 3 tapes may be attached")

// Run holds a non-owning reference to a transition table and owns the
// tapes attached to it. Close releases the tapes on every exit path; the
// table is never closed here, since it may be shared by multiple runs in
// sequence (e.g. the macro encoder's slow/fast inner simulations).
type Run struct {
	table *bbtm.Table
	tapes []tape.Tape
	state bbtm.State
	steps uint64
}

// New creates a run over table with between 1 and MaxTapes tapes attached,
// starting in state 0 (conventionally "A").
func New(table *bbtm.Table, tapes ...tape.Tape) (*Run, error) {
	if len(tapes) == 0 {
		return nil, ErrNoTapes
	}
	if len(tapes) > MaxTapes {
		return nil, ErrTooManyTapes
	}
	return &Run{table: table, tapes: tapes, state: 0}, nil
}

// State returns the current state.
func (r *Run) State() bbtm.State { return r.state }

// SetState forces the run's current state. It exists for the macro
// encoder, which seeds a bounded inner run at an arbitrary base state
// before simulating rather than starting every inner run from state 0.
func (r *Run) SetState(s bbtm.State) { r.state = s }

// Steps returns the number of steps executed so far.
func (r *Run) Steps() uint64 { return r.steps }

// Halted reports whether the machine has reached the halting sentinel
// (state < 0 or state >= NStates).
func (r *Run) Halted() bool {
	return r.state < 0 || int(r.state) >= r.table.NStates
}

func invariantf(format string, args ...any) {
	panic(fmt.Sprintf("driver: invariant violation: "+format, args...))
}

// Step performs one fetch/decode/write/move cycle: reads the symbol under
// the head of every attached tape, panicking if they disagree (a
// correctness bug, never user data), looks it up once, writes and moves
// every tape, and advances the state. It is a programmer error to step a
// halted run; Step panics in that case rather than returning an error.
func (r *Run) Step() error {
	if r.Halted() {
		panic("driver: Step called on a halted run")
	}

	inSym := r.tapes[0].Read()
	for _, t := range r.tapes[1:] {
		if sym := t.Read(); sym != inSym {
			invariantf("tapes disagree on symbol under head: %d vs %d", inSym, sym)
		}
	}

	instr := r.table.Lookup(r.state, inSym)

	for _, t := range r.tapes {
		t.Write(instr.Write)
		if err := t.Move(instr.Dir); err != nil {
			return fmt.Errorf("driver: step %d: %w", r.steps, err)
		}
	}

	r.state = instr.Next
	r.steps++
	return nil
}

// Status is the outcome of RunSteps.
type Status int

const (
	// Halted means the run is in the halting state when RunSteps returns,
	// whether it got there during this call or had already halted before.
	Halted Status = iota
	// BudgetExhausted means maxSteps were performed without halting.
	// This is not an error; exhausting the budget is an expected outcome
	// of RunSteps, not a failure mode.
	BudgetExhausted
)

func (s Status) String() string {
	if s == Halted {
		return "halted"
	}
	return "budget exhausted"
}

// RunSteps performs up to maxSteps steps of r, stopping early if the
// machine halts. A step that transitions to Halt counts toward maxSteps.
// ctx is checked once per step for cancellation.
func (r *Run) RunSteps(ctx context.Context, maxSteps uint64) (Status, error) {
	if r.Halted() {
		return Halted, nil
	}

	var steps uint64
	for steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := r.Step(); err != nil {
			return 0, err
		}
		steps++

		if r.Halted() {
			return Halted, nil
		}
	}

	return BudgetExhausted, nil
}

// CountNonzero counts non-blank cells on the run's primary (first
// attached) tape, using whichever counting strategy that backend
// provides.
func (r *Run) CountNonzero() (int, error) {
	switch t := r.tapes[0].(type) {
	case *tape.RLETape:
		return t.CountNonzero(), nil
	case *tape.FlatTape:
		return t.CountNonzero(), nil
	default:
		return 0, fmt.Errorf("driver: CountNonzero not supported for %T", t)
	}
}

// CrossCheck compares every distinct pair of attached tapes within window
// cells of the head, returning the first disagreement found (if any). It
// is not called automatically on every Step (that would make the O(window)
// cost quadratic over a long run); callers that want periodic cross-
// checking beyond the O(1) per-step symbol-under-head agreement Step
// already enforces should call this directly every so often.
func (r *Run) CrossCheck(window int) tape.CompareResult {
	for i := 0; i < len(r.tapes); i++ {
		for j := i + 1; j < len(r.tapes); j++ {
			if result := tape.Compare(r.tapes[i], r.tapes[j], window); result.Kind != tape.Equal {
				return result
			}
		}
	}
	return tape.CompareResult{Kind: tape.Equal}
}

// Close releases every tape attached to the run. The table is never
// closed: it is borrowed, not owned.
func (r *Run) Close() {
	for _, t := range r.tapes {
		t.Close()
	}
	r.tapes = nil
}
