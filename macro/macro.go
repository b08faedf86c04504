// Package macro compiles a base transition table into a macro machine:
// a table over "directed states" (base state, entry direction) and
// macro-symbols (a packed run of scale adjacent base symbols), whose
// single step simulates up to scale base-machine steps.
package macro

import (
	"errors"
	"fmt"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/driver"
	"github.com/asphodex/bbtm/tape"
)

// ErrUnsupportedAlphabet is returned when the base table's alphabet isn't
// the 2-symbol case this encoder supports. Packing more than 2 symbols
// per macro-cell bit is possible but would need a non-binary packing
// scheme this encoder does not implement.
var ErrUnsupportedAlphabet = errors.New("macro: only 2-symbol base tables are supported")

// ErrUndecided is returned for a (macro-state, macro-symbol) pair whose
// inner simulation neither halted nor escaped the macro-cell within the
// configured inner-step budget.
type ErrUndecided struct {
	MacroState  bbtm.State
	MacroSymbol bbtm.Symbol
}

func (e *ErrUndecided) Error() string {
	return fmt.Sprintf("macro: inner simulation undecided for macro-state %d, macro-symbol %d",
		e.MacroState, e.MacroSymbol)
}

// Options configures Compile.
type Options struct {
	// InnerStepBudget caps the number of base-machine steps the slow
	// inner simulation may take while determining one macro transition,
	// before Compile gives up and returns ErrUndecided. There is no
	// principled default: pick it relative to scale and how far you
	// expect an inner run to wander before halting or escaping.
	InnerStepBudget uint64
}

// DefaultOptions returns an inner-step budget generous enough for the
// small scales (1 and 2) this package is exercised against in tests.
func DefaultOptions() Options {
	return Options{InnerStepBudget: 1 << 16}
}

// Compile builds a macro table of scale scale from base. The result has
// base.NStates*2 states (one directed pair per base state) and
// base.NSyms<<(scale-1) symbols (one packed value per run of scale base
// symbols).
func Compile(base *bbtm.Table, scale int, opts Options) (*bbtm.Table, error) {
	if base.NSyms != 2 {
		return nil, ErrUnsupportedAlphabet
	}
	if scale < 1 {
		panic(fmt.Sprintf("macro: invalid scale %d", scale))
	}

	mmSyms := base.NSyms << (scale - 1)
	mmStates := base.NStates * 2
	mm := bbtm.NewTable(mmStates, mmSyms)

	for state := 0; state < mmStates; state++ {
		for sym := 0; sym < mmSyms; sym++ {
			instr, err := determineInstr(base, scale, bbtm.State(state), bbtm.Symbol(sym), opts)
			if err != nil {
				return nil, err
			}
			mm.Set(bbtm.State(state), bbtm.Symbol(sym), instr)
		}
	}

	return mm, nil
}

// determineInstr runs the bounded slow/fast inner-simulation pair
// described in the macro-machine construction and packs the result into
// one macro instruction.
func determineInstr(base *bbtm.Table, scale int, mmInState bbtm.State, mmInSym bbtm.Symbol, opts Options) (bbtm.Instruction, error) {
	mmInDir := bbtm.Direction(mmInState & 1)
	tmInState := mmInState >> 1

	initPos := 1
	if mmInDir == bbtm.Left {
		initPos = scale
	}
	tapeLen := scale + 2

	slowTape := tape.NewFlatTape(tapeLen, initPos)
	fastTape := tape.NewFlatTape(tapeLen, initPos)
	seedMacroSymbol(slowTape, scale, mmInSym)
	seedMacroSymbol(fastTape, scale, mmInSym)

	slowRun, err := driver.New(base, slowTape)
	if err != nil {
		return bbtm.Instruction{}, fmt.Errorf("macro: %w", err)
	}
	defer slowRun.Close()
	slowRun.SetState(tmInState)

	fastRun, err := driver.New(base, fastTape)
	if err != nil {
		return bbtm.Instruction{}, fmt.Errorf("macro: %w", err)
	}
	defer fastRun.Close()
	fastRun.SetState(tmInState)

	var mmOutDir bbtm.Direction
	var innerSteps uint64

escapeLoop:
	for {
		if escaped, dir := haltedOrEscaped(slowRun, slowTape, scale, mmInDir, false); escaped {
			mmOutDir = dir
			break escapeLoop
		}

		if innerSteps >= opts.InnerStepBudget {
			return bbtm.Instruction{}, &ErrUndecided{MacroState: mmInState, MacroSymbol: mmInSym}
		}
		if err := slowRun.Step(); err != nil {
			return bbtm.Instruction{}, fmt.Errorf("macro: inner step: %w", err)
		}
		innerSteps++

		// The fast run only stops stepping once it halts or escapes; the
		// loop ends on the slow run alone, whose tape and state the
		// instruction is read from.
		for i := 0; i < 2; i++ {
			if escaped, _ := haltedOrEscaped(fastRun, fastTape, scale, mmInDir, true); escaped {
				break
			}
			if err := fastRun.Step(); err != nil {
				return bbtm.Instruction{}, fmt.Errorf("macro: inner step: %w", err)
			}
		}

		// The original construction compares the slow and fast tapes
		// here (a Brent/Floyd-style cycle check) to detect an inner
		// simulation that loops forever without halting or escaping,
		// but ships with that comparison disabled behind a dummy
		// constant. Guessing the intended period and comparison window
		// would be inventing behavior that was never actually enabled;
		// InnerStepBudget above is this encoder's substitute, a simple
		// bound with a well-defined "undecided" result on exceeding it.
	}

	return packInstr(slowRun, slowTape, scale, mmOutDir), nil
}

// seedMacroSymbol writes the scale bits of mmSym into the micro-cells of
// tape, highest bit nearest the tape's left guard cell.
func seedMacroSymbol(t *tape.FlatTape, scale int, mmSym bbtm.Symbol) {
	for i := 0; i < scale; i++ {
		tmSym := bbtm.Symbol((mmSym >> i) & 1)
		memPos := scale - i
		t.SetAt(memPos, tmSym)
	}
}

// haltedOrEscaped reports whether run has halted or its head has left
// the macro-cell's scale micro-cells, and if so which direction the
// macro-cell transition exits through. The fast run's rightward-escape
// bound is checked against a tighter threshold than the slow run's (1
// instead of scale, and vice versa for the leftward case the direction
// is entered from), an asymmetry carried over unchanged from the
// construction this is ported from.
func haltedOrEscaped(run *driver.Run, t *tape.FlatTape, scale int, mmInDir bbtm.Direction, fast bool) (bool, bbtm.Direction) {
	if run.Halted() {
		return true, bbtm.Right // direction is irrelevant once halted
	}

	relPos := t.RelPos()
	if (mmInDir == bbtm.Left && relPos <= -scale) || (mmInDir == bbtm.Right && relPos <= -1) {
		return true, bbtm.Left
	}

	rightBound, leftBound := scale, 1
	if fast {
		rightBound, leftBound = 1, scale
	}
	if (mmInDir == bbtm.Right && relPos >= rightBound) || (mmInDir == bbtm.Left && relPos >= leftBound) {
		return true, bbtm.Right
	}
	return false, 0
}

// packInstr reads the final micro-symbols back out of the slow run's
// tape and builds the macro instruction they and its exit direction
// describe.
func packInstr(slowRun *driver.Run, t *tape.FlatTape, scale int, mmOutDir bbtm.Direction) bbtm.Instruction {
	var mmSym bbtm.Symbol
	for i := 0; i < scale; i++ {
		memPos := scale - i
		tmSym := t.At(memPos)
		mmSym |= tmSym << i
	}

	next := bbtm.Halt
	if !slowRun.Halted() {
		next = bbtm.State(int(slowRun.State())<<1) | bbtm.State(mmOutDir)
	}

	return bbtm.Instruction{
		Write:   mmSym,
		Dir:     mmOutDir,
		Next:    next,
		Defined: true,
	}
}
