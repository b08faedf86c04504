package macro_test

import (
	"errors"
	"testing"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, text string) *bbtm.Table {
	t.Helper()
	table, _, err := bbtm.ParseTable(text)
	require.NoError(t, err)
	return table
}

const bb3 = "1RB1RZ_0RC1RB_1LC1LA"

func TestCompile_Dimensions(t *testing.T) {
	t.Parallel()

	base := mustTable(t, bb3)
	mm, err := macro.Compile(base, 2, macro.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, base.NStates*2, mm.NStates)
	assert.Equal(t, base.NSyms<<(2-1), mm.NSyms)
}

func TestCompile_RejectsNonBinaryAlphabet(t *testing.T) {
	t.Parallel()

	base := mustTable(t, "1RB2LA1RA1RA_1LB1LA3RB1RZ") // 4-symbol table
	_, err := macro.Compile(base, 2, macro.DefaultOptions())
	assert.ErrorIs(t, err, macro.ErrUnsupportedAlphabet)
}

func TestCompile_ScaleOneSingleStepEquivalence(t *testing.T) {
	t.Parallel()

	base := mustTable(t, bb3)
	mm, err := macro.Compile(base, 1, macro.DefaultOptions())
	require.NoError(t, err)

	// Directed state 1 = (base state A, entered moving right). Reading
	// macro-symbol 0 (a single blank cell) must reproduce base's A/0
	// transition (write 1, move right, go to B) immediately escaping
	// with the single written cell packed back as the macro-symbol.
	instr := mm.Lookup(1, 0)
	assert.Equal(t, bbtm.Symbol(1), instr.Write)
	assert.Equal(t, bbtm.Right, instr.Dir)
	assert.EqualValues(t, (1<<1)|1, instr.Next) // directed (B, entered-right)

	// Reading macro-symbol 1 runs base's A/1 transition straight to halt.
	haltInstr := mm.Lookup(1, 1)
	assert.Equal(t, bbtm.Symbol(1), haltInstr.Write)
	assert.Equal(t, bbtm.Halt, haltInstr.Next)
}

func TestCompile_ZeroBudgetIsAlwaysUndecided(t *testing.T) {
	t.Parallel()

	base := mustTable(t, bb3)
	_, err := macro.Compile(base, 2, macro.Options{InnerStepBudget: 0})

	var undecided *macro.ErrUndecided
	require.True(t, errors.As(err, &undecided))
}
