package bbtm_test

import (
	"testing"

	"github.com/asphodex/bbtm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable_Valid(t *testing.T) {
	t.Parallel()

	table, warnings, err := bbtm.ParseTable("1RB1LC_1RC1RB_1RD0LE_1LA1LD_1RZ0LA")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, table)

	assert.Equal(t, 5, table.NStates)
	assert.Equal(t, 2, table.NSyms)

	instr := table.Lookup(0, 0) // A, 0 -> 1RB
	assert.Equal(t, bbtm.Instruction{Write: 1, Next: 1, Dir: bbtm.Right, Defined: true}, instr)

	halt := table.Lookup(4, 0) // E, 0 -> 1RZ
	assert.True(t, halt.Defined)
	assert.Equal(t, bbtm.Halt, halt.Next)
	assert.Equal(t, bbtm.Symbol(1), halt.Write)
	assert.Equal(t, bbtm.Right, halt.Dir)
}

func TestParseTable_Undefined(t *testing.T) {
	t.Parallel()

	table, warnings, err := bbtm.ParseTable("1RB1RZ_0RC---_1LC0LA")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	cell := table.Lookup(1, 1) // B, 1 -> ---
	assert.False(t, cell.Defined)
	assert.Equal(t, bbtm.Halt, cell.Next)
}

func TestParseTable_RoundTrip(t *testing.T) {
	t.Parallel()

	progs := []string{
		"1RB1LC_1RC1RB_1RD0LE_1LA1LD_1RZ0LA",
		"1RB0LD_1LC1RD_1LA1LC_1RZ1RE_1RA0RB",
		"1RB2LA1RA1RA_1LB1LA3RB1RZ",
		"1RB2LB1RZ_2LA2RB1LB",
		"1RB1RZ_1LB0RC_1LC1LA",
		"1RB1RZ_0RC---_1LC0LA",
	}

	for _, prog := range progs {
		table, _, err := bbtm.ParseTable(prog)
		require.NoError(t, err)
		assert.Equal(t, prog, table.String())
	}
}

func TestParseTable_UnusualHaltWarns(t *testing.T) {
	t.Parallel()

	// Two states (A, B); 'C' is out of range and neither Z nor H.
	_, warnings, err := bbtm.ParseTable("1RC1LB_1RA1RZ")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unusual halting state")
}

func TestParseTable_Errors(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		text string
	}{
		{"bad symbol", "9RB1LC_1RC1RB"},
		{"bad direction", "1XB1LC_1RC1RB"},
		{"bad state letter", "1R11LC_1RC1RB"},
		{"bad row width", "1RB1L_1RC1RB1"},
		{"trailing character", "1RB1LC_1RC1RBX"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := bbtm.ParseTable(tc.text)
			require.Error(t, err)
		})
	}
}

func TestDirection_Delta(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, bbtm.Left.Delta())
	assert.Equal(t, 1, bbtm.Right.Delta())
}
