package program_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asphodex/bbtm/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileCtx_Valid(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadFileCtx(context.Background(), filepath.Join("testdata", "corpus.tsv"))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byName := make(map[string]program.Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	tiny := byName["tiny_halt"]
	assert.Equal(t, "1RB1RZ_1LB0RC_1LC1LA", tiny.ProgramText)
	assert.EqualValues(t, 21, tiny.Steps)
	assert.Equal(t, 5, tiny.Nonzero)
	assert.Equal(t, 3, tiny.Table.NStates)
	assert.Equal(t, 2, tiny.Table.NSyms)

	undefined := byName["undefined_cell"]
	cell := undefined.Table.Lookup(1, 1) // the "---" cell
	assert.False(t, cell.Defined)
}

func TestReadFileCtx_NoFile(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadFileCtx(context.Background(), "does-not-exist.tsv")
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, entries)
}

func TestReadCtx_SkipsBlankLinesAndComments(t *testing.T) {
	t.Parallel()

	data := "# header\n\nalpha\t1RB1RZ\t1\t0\n\n# trailing comment\n"
	entries, err := program.ReadCtx(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alpha", entries[0].Name)
}

func TestReadCtx_NoEntries(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadCtx(context.Background(), strings.NewReader("# only a comment\n"))
	require.ErrorIs(t, err, program.ErrNoEntries)
	assert.Nil(t, entries)
}

func TestReadCtx_MalformedRow_WrongFieldCount(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadCtx(context.Background(), strings.NewReader("alpha\t1RB1RZ\t1\n"))
	require.ErrorIs(t, err, program.ErrMalformedRow)
	assert.Nil(t, entries)
}

func TestReadCtx_MalformedRow_BadProgram(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadCtx(context.Background(), strings.NewReader("alpha\tXYZ\t1\t0\n"))
	require.ErrorIs(t, err, program.ErrMalformedRow)
	assert.Nil(t, entries)
}

func TestReadCtx_MalformedRow_BadStepsField(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadCtx(context.Background(), strings.NewReader("alpha\t1RB1RZ\tnotanumber\t0\n"))
	require.ErrorIs(t, err, program.ErrMalformedRow)
	assert.Nil(t, entries)
}

func TestReadFileCtx_SlowCorpusParsesButIsNotRunHere(t *testing.T) {
	t.Parallel()

	entries, err := program.ReadFileCtx(context.Background(), filepath.Join("testdata", "slow_corpus.tsv"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[0].Table.NStates)
	assert.EqualValues(t, 47176870, entries[0].Steps)
}

func TestReadCtx_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := program.ReadCtx(ctx, strings.NewReader("alpha\t1RB1RZ\t1\t0\n"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, entries)
}
