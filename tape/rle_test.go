package tape_test

import (
	"testing"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/tape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRLETape_BlankByDefault(t *testing.T) {
	t.Parallel()

	rt := tape.NewRLETape()
	assert.Equal(t, bbtm.Symbol(0), rt.Read())
	assert.Equal(t, 0, rt.CountNonzero())
}

func TestRLETape_WriteReadMove(t *testing.T) {
	t.Parallel()

	rt := tape.NewRLETape()
	rt.Write(1)
	require.NoError(t, rt.Move(bbtm.Right))
	assert.Equal(t, bbtm.Symbol(0), rt.Read())
	rt.Write(1)
	require.NoError(t, rt.Move(bbtm.Right))
	rt.Write(1)

	assert.Equal(t, 3, rt.CountNonzero())
	rt.CheckInvariants()
}

func TestRLETape_OverwriteCollapsesRun(t *testing.T) {
	t.Parallel()

	rt := tape.NewRLETape()
	for i := 0; i < 5; i++ {
		rt.Write(1)
		require.NoError(t, rt.Move(bbtm.Right))
	}
	assert.Equal(t, 5, rt.CountNonzero())

	// Go back to the middle and erase it; the run should split then
	// re-merge correctly when rewritten.
	for i := 0; i < 3; i++ {
		require.NoError(t, rt.Move(bbtm.Left))
	}
	rt.Write(0)
	rt.CheckInvariants()
	assert.Equal(t, 4, rt.CountNonzero())

	rt.Write(1)
	rt.CheckInvariants()
	assert.Equal(t, 5, rt.CountNonzero())
}

func TestRLETape_NoOpWriteSameSymbol(t *testing.T) {
	t.Parallel()

	rt := tape.NewRLETape()
	rt.Write(0)
	rt.CheckInvariants()
	assert.Equal(t, 0, rt.CountNonzero())
}

func TestRLETape_ExtendRunAtHead(t *testing.T) {
	t.Parallel()

	rt := tape.NewRLETape()
	rt.Write(2)
	require.NoError(t, rt.Move(bbtm.Right))
	rt.Write(2)
	rt.CheckInvariants()
	assert.Equal(t, 2, rt.CountNonzero())

	require.NoError(t, rt.Move(bbtm.Left))
	assert.Equal(t, bbtm.Symbol(2), rt.Read())
}

func TestRLETape_SymbolAtMatchesMovedHead(t *testing.T) {
	t.Parallel()

	rt := tape.NewRLETape()
	values := []bbtm.Symbol{1, 0, 2, 2, 0, 3}
	for _, v := range values {
		rt.Write(v)
		require.NoError(t, rt.Move(bbtm.Right))
	}
	require.NoError(t, rt.Move(bbtm.Left)) // back to rel_pos = len(values)-1

	for offset := -(len(values) - 1); offset <= 0; offset++ {
		idx := len(values) - 1 + offset
		assert.Equalf(t, values[idx], rt.SymbolAt(offset), "offset %d", offset)
	}
}

func TestRLETape_WithSegmentPool(t *testing.T) {
	t.Parallel()

	pool := tape.NewSegmentPool()
	rt := tape.NewRLETape(tape.WithSegmentPool(pool))
	rt.Write(1)
	require.NoError(t, rt.Move(bbtm.Right))
	rt.Write(1)
	rt.CheckInvariants()
	assert.Equal(t, 2, rt.CountNonzero())
	rt.Close()
}
