//go:build cc

// This file exercises ExternalCBackend against an actual host C compiler.
// It is gated behind the "cc" build tag, and skips at runtime if no
// compiler can be found, since most environments running this suite
// don't have one installed.
package codegen_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/asphodex/bbtm/codegen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalCBackend_MatchesInterpretBackend(t *testing.T) {
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("no C compiler on PATH")
	}

	table := mustTable(t, "1RB1RZ_0RC1RB_1LC1LA")

	cBackend, err := codegen.NewExternalCBackend()
	require.NoError(t, err)

	steps, halted, err := cBackend.StepsAtHalt(context.Background(), table, 1_000_000)
	require.NoError(t, err)
	assert.True(t, halted)
	assert.EqualValues(t, 14, steps)

	wantSteps, wantHalted, err := codegen.NewInterpretBackend().StepsAtHalt(context.Background(), table, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, wantHalted, halted)
	assert.Equal(t, wantSteps, steps)
}
