// Package codegen defines the contract for alternative ways to obtain a
// machine's step count at halt: interpreting it directly, or compiling it
// to a native program and running that.
package codegen

import (
	"context"
	"fmt"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/driver"
	"github.com/asphodex/bbtm/tape"
)

// Backend computes the number of steps a table takes to halt from the
// blank tape starting in state 0, or reports that it ran out of budget.
type Backend interface {
	StepsAtHalt(ctx context.Context, table *bbtm.Table, maxSteps uint64) (steps uint64, halted bool, err error)
}

// InterpretBackend runs the machine through the in-process lockstep
// driver on a flat tape. This is the default backend and the one every
// other backend's output is checked against.
type InterpretBackend struct {
	// TapeLength is the initial flat-tape allocation; it grows on demand.
	TapeLength int
	// InitPos is the starting head offset into that allocation.
	InitPos int
}

// NewInterpretBackend returns an InterpretBackend with reasonable
// defaults for a tape that has not yet been sized to a particular
// machine.
func NewInterpretBackend() *InterpretBackend {
	return &InterpretBackend{TapeLength: 1024, InitPos: 512}
}

func (b *InterpretBackend) StepsAtHalt(ctx context.Context, table *bbtm.Table, maxSteps uint64) (uint64, bool, error) {
	tapeLen, initPos := b.TapeLength, b.InitPos
	if tapeLen == 0 {
		tapeLen, initPos = 1024, 512
	}

	r, err := driver.New(table, tape.NewFlatTape(tapeLen, initPos))
	if err != nil {
		return 0, false, fmt.Errorf("codegen: interpret backend: %w", err)
	}
	defer r.Close()

	status, err := r.RunSteps(ctx, maxSteps)
	if err != nil {
		return r.Steps(), false, fmt.Errorf("codegen: interpret backend: %w", err)
	}

	return r.Steps(), status == driver.Halted, nil
}
