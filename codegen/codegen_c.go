package codegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asphodex/bbtm"
)

// ErrNoCompiler is returned when ExternalCBackend cannot find a C
// compiler on PATH.
var ErrNoCompiler = errors.New("codegen: no C compiler found on PATH")

// tapeCells bounds the fixed-size array the generated C program uses for
// its tape. The external-codegen path is explicitly out of the core
// simulation's scope; this bound only needs to cover the small corpus
// programs exercised against it, not multi-million-step busy beavers.
const tapeCells = 1 << 20

// ExternalCBackend compiles a table to a standalone C program and runs
// it, reading the result from the child's stdout rather than its exit
// status. The original collaborator this replaces returned the step
// count through the process exit code, which truncates to 8 bits for any
// machine running more than 255 steps; stdout has no such limit.
type ExternalCBackend struct {
	// Compiler is the compiler command, e.g. "cc" or "gcc". Defaults to
	// "cc" when empty.
	Compiler string
}

// NewExternalCBackend returns a backend using "cc" if present on PATH.
func NewExternalCBackend() (*ExternalCBackend, error) {
	if _, err := exec.LookPath("cc"); err != nil {
		return nil, ErrNoCompiler
	}
	return &ExternalCBackend{Compiler: "cc"}, nil
}

func (b *ExternalCBackend) compiler() string {
	if b.Compiler == "" {
		return "cc"
	}
	return b.Compiler
}

func (b *ExternalCBackend) StepsAtHalt(ctx context.Context, table *bbtm.Table, maxSteps uint64) (uint64, bool, error) {
	dir, err := os.MkdirTemp("", "bbtm-codegen-*")
	if err != nil {
		return 0, false, fmt.Errorf("codegen: c backend: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	srcPath := filepath.Join(dir, "machine.c")
	binPath := filepath.Join(dir, "machine")

	src := generateC(table, maxSteps)
	if err := os.WriteFile(srcPath, []byte(src), 0o600); err != nil {
		return 0, false, fmt.Errorf("codegen: c backend: write source: %w", err)
	}

	compile := exec.CommandContext(ctx, b.compiler(), "-O2", "-o", binPath, srcPath)
	var compileErr bytes.Buffer
	compile.Stderr = &compileErr
	if err := compile.Run(); err != nil {
		return 0, false, fmt.Errorf("codegen: c backend: compile: %w: %s", err, compileErr.String())
	}

	run := exec.CommandContext(ctx, binPath)
	var stdout, stderr bytes.Buffer
	run.Stdout = &stdout
	run.Stderr = &stderr
	if err := run.Run(); err != nil {
		return 0, false, fmt.Errorf("codegen: c backend: run: %w: %s", err, stderr.String())
	}

	return parseResult(stdout.String())
}

func parseResult(out string) (uint64, bool, error) {
	fields := strings.Fields(out)
	const wantFields = 2
	if len(fields) != wantFields {
		return 0, false, fmt.Errorf("codegen: c backend: expected \"steps halted\" on stdout, got %q", out)
	}

	steps, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("codegen: c backend: invalid step count %q: %w", fields[0], err)
	}

	halted, err := strconv.ParseBool(fields[1])
	if err != nil {
		return 0, false, fmt.Errorf("codegen: c backend: invalid halted flag %q: %w", fields[1], err)
	}

	return steps, halted, nil
}

// generateC transliterates table into a standalone C99 program that
// simulates it on a fixed-size tape and prints "<steps> <halted>\n" to
// stdout when it halts or exhausts maxSteps.
func generateC(table *bbtm.Table, maxSteps uint64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "#include <stdio.h>\n")
	fmt.Fprintf(&b, "#include <stdint.h>\n\n")
	fmt.Fprintf(&b, "#define N_STATES %d\n", table.NStates)
	fmt.Fprintf(&b, "#define N_SYMS %d\n", table.NSyms)
	fmt.Fprintf(&b, "#define MAX_STEPS %dULL\n", maxSteps)
	fmt.Fprintf(&b, "#define TAPE_CELLS %d\n\n", tapeCells)

	fmt.Fprintf(&b, "static const int WRITE_SYM[%d][%d] = {\n", table.NStates, table.NSyms)
	writeCCell(&b, table, func(i bbtm.Instruction) int { return int(i.Write) })
	b.WriteString("};\n\n")

	fmt.Fprintf(&b, "static const int DIR[%d][%d] = {\n", table.NStates, table.NSyms)
	writeCCell(&b, table, func(i bbtm.Instruction) int { return i.Dir.Delta() })
	b.WriteString("};\n\n")

	fmt.Fprintf(&b, "static const int NEXT[%d][%d] = {\n", table.NStates, table.NSyms)
	writeCCell(&b, table, func(i bbtm.Instruction) int {
		if i.Next == bbtm.Halt {
			return -1
		}
		return int(i.Next)
	})
	b.WriteString("};\n\n")

	b.WriteString(`int main(void) {
    static int tape[TAPE_CELLS];
    int pos = TAPE_CELLS / 2;
    int state = 0;
    uint64_t steps = 0;
    int halted = 0;

    while (steps < MAX_STEPS) {
        if (state < 0 || state >= N_STATES) { halted = 1; break; }
        if (pos < 0 || pos >= TAPE_CELLS) { break; }

        int sym = tape[pos];
        tape[pos] = WRITE_SYM[state][sym];
        pos += DIR[state][sym];
        state = NEXT[state][sym];
        steps++;

        if (state < 0 || state >= N_STATES) { halted = 1; break; }
    }

    printf("%llu %s\n", (unsigned long long)steps, halted ? "true" : "false");
    return 0;
}
`)

	return b.String()
}

func writeCCell(b *strings.Builder, table *bbtm.Table, field func(bbtm.Instruction) int) {
	for state := 0; state < table.NStates; state++ {
		b.WriteString("  {")
		for sym := 0; sym < table.NSyms; sym++ {
			if sym > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%d", field(table.Lookup(bbtm.State(state), bbtm.Symbol(sym))))
		}
		b.WriteString("},\n")
	}
}
