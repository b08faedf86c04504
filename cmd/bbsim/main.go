// Command bbsim runs a single transition table, or a corpus of them, to
// halt or until a step budget expires, optionally cross-checking multiple
// tape backends in lockstep or compiling the table to a macro machine
// first.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/asphodex/bbtm"
	"github.com/asphodex/bbtm/bitops"
	"github.com/asphodex/bbtm/codegen"
	"github.com/asphodex/bbtm/driver"
	"github.com/asphodex/bbtm/macro"
	"github.com/asphodex/bbtm/program"
	"github.com/asphodex/bbtm/tape"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// Exit codes: 0 success, 1 a run or corpus comparison did not match
// expectations (not a bug in bbsim itself), 2 usage/parse/fatal error.
const (
	exitOK        = 0
	exitMismatch  = 1
	exitFatal     = 2
	defaultTapeLn = 4096
)

// tapeKinds collects the repeated -tape flag, up to driver.MaxTapes
// backends to run in lockstep (the same kind may be given more than once).
type tapeKinds []string

func (k *tapeKinds) String() string { return strings.Join(*k, ",") }

func (k *tapeKinds) Set(value string) error {
	if len(*k) >= driver.MaxTapes {
		return fmt.Errorf("at most %d -tape flags may be given", driver.MaxTapes)
	}
	switch value {
	case "flat", "rle", "bit":
		*k = append(*k, value)
		return nil
	default:
		return fmt.Errorf("unknown tape kind %q, want flat, rle, or bit", value)
	}
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "bbsim: internal error: %v\n", r)
			code = exitFatal
		}
	}()

	fs := flag.NewFlagSet("bbsim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		programText = fs.String("program", "", "transition table in canonical ASCII form, e.g. 1RB1LC_1RC1RB_...")
		corpusFile  = fs.String("file", "", "corpus regression file of known (program, steps, nonzero) triples")
		maxSteps    = fs.Uint64("max-steps", 100_000_000, "step budget per run")
		quiet       = fs.Bool("quiet", false, "suppress per-run diagnostic lines, print only the final summary")
		scale       = fs.Int("scale", 1, "macro-machine scale; 1 disables macro compilation")
		backend     = fs.String("backend", "interp", "execution backend: interp or codegen")
		tapeFlag    tapeKinds
	)
	fs.Var(&tapeFlag, "tape", "tape backend to attach (flat, rle, bit); repeat up to 3 times for cross-checking")

	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	kinds := []string(tapeFlag)
	if len(kinds) == 0 {
		kinds = []string{"flat"}
	}

	if *backend != "interp" && *backend != "codegen" {
		fmt.Fprintf(stderr, "bbsim: unknown -backend %q, want interp or codegen\n", *backend)
		return exitFatal
	}

	switch {
	case *corpusFile != "":
		return runCorpus(stdout, stderr, *corpusFile, kinds, *maxSteps, *quiet, *scale, *backend)
	case *programText != "":
		return runSingle(stdout, stderr, *programText, kinds, *maxSteps, *quiet, *scale, *backend)
	default:
		fmt.Fprintln(stderr, "bbsim: one of -program or -file is required")
		fs.Usage()
		return exitFatal
	}
}

func runSingle(stdout, stderr io.Writer, text string, kinds []string, maxSteps uint64, quiet bool, scale int, backendName string) int {
	logger := log.New(stderr, "bbsim: ", 0)

	table, warnings, err := bbtm.ParseTable(text)
	if err != nil {
		fmt.Fprintf(stderr, "bbsim: parse table: %v\n", err)
		return exitFatal
	}
	for _, w := range warnings {
		if !quiet {
			fmt.Fprintf(stderr, "bbsim: warning: %s\n", w)
		}
	}

	if !quiet {
		logger.Printf("backend=%s tapes=%v max-steps=%d scale=%d", backendName, kinds, maxSteps, scale)
	}

	if scale > 1 {
		table, err = macro.Compile(table, scale, macro.DefaultOptions())
		if err != nil {
			fmt.Fprintf(stderr, "bbsim: compile macro machine at scale %d: %v\n", scale, err)
			return exitFatal
		}
		if !quiet {
			fmt.Fprintf(stdout, "compiled macro machine: %d states, %d symbols\n", table.NStates, table.NSyms)
		}
	}

	outcome, err := execute(table, kinds, maxSteps, backendName)
	if err != nil {
		fmt.Fprintf(stderr, "bbsim: %v\n", err)
		return exitFatal
	}
	if !quiet {
		logger.Printf("finished: %s", outcome.status)
	}

	printOutcome(stdout, "program", outcome)
	if outcome.status != driver.Halted {
		return exitMismatch
	}
	return exitOK
}

func runCorpus(stdout, stderr io.Writer, path string, kinds []string, maxSteps uint64, quiet bool, scale int, backendName string) int {
	logger := log.New(stderr, "bbsim: ", 0)

	entries, err := program.ReadFileCtx(context.Background(), path)
	if err != nil {
		fmt.Fprintf(stderr, "bbsim: read corpus: %v\n", err)
		return exitFatal
	}
	if !quiet {
		logger.Printf("loaded %d entries from %s, backend=%s tapes=%v", len(entries), path, backendName, kinds)
	}

	mismatches := 0
	for _, e := range entries {
		table := e.Table
		if scale > 1 {
			table, err = macro.Compile(table, scale, macro.DefaultOptions())
			if err != nil {
				fmt.Fprintf(stderr, "bbsim: %s: compile macro machine: %v\n", e.Name, err)
				mismatches++
				continue
			}
		}

		outcome, err := execute(table, kinds, maxSteps, backendName)
		if err != nil {
			fmt.Fprintf(stderr, "bbsim: %s: %v\n", e.Name, err)
			mismatches++
			continue
		}

		ok := outcome.status == driver.Halted && outcome.steps == e.Steps && outcome.nonzero == e.Nonzero
		if !ok {
			mismatches++
			fmt.Fprintf(stderr, "bbsim: %s: want (halted, %d steps, %d nonzero), got (%s, %d steps, %d nonzero)\n",
				e.Name, e.Steps, e.Nonzero, outcome.status, outcome.steps, outcome.nonzero)
			continue
		}

		if !quiet {
			printOutcome(stdout, e.Name, outcome)
		}
	}

	fmt.Fprintf(stdout, "%d/%d entries matched\n", len(entries)-mismatches, len(entries))
	if mismatches > 0 {
		return exitMismatch
	}
	return exitOK
}

type outcome struct {
	status  driver.Status
	steps   uint64
	nonzero int
}

func execute(table *bbtm.Table, kinds []string, maxSteps uint64, backendName string) (outcome, error) {
	if backendName == "codegen" {
		return executeCodegen(table, maxSteps)
	}

	tapes := make([]tape.Tape, 0, len(kinds))
	for _, k := range kinds {
		tapes = append(tapes, newTape(k, table.NSyms))
	}

	r, err := driver.New(table, tapes...)
	if err != nil {
		return outcome{}, fmt.Errorf("attach tapes: %w", err)
	}
	defer r.Close()

	status, err := r.RunSteps(context.Background(), maxSteps)
	if err != nil {
		return outcome{}, fmt.Errorf("run: %w", err)
	}

	nonzero, err := r.CountNonzero()
	if err != nil {
		nonzero = -1 // no counting strategy for this backend (e.g. BitTape); not a failure
	}

	return outcome{status: status, steps: r.Steps(), nonzero: nonzero}, nil
}

func executeCodegen(table *bbtm.Table, maxSteps uint64) (outcome, error) {
	backend, err := codegen.NewExternalCBackend()
	if err != nil {
		return outcome{}, fmt.Errorf("codegen backend: %w", err)
	}

	steps, halted, err := backend.StepsAtHalt(context.Background(), table, maxSteps)
	if err != nil {
		return outcome{}, fmt.Errorf("codegen backend: %w", err)
	}

	status := driver.BudgetExhausted
	if halted {
		status = driver.Halted
	}
	return outcome{status: status, steps: steps, nonzero: -1}, nil
}

func newTape(kind string, nSyms int) tape.Tape {
	switch kind {
	case "rle":
		return tape.NewRLETape()
	case "bit":
		symBits := bitops.CeilLog2(nSyms)
		if symBits < 1 {
			symBits = 1
		}
		return tape.NewBitTape(defaultTapeLn, symBits, defaultTapeLn/2)
	default:
		return tape.NewFlatTape(defaultTapeLn, defaultTapeLn/2)
	}
}

func printOutcome(w io.Writer, name string, o outcome) {
	if o.nonzero < 0 {
		fmt.Fprintf(w, "%s: %s after %d steps\n", name, o.status, o.steps)
		return
	}
	fmt.Fprintf(w, "%s: %s after %d steps, %d nonzero cells\n", name, o.status, o.steps, o.nonzero)
}
