// Package program reads corpus regression files: one row per known-answer
// machine, each naming a transition table together with the step count
// and final nonzero-cell count it is expected to produce at halt.
package program

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asphodex/bbtm"
)

// Entry is one row of a corpus file: a named machine and the outcome a
// correct simulation of it must reproduce.
type Entry struct {
	Name        string
	ProgramText string
	Table       *bbtm.Table
	Steps       uint64
	Nonzero     int
}

// ErrNoEntries is returned when a corpus file contains no usable rows.
var ErrNoEntries = errors.New("program: no entries")

// ErrMalformedRow is the sentinel wrapped by every row-parsing failure.
var ErrMalformedRow = errors.New("program: malformed row")

// ReadFileCtx reads a corpus file from filePath.
func ReadFileCtx(ctx context.Context, filePath string) ([]Entry, error) {
	path := filepath.Clean(filePath)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file %q does not exist: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ReadCtx(ctx, file)
}

// ReadCtx reads corpus rows from r. Each non-blank, non-comment ('#') line
// is "<name>\t<program>\t<steps>\t<nonzero>". Lines are checked against
// ctx once per row.
func ReadCtx(ctx context.Context, r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	// Corpus rows can embed arbitrarily large transition tables; grow the
	// scan buffer well past bufio's 64KiB default line cap.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	row := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		const wantFields = 4
		if len(fields) != wantFields {
			return nil, fmt.Errorf("%w: row %d: expected %d tab-separated fields, got %d",
				ErrMalformedRow, row, wantFields, len(fields))
		}

		name, programText, stepsField, nonzeroField := fields[0], fields[1], fields[2], fields[3]

		table, _, err := bbtm.ParseTable(programText)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrMalformedRow, row, err)
		}

		steps, err := strconv.ParseUint(stepsField, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid step count %q: %w", ErrMalformedRow, row, stepsField, err)
		}

		nonzero, err := strconv.Atoi(nonzeroField)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid nonzero count %q: %w", ErrMalformedRow, row, nonzeroField, err)
		}

		entries = append(entries, Entry{
			Name:        name,
			ProgramText: programText,
			Table:       table,
			Steps:       steps,
			Nonzero:     nonzero,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("program: read corpus: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	return entries, nil
}
