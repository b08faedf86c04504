package bbtm

import (
	"errors"
	"fmt"
	"strings"
)

// Table is an NStates x NSyms transition table, addressed row-major by
// state*NSyms + sym. Cells left undefined in the program text ("---") store
// an instruction whose Next is Halt.
type Table struct {
	NStates int
	NSyms   int
	cells   []Instruction
}

// NewTable allocates a table of the given dimensions with every cell
// defaulting to halt-on-entry.
func NewTable(nStates, nSyms int) *Table {
	if nStates < 1 || nSyms < 1 {
		panic(fmt.Sprintf("bbtm: invalid table dimensions (%d states, %d syms)", nStates, nSyms))
	}
	t := &Table{
		NStates: nStates,
		NSyms:   nSyms,
		cells:   make([]Instruction, nStates*nSyms),
	}
	for i := range t.cells {
		t.cells[i].Next = Halt
	}
	return t
}

func (t *Table) index(state State, sym Symbol) int {
	if state < 0 || int(state) >= t.NStates {
		panic(fmt.Sprintf("bbtm: state %d out of range [0, %d)", state, t.NStates))
	}
	if int(sym) >= t.NSyms {
		panic(fmt.Sprintf("bbtm: symbol %d out of range [0, %d)", sym, t.NSyms))
	}
	return int(state)*t.NSyms + int(sym)
}

// Lookup returns the instruction for (state, sym). It is a total function
// over [0, NStates) x [0, NSyms); undefined cells return an instruction with
// Next == Halt.
func (t *Table) Lookup(state State, sym Symbol) Instruction {
	return t.cells[t.index(state, sym)]
}

// Set stores an instruction for (state, sym).
func (t *Table) Set(state State, sym Symbol, instr Instruction) {
	t.cells[t.index(state, sym)] = instr
}

// ErrMalformedTable is the sentinel wrapped by every ParseTable failure.
var ErrMalformedTable = errors.New("malformed transition table")

// ParseError describes exactly where a table string failed to parse.
type ParseError struct {
	Row  int
	Col  int
	Char byte
	Msg  string
}

func (e *ParseError) Error() string {
	c := e.Char
	if c == 0 {
		c = '?'
	}
	return fmt.Sprintf("%s at row %d col %d (char %q)", e.Msg, e.Row, e.Col, c)
}

func (e *ParseError) Unwrap() error { return ErrMalformedTable }

func onlyAlnum(c byte) byte {
	if c == 0 {
		return '?'
	}
	return c
}

// ParseTable parses the canonical ASCII transition-table format: n_states
// rows of n_syms three-character cells, rows joined by '_'. A cell is
// "---" (halt on entry) or "<digit><L|R><A-Z>". Returns any unusual halt
// letters (not Z or H) as warnings rather than failing.
func ParseTable(text string) (_ *Table, warnings []string, err error) {
	cols := 0
	for cols < len(text) && text[cols] != '_' {
		cols++
	}
	if cols == 0 || cols%3 != 0 {
		return nil, nil, fmt.Errorf("%w: invalid row width %d, must be a positive multiple of 3", ErrMalformedTable, cols)
	}
	nSyms := cols / 3

	rowWidth := nSyms*3 + 1
	nStates := (len(text) + 1) / rowWidth

	table := NewTable(nStates, nSyms)

	for state := 0; state < nStates; state++ {
		rowBase := state * rowWidth
		for sym := 0; sym < nSyms; sym++ {
			cellBase := rowBase + sym*3

			symC := text[cellBase]
			if symC == '-' && safeByte(text, cellBase+1) == '-' && safeByte(text, cellBase+2) == '-' {
				table.Set(State(state), Symbol(sym), Instruction{Next: Halt, Defined: false})
				continue
			}

			if symC < '0' || symC > '9' {
				return nil, nil, &ParseError{
					Row: state, Col: sym, Char: onlyAlnum(symC),
					Msg: fmt.Sprintf("invalid symbol, should be 0-%c", '0'+nSyms-1),
				}
			}
			writeSym := Symbol(symC - '0')
			if int(writeSym) >= nSyms {
				return nil, nil, &ParseError{
					Row: state, Col: sym, Char: onlyAlnum(symC),
					Msg: fmt.Sprintf("invalid symbol, should be 0-%c", '0'+nSyms-1),
				}
			}

			dirC := safeByte(text, cellBase+1)
			if dirC != 'L' && dirC != 'R' {
				return nil, nil, &ParseError{
					Row: state, Col: sym, Char: onlyAlnum(dirC),
					Msg: "invalid direction, should be L or R",
				}
			}
			dir := Left
			if dirC == 'R' {
				dir = Right
			}

			stateC := safeByte(text, cellBase+2)
			if stateC < 'A' || stateC > 'Z' {
				return nil, nil, &ParseError{
					Row: state, Col: sym, Char: onlyAlnum(stateC),
					Msg: "invalid next state, should be A-Z",
				}
			}
			nextState := State(stateC - 'A')
			if int(nextState) >= nStates {
				nextState = Halt
				if stateC != 'Z' && stateC != 'H' {
					warnings = append(warnings, fmt.Sprintf(
						"unusual halting state %c at row %d col %d, expected A-%c, H, or Z",
						stateC, state, sym, 'A'+nStates-1))
				}
			}

			table.Set(State(state), Symbol(sym), Instruction{Write: writeSym, Next: nextState, Dir: dir, Defined: true})
		}

		term := safeByte(text, rowBase+cols)
		if state < nStates-1 && term != '_' {
			return nil, nil, &ParseError{
				Row: state, Col: nSyms, Char: onlyAlnum(term),
				Msg: "invalid row terminator, expected '_'",
			}
		}
		if state == nStates-1 && term != 0 {
			return nil, nil, &ParseError{
				Row: state, Col: nSyms, Char: onlyAlnum(term),
				Msg: "trailing character, expected end of input",
			}
		}
	}

	return table, warnings, nil
}

func safeByte(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

// String renders the table back to the canonical ASCII format, such that
// ParseTable(t.String()) reproduces an equivalent table (round-trip on the
// canonical subset 0..NSyms-1, L|R, A..Z; undefined cells print as "---").
func (t *Table) String() string {
	var b strings.Builder
	for state := 0; state < t.NStates; state++ {
		if state > 0 {
			b.WriteByte('_')
		}
		for sym := 0; sym < t.NSyms; sym++ {
			instr := t.Lookup(State(state), Symbol(sym))
			if !instr.Defined {
				b.WriteString("---")
				continue
			}
			b.WriteByte(byte('0' + instr.Write))
			b.WriteByte(byte(instr.Dir.String()[0]))
			if instr.Next == Halt {
				b.WriteByte('Z')
			} else {
				b.WriteByte(byte('A' + instr.Next))
			}
		}
	}
	return b.String()
}
