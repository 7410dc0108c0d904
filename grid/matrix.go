// Package grid holds the note matrix of a track: rows of cells where a held
// note is a Start cell followed by Sustain cells.
//
// A Matrix is an immutable value. Every edit returns a new Matrix that shares
// the rows it did not touch, so a reader holding an older Matrix keeps a
// consistent view while edits continue.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

// PieceSize is the number of columns the timeline grows by.
const PieceSize = 8

// ErrInvalidRange is returned by edits addressed outside the matrix or with
// an inverted column range.
var ErrInvalidRange = errors.New("invalid range")

// Cell is the state of one grid slot.
type Cell uint8

const (
	Off Cell = iota
	Start
	Sustain
)

func (c Cell) String() string {
	switch c {
	case Start:
		return "start"
	case Sustain:
		return "sustain"
	default:
		return "off"
	}
}

// Active reports whether the cell is part of a note.
func (c Cell) Active() bool {
	return c != Off
}

// Matrix is R rows by C columns of cells.
type Matrix struct {
	rows [][]Cell
	cols int
}

// New creates a rows x cols matrix of Off cells.
func New(rows, cols int) Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	m := Matrix{rows: make([][]Cell, rows), cols: cols}
	for r := range m.rows {
		m.rows[r] = make([]Cell, cols)
	}
	return m
}

// Rows returns the row count.
func (m Matrix) Rows() int {
	return len(m.rows)
}

// Cols returns the column count.
func (m Matrix) Cols() int {
	return m.cols
}

// Cell returns the cell at (row, col), Off when out of range.
func (m Matrix) Cell(row, col int) Cell {
	if row < 0 || row >= len(m.rows) || col < 0 || col >= m.cols {
		return Off
	}
	return m.rows[row][col]
}

// Row returns a copy of one row.
func (m Matrix) Row(row int) []Cell {
	if row < 0 || row >= len(m.rows) {
		return nil
	}
	out := make([]Cell, m.cols)
	copy(out, m.rows[row])
	return out
}

func (m Matrix) checkRange(row, start, end int) error {
	if row < 0 || row >= len(m.rows) {
		return fmt.Errorf("%w: row %d of %d", ErrInvalidRange, row, len(m.rows))
	}
	if start < 0 || start > end || end >= m.cols {
		return fmt.Errorf("%w: columns %d..%d of %d", ErrInvalidRange, start, end, m.cols)
	}
	return nil
}

// withRow returns a copy of m where row is replaced by a fresh copy that fn
// may modify.
func (m Matrix) withRow(row int, fn func(cells []Cell)) Matrix {
	rows := make([][]Cell, len(m.rows))
	copy(rows, m.rows)

	cells := make([]Cell, m.cols)
	copy(cells, m.rows[row])
	fn(cells)
	rows[row] = cells

	return Matrix{rows: rows, cols: m.cols}
}

// PaintRun writes a note: Start at start, Sustain through end. Columns outside
// [start, end] are left as they were, including the tail of a longer note that
// used to occupy the same cells.
func (m Matrix) PaintRun(row, start, end int) (Matrix, error) {
	if err := m.checkRange(row, start, end); err != nil {
		return m, err
	}
	return m.withRow(row, func(cells []Cell) {
		cells[start] = Start
		for c := start + 1; c <= end; c++ {
			cells[c] = Sustain
		}
	}), nil
}

// EraseRun turns [start, end] Off.
func (m Matrix) EraseRun(row, start, end int) (Matrix, error) {
	if err := m.checkRange(row, start, end); err != nil {
		return m, err
	}
	return m.withRow(row, func(cells []Cell) {
		for c := start; c <= end; c++ {
			cells[c] = Off
		}
	}), nil
}

// RunBounds returns the contiguous non-Off run containing (row, col). ok is
// false when that cell is Off or out of range.
func (m Matrix) RunBounds(row, col int) (start, end int, ok bool) {
	if !m.Cell(row, col).Active() {
		return 0, 0, false
	}
	cells := m.rows[row]

	start = col
	for start > 0 && cells[start-1].Active() {
		start--
	}
	end = col
	for end < m.cols-1 && cells[end+1].Active() {
		end++
	}
	return start, end, true
}

// Extend appends n Off columns to every row. n <= 0 returns m unchanged.
func (m Matrix) Extend(n int) Matrix {
	if n <= 0 {
		return m
	}
	out := Matrix{rows: make([][]Cell, len(m.rows)), cols: m.cols + n}
	for r, cells := range m.rows {
		grown := make([]Cell, out.cols)
		copy(grown, cells)
		out.rows[r] = grown
	}
	return out
}

// ExtendTo grows the matrix to cols columns. It never shrinks.
func (m Matrix) ExtendTo(cols int) Matrix {
	return m.Extend(cols - m.cols)
}

// ActiveIn reports whether any cell in columns [from, m.Cols()) is non-Off.
func (m Matrix) ActiveIn(from int) bool {
	if from < 0 {
		from = 0
	}
	for _, cells := range m.rows {
		for c := from; c < m.cols; c++ {
			if cells[c].Active() {
				return true
			}
		}
	}
	return false
}

// LastPieceActive reports whether the last PieceSize columns hold any note.
func (m Matrix) LastPieceActive() bool {
	if m.cols == 0 {
		return false
	}
	return m.ActiveIn(m.cols - PieceSize)
}

// Empty reports whether every cell is Off.
func (m Matrix) Empty() bool {
	return !m.ActiveIn(0)
}

// String dumps the matrix one row per line: '.' Off, '#' Start, '=' Sustain.
func (m Matrix) String() string {
	var out strings.Builder
	for r, cells := range m.rows {
		if r > 0 {
			out.WriteByte('\n')
		}
		for _, c := range cells {
			switch c {
			case Start:
				out.WriteByte('#')
			case Sustain:
				out.WriteByte('=')
			default:
				out.WriteByte('.')
			}
		}
	}
	return out.String()
}
