package pitch

import "fmt"

// Map lists the pitch of every grid row, row 0 being the highest.
type Map struct {
	pitches []Pitch
	names   []string
}

// Build returns rows pitches descending one semitone at a time from top.
func Build(top string, rows int) (Map, error) {
	if rows < 0 {
		return Map{}, fmt.Errorf("%w: negative row count %d", ErrInvalidPitch, rows)
	}
	start, err := Parse(top)
	if err != nil {
		return Map{}, err
	}

	m := Map{
		pitches: make([]Pitch, rows),
		names:   make([]string, rows),
	}
	for i := 0; i < rows; i++ {
		p, err := start.Transpose(-i)
		if err != nil {
			return Map{}, fmt.Errorf("%d rows below %s: %w", rows, top, err)
		}
		m.pitches[i] = p
		m.names[i] = p.String()
	}
	return m, nil
}

// Len returns the number of rows.
func (m Map) Len() int {
	return len(m.pitches)
}

// At returns the pitch name for a row, "" when out of range.
func (m Map) At(row int) string {
	if row < 0 || row >= len(m.names) {
		return ""
	}
	return m.names[row]
}

// Pitch returns the pitch for a row.
func (m Map) Pitch(row int) (Pitch, bool) {
	if row < 0 || row >= len(m.pitches) {
		return 0, false
	}
	return m.pitches[row], true
}

// Row finds the row playing the named pitch.
func (m Map) Row(name string) (int, bool) {
	p, err := Parse(name)
	if err != nil {
		return 0, false
	}
	for i, q := range m.pitches {
		if q == p {
			return i, true
		}
	}
	return 0, false
}

// Names returns a copy of all pitch names, top row first.
func (m Map) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
