package sequencer

import (
	"fmt"

	"gridseq/grid"
)

// Track is one instrument lane: a binding and the note matrix it plays.
// The matrix is an immutable value; edits swap in a new one.
type Track struct {
	ID         int
	Name       string
	Instrument Binding
	Matrix     grid.Matrix
}

// NewTrack creates a track named after its id with an empty matrix.
func NewTrack(id int, binding Binding, rows, cols int) *Track {
	return &Track{
		ID:         id,
		Name:       fmt.Sprintf("Track %d", id),
		Instrument: binding,
		Matrix:     grid.New(rows, cols),
	}
}

// Cols returns the matrix column count.
func (t *Track) Cols() int {
	return t.Matrix.Cols()
}

// Snapshot returns a read-only copy for rendering and dispatch.
func (t *Track) Snapshot(selected bool) TrackSnapshot {
	return TrackSnapshot{
		ID:         t.ID,
		Name:       t.Name,
		Instrument: t.Instrument,
		Matrix:     t.Matrix,
		Selected:   selected,
	}
}

// TrackSnapshot is a track as seen at one instant. Holding it keeps that
// version of the matrix.
type TrackSnapshot struct {
	ID         int
	Name       string
	Instrument Binding
	Matrix     grid.Matrix
	Selected   bool
}
