package sequencer

import (
	"gridseq/debug"
	"gridseq/grid"
)

// Timeline keeps every track at one shared column count and grows that count
// by a piece when notes reach the last piece.
type Timeline struct {
	length  int
	granted int // pieces already granted; a grow needs granted <= current pieces
}

// NewTimeline starts the shared length at length columns.
func NewTimeline(length int) *Timeline {
	if length < 0 {
		length = 0
	}
	return &Timeline{length: length, granted: length / grid.PieceSize}
}

// Length returns the shared column count.
func (tl *Timeline) Length() int {
	return tl.length
}

// Pieces returns the shared length in pieces.
func (tl *Timeline) Pieces() int {
	return tl.length / grid.PieceSize
}

// Sync pads every track to the longest one, then grows all of them by one
// piece if any has a note in the last piece. Both checks read the matrices as
// they were on entry. It returns the shared length and whether it grew.
func (tl *Timeline) Sync(tracks []*Track) (length int, grew bool) {
	snapshot := make([]grid.Matrix, len(tracks))
	for i, t := range tracks {
		snapshot[i] = t.Matrix
	}

	length = tl.length
	for _, m := range snapshot {
		if m.Cols() > length {
			length = m.Cols()
		}
	}

	// The last-piece check runs on the padded matrices, so a shorter track
	// only counts through the columns it already had.
	padded := make([]grid.Matrix, len(snapshot))
	active := false
	for i, m := range snapshot {
		padded[i] = m.ExtendTo(length)
		if length >= grid.PieceSize && padded[i].LastPieceActive() {
			active = true
		}
	}

	pieces := length / grid.PieceSize
	if active && tl.granted <= pieces {
		length += grid.PieceSize
		tl.granted = pieces + 1
		grew = true
		debug.Log("timeline", "grow to %d columns (%d pieces)", length, pieces+1)
	}

	for i, t := range tracks {
		if snapshot[i].Cols() < length {
			t.Matrix = padded[i].ExtendTo(length)
		}
	}
	tl.length = length
	return length, grew
}
