package sequencer

import (
	"time"

	"gridseq/debug"
	"gridseq/grid"
	"gridseq/pitch"
)

// MetronomePitch is the click played on every step when the metronome is on.
const MetronomePitch = "C2"

// NoteTrigger is one note-on decided by Dispatch.
type NoteTrigger struct {
	TrackID int
	Row     int
	Pitch   string
	Length  NoteLength
	At      time.Time
}

// Dispatch returns the notes that start at step: every Start cell in column
// step of every track long enough to have that column. Sustain cells never
// trigger.
func Dispatch(step int, at time.Time, tracks []TrackSnapshot, pitches pitch.Map) []NoteTrigger {
	var notes []NoteTrigger
	for _, t := range tracks {
		// Each track is bounds checked on its own
		if step < 0 || step >= t.Matrix.Cols() {
			continue
		}
		for row := 0; row < t.Matrix.Rows(); row++ {
			if t.Matrix.Cell(row, step) != grid.Start {
				continue
			}
			name := pitches.At(row)
			if name == "" {
				continue
			}
			notes = append(notes, NoteTrigger{
				TrackID: t.ID,
				Row:     row,
				Pitch:   name,
				Length:  Eighth,
				At:      at,
			})
		}
	}
	return notes
}

// trigger sends notes to their voices. A failing voice is logged and skipped
// so one bad instrument never stops playback.
func trigger(notes []NoteTrigger, voices map[int]Voice) {
	for _, n := range notes {
		v, ok := voices[n.TrackID]
		if !ok {
			continue
		}
		if err := v.TriggerNote(n.Pitch, n.Length, n.At); err != nil {
			debug.Log("voice", "track=%d pitch=%s: %v", n.TrackID, n.Pitch, err)
		}
	}
}
