package sequencer

import (
	"gridseq/grid"
	"gridseq/pitch"
	"gridseq/transport"
)

// Defaults for a new sequencer
const (
	DefaultRows     = 48 // 4 octaves
	DefaultTopPitch = "C6"
	DefaultPieces   = 1
)

// CursorPolicy decides what happens to the playback cursor when the track set
// or the shared length changes while playing.
type CursorPolicy int

const (
	// CursorKeep leaves the cursor where it is.
	CursorKeep CursorPolicy = iota
	// CursorResetOnChange moves the cursor back to 0 when a track is added or
	// the timeline grows.
	CursorResetOnChange
)

func (p CursorPolicy) String() string {
	if p == CursorResetOnChange {
		return "reset"
	}
	return "keep"
}

// ParseCursorPolicy reads "keep" or "reset".
func ParseCursorPolicy(s string) (CursorPolicy, bool) {
	switch s {
	case "keep", "":
		return CursorKeep, true
	case "reset":
		return CursorResetOnChange, true
	}
	return CursorKeep, false
}

// Options configure a Manager.
type Options struct {
	Rows           int
	TopPitch       string
	InitialPieces  int
	Tempo          float64
	CursorPolicy   CursorPolicy
	Metronome      bool
	PreviewOnPaint bool

	Source transport.Source // nil = real-time timer
	Voices VoiceFactory     // nil = silent
}

// DefaultOptions returns the default grid: 48 rows from C6,
// one piece long, 120 BPM.
func DefaultOptions() Options {
	return Options{
		Rows:          DefaultRows,
		TopPitch:      DefaultTopPitch,
		InitialPieces: DefaultPieces,
		Tempo:         transport.DefaultBPM,
		CursorPolicy:  CursorKeep,
	}
}

func (o Options) initialLength() int {
	return o.InitialPieces * grid.PieceSize
}

// State is what the UI header shows.
type State struct {
	Tempo     float64
	Step      int
	Cursor    int
	Playing   bool
	Length    int
	Metronome bool
	Selected  int
	Tracks    int
}

// pitchMap builds the row pitches for o.
func (o Options) pitchMap() (pitch.Map, error) {
	return pitch.Build(o.TopPitch, o.Rows)
}
