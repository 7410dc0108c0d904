package sequencer

import (
	"time"

	"gridseq/transport"
)

// NoteLength is a symbolic note value like "8n".
type NoteLength string

const (
	Whole     NoteLength = "1n"
	Half      NoteLength = "2n"
	Quarter   NoteLength = "4n"
	Eighth    NoteLength = "8n"
	Sixteenth NoteLength = "16n"
)

// Beats returns the length in quarter notes.
func (n NoteLength) Beats() float64 {
	switch n {
	case Whole:
		return 4
	case Half:
		return 2
	case Quarter:
		return 1
	case Sixteenth:
		return 0.25
	default:
		return 0.5
	}
}

// Duration returns the length at bpm.
func (n NoteLength) Duration(bpm float64) time.Duration {
	return time.Duration(n.Beats() * float64(transport.BeatDuration(bpm)))
}

// Voice is the sound source behind a track. How overlapping notes behave is
// up to the voice.
type Voice interface {
	TriggerNote(pitch string, length NoteLength, at time.Time) error
}

// SettingsVoice is a Voice that follows instrument setting changes.
type SettingsVoice interface {
	Voice
	Apply(s Settings) error
}

// VoiceFactory builds the voice of a newly added track and the metronome.
type VoiceFactory interface {
	NewVoice(trackID int, inst Instrument, s Settings) (Voice, error)
	Metronome() (Voice, error)
}

// Silent is a Voice that plays nothing.
type Silent struct{}

func (Silent) TriggerNote(string, NoteLength, time.Time) error { return nil }
func (Silent) Apply(Settings) error                             { return nil }

// SilentFactory returns Silent voices for every track.
type SilentFactory struct{}

func (SilentFactory) NewVoice(int, Instrument, Settings) (Voice, error) { return Silent{}, nil }
func (SilentFactory) Metronome() (Voice, error)                       { return Silent{}, nil }
