package midi

import (
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn        uint8 = 0x90
	NoteOff       uint8 = 0x80
	CC            uint8 = 0xB0
	ProgramChange uint8 = 0xC0
)

// Controllers used for instrument settings
const (
	CCVolume      uint8 = 7
	CCSustain     uint8 = 70
	CCRelease     uint8 = 72
	CCAttack      uint8 = 73
	CCDecay       uint8 = 75
	CCAllNotesOff uint8 = 123
)

// DrumChannel is the General MIDI percussion channel, 0-based.
const DrumChannel uint8 = 9

// Event is a MIDI message due at a point in time
type Event struct {
	At       time.Time
	Type     uint8 // NoteOn, NoteOff, CC, ProgramChange
	Channel  uint8 // 0-based
	Note     uint8 // key, controller or program
	Velocity uint8 // velocity or controller value
}

// Message converts the event to a gomidi message
func (e Event) Message() (gomidi.Message, error) {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity), nil
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note), nil
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity), nil
	case ProgramChange:
		return gomidi.ProgramChange(e.Channel, e.Note), nil
	}
	return nil, fmt.Errorf("unknown event type 0x%02x", e.Type)
}

// Sender writes one message to an output port
type Sender func(gomidi.Message) error
