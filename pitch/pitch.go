package pitch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// ErrInvalidPitch is returned for names that are not scientific pitch notation
// or that fall outside the MIDI key range.
var ErrInvalidPitch = errors.New("invalid pitch")

// Pitch is a MIDI key number. C4 = 60.
type Pitch uint8

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Parse reads a name like "C6", "A#5" or "Db4".
func Parse(name string) (Pitch, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPitch, name)
	}

	semitone, ok := letterOffsets[byte(strings.ToUpper(s[:1])[0])]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPitch, name)
	}
	s = s[1:]

	for len(s) > 0 && (s[0] == '#' || s[0] == 'b') {
		if s[0] == '#' {
			semitone++
		} else {
			semitone--
		}
		s = s[1:]
	}

	octave, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPitch, name)
	}

	key := (octave+1)*12 + semitone
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("%w: %q out of MIDI range", ErrInvalidPitch, name)
	}
	return Pitch(key), nil
}

// MustParse is Parse for constants.
func MustParse(name string) Pitch {
	p, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Key returns the MIDI key number.
func (p Pitch) Key() uint8 {
	return uint8(p)
}

// Octave returns the scientific octave (C4 = 60).
func (p Pitch) Octave() int {
	// gomidi counts octaves from key 0, scientific notation starts at -1
	return int(gomidi.Note(p).Octave()) - 1
}

// String prints the pitch with sharps, e.g. "A#5".
func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", sharpNames[int(p)%12], p.Octave())
}

// Transpose moves the pitch by n semitones.
func (p Pitch) Transpose(n int) (Pitch, error) {
	key := int(p) + n
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("%w: %s transposed by %d", ErrInvalidPitch, p, n)
	}
	return Pitch(key), nil
}
