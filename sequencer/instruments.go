package sequencer

import (
	"sort"
	"strings"
)

// Settings is the envelope and level of an instrument.
// Volume, Attack, Decay and Sustain are 0-1, Release is 0-2 (seconds).
type Settings struct {
	Volume  float64 `yaml:"volume"`
	Attack  float64 `yaml:"attack"`
	Decay   float64 `yaml:"decay"`
	Sustain float64 `yaml:"sustain"`
	Release float64 `yaml:"release"`
}

// MaxRelease is the upper bound of Settings.Release.
const MaxRelease = 2.0

// Clamp returns s with every field pulled into its range.
func (s Settings) Clamp() Settings {
	return Settings{
		Volume:  clamp(s.Volume, 0, 1),
		Attack:  clamp(s.Attack, 0, 1),
		Decay:   clamp(s.Decay, 0, 1),
		Sustain: clamp(s.Sustain, 0, 1),
		Release: clamp(s.Release, 0, MaxRelease),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Instrument is a preset a track can be created with.
type Instrument struct {
	ID       string
	Name     string
	Color    string // #rrggbb
	Settings Settings

	// MIDI side
	Program    uint8 // General MIDI program, 0-based
	Percussion bool  // plays on the GM drum channel
	Polyphonic bool  // false = a new note cuts the previous one
}

var defaultEnvelope = Settings{Volume: 0.8, Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 1.0}

// Instruments contains the presets offered when adding a track
var Instruments = map[string]Instrument{
	"synth": {
		ID:       "synth",
		Name:     "Sine Synth",
		Color:    "#27ae60",
		Settings: defaultEnvelope,
		Program:  80, // Lead 1 (square)
	},
	"toneSynth": {
		ID:         "toneSynth",
		Name:       "Poly Synth",
		Color:      "#8e44ad",
		Settings:   defaultEnvelope,
		Program:    88, // Pad 1 (new age)
		Polyphonic: true,
	},
	"drums": {
		ID:         "drums",
		Name:       "Drums",
		Color:      "#e67e22",
		Settings:   Settings{Volume: 0.9, Attack: 0.001, Decay: 0.4, Sustain: 0.01, Release: 1.4},
		Percussion: true,
		Polyphonic: true,
	},
	"piano": {
		ID:         "piano",
		Name:       "Piano",
		Color:      "#2980b9",
		Settings:   Settings{Volume: 0.8, Attack: 0.005, Decay: 0.3, Sustain: 0.4, Release: 1.0},
		Program:    0, // Acoustic Grand
		Polyphonic: true,
	},
	"bass": {
		ID:       "bass",
		Name:     "Saw Bass",
		Color:    "#c0392b",
		Settings: Settings{Volume: 0.8, Attack: 0.01, Decay: 0.2, Sustain: 0.6, Release: 0.3},
		Program:  38, // Synth Bass 1
	},
}

// DefaultInstrument is used when an id is unknown
const DefaultInstrument = "synth"

// InstrumentIDs returns the preset ids in display order
func InstrumentIDs() []string {
	return []string{"synth", "toneSynth", "drums", "piano", "bass"}
}

// GetInstrument returns a preset by id, defaulting to the sine synth if not found
func GetInstrument(id string) Instrument {
	if inst, ok := Instruments[id]; ok {
		return inst
	}
	return Instruments[DefaultInstrument]
}

// InstrumentList returns every preset in display order, followed by any
// presets registered under other ids sorted by id.
func InstrumentList() []Instrument {
	seen := make(map[string]bool)
	var out []Instrument
	for _, id := range InstrumentIDs() {
		if inst, ok := Instruments[id]; ok {
			out = append(out, inst)
			seen[id] = true
		}
	}
	var extra []string
	for id := range Instruments {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		out = append(out, Instruments[id])
	}
	return out
}

// FilterInstruments returns presets whose name contains query, ignoring case.
func FilterInstruments(query string) []Instrument {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Instrument
	for _, inst := range InstrumentList() {
		if strings.Contains(strings.ToLower(inst.Name), q) {
			out = append(out, inst)
		}
	}
	return out
}

// Binding is the instrument assigned to a track.
type Binding struct {
	InstrumentID string
	Name         string
	Color        string
	Settings     Settings
}

// Bind creates a binding with the preset's default settings.
func (i Instrument) Bind() Binding {
	return Binding{
		InstrumentID: i.ID,
		Name:         i.Name,
		Color:        i.Color,
		Settings:     i.Settings,
	}
}
