package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gridseq/pitch"
	"gridseq/sequencer"
	"gridseq/transport"
)

var ErrInvalidConfig = errors.New("invalid config")

// MIDIConfig selects the output port
type MIDIConfig struct {
	Port             string `yaml:"port,omitempty"` // substring of the port name, empty = silent
	MetronomeChannel int    `yaml:"metronomeChannel"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette     string `yaml:"palette,omitempty"` // path to a GIMP .gpl file
	VisibleRows int    `yaml:"visibleRows"`
	VisibleCols int    `yaml:"visibleCols"`
}

// Config is the main configuration structure
type Config struct {
	Tempo          float64    `yaml:"tempo"`
	Rows           int        `yaml:"rows"`
	TopPitch       string     `yaml:"topPitch"`
	InitialPieces  int        `yaml:"initialPieces"`
	CursorPolicy   string     `yaml:"cursorPolicy"`
	Metronome      bool       `yaml:"metronome"`
	PreviewOnPaint bool       `yaml:"previewOnPaint"`
	Debug          bool       `yaml:"debug"`
	MIDI           MIDIConfig `yaml:"midi"`
	UI             UIConfig   `yaml:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo:          transport.DefaultBPM,
		Rows:           sequencer.DefaultRows,
		TopPitch:       sequencer.DefaultTopPitch,
		InitialPieces:  sequencer.DefaultPieces,
		CursorPolicy:   sequencer.CursorKeep.String(),
		PreviewOnPaint: true,
		MIDI: MIDIConfig{
			MetronomeChannel: 10,
		},
		UI: UIConfig{
			VisibleRows: 24,
			VisibleCols: 32,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gridseq"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing keys keep their defaults and a
// missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges. Tempo outside the transport's range is an error
// here rather than being clamped so a typo in the file is noticed.
func (c *Config) Validate() error {
	var errs []error
	if c.Tempo < transport.MinBPM || c.Tempo > transport.MaxBPM {
		errs = append(errs, fmt.Errorf("tempo %v outside %v-%v", c.Tempo, transport.MinBPM, transport.MaxBPM))
	}
	if c.Rows < 1 {
		errs = append(errs, fmt.Errorf("rows must be positive, got %d", c.Rows))
	}
	if _, err := pitch.Build(c.TopPitch, c.Rows); err != nil && c.Rows >= 1 {
		errs = append(errs, fmt.Errorf("topPitch %q with %d rows: %w", c.TopPitch, c.Rows, err))
	}
	// with no columns every paint is out of range and the loop never grows
	if c.InitialPieces < 1 {
		errs = append(errs, fmt.Errorf("initialPieces must be at least 1, got %d", c.InitialPieces))
	}
	if _, ok := sequencer.ParseCursorPolicy(c.CursorPolicy); !ok {
		errs = append(errs, fmt.Errorf("cursorPolicy %q: want keep or reset", c.CursorPolicy))
	}
	if c.MIDI.MetronomeChannel < 1 || c.MIDI.MetronomeChannel > 16 {
		errs = append(errs, fmt.Errorf("midi.metronomeChannel %d outside 1-16", c.MIDI.MetronomeChannel))
	}
	if c.UI.VisibleRows < 1 || c.UI.VisibleCols < 1 {
		errs = append(errs, fmt.Errorf("ui.visibleRows and ui.visibleCols must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Options converts the config to sequencer options. Source and voices are
// left for the caller.
func (c *Config) Options() sequencer.Options {
	policy, _ := sequencer.ParseCursorPolicy(c.CursorPolicy)
	return sequencer.Options{
		Rows:           c.Rows,
		TopPitch:       c.TopPitch,
		InitialPieces:  c.InitialPieces,
		Tempo:          c.Tempo,
		CursorPolicy:   policy,
		Metronome:      c.Metronome,
		PreviewOnPaint: c.PreviewOnPaint,
	}
}
