package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"gridseq/config"
	"gridseq/debug"
	"gridseq/midi"
	"gridseq/sequencer"
	"gridseq/theme"
	"gridseq/tui"
)

var (
	configPath  string
	bpm         float64
	port        string
	rows        int
	topPitch    string
	metronome   bool
	resetCursor bool
	debugLog    bool
	palettePath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gridseq",
	Short: "Step sequencer with a piano-roll grid",
	Long: `gridseq is a terminal step sequencer. Each track is a grid of pitches
by steps, played on a MIDI output one step per beat.

The loop grows by 8 steps whenever a note lands in its last 8 steps.

Examples:
  gridseq --port fluid
  gridseq --bpm 96 --metronome
  gridseq ports`,
	SilenceUsage: true,
	RunE:         runSequencer,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (default ~/.config/gridseq/config.yaml)")
	f.Float64Var(&bpm, "bpm", 0, "tempo in beats per minute")
	f.StringVar(&port, "port", "", "MIDI output port, matched by substring")
	f.IntVar(&rows, "rows", 0, "number of pitch rows")
	f.StringVar(&topPitch, "top", "", "pitch of the top row, e.g. C6")
	f.BoolVar(&metronome, "metronome", false, "click on every step")
	f.BoolVar(&resetCursor, "reset-cursor", false, "restart playback from step 0 when a track is added or the loop grows")
	f.BoolVar(&debugLog, "debug", false, "write a debug log to ~/.config/gridseq/debug.log")
	f.StringVar(&palettePath, "palette", "", "GIMP .gpl palette for the UI")

	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(instrumentsCmd)
}

// loadConfig reads the config file and applies the flags that were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("bpm") {
		cfg.Tempo = bpm
	}
	if f.Changed("port") {
		cfg.MIDI.Port = port
	}
	if f.Changed("rows") {
		cfg.Rows = rows
	}
	if f.Changed("top") {
		cfg.TopPitch = topPitch
	}
	if f.Changed("metronome") {
		cfg.Metronome = metronome
	}
	if f.Changed("reset-cursor") && resetCursor {
		cfg.CursorPolicy = sequencer.CursorResetOnChange.String()
	}
	if f.Changed("debug") {
		cfg.Debug = debugLog
	}
	if f.Changed("palette") {
		cfg.UI.Palette = palettePath
	}
	return cfg, cfg.Validate()
}

func runSequencer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Debug {
		path, err := debug.DefaultPath()
		if err != nil {
			return err
		}
		if err := debug.Enable(path); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
		debug.Log("config", "tempo=%v rows=%d top=%s policy=%s port=%q", cfg.Tempo, cfg.Rows, cfg.TopPitch, cfg.CursorPolicy, cfg.MIDI.Port)
	}

	palette := theme.DefaultPalette()
	if cfg.UI.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.UI.Palette); err != nil {
			return err
		}
	}
	th := theme.New(palette)

	var sender midi.Sender
	if cfg.MIDI.Port != "" {
		out, err := midi.Open(cfg.MIDI.Port)
		if err != nil {
			return err
		}
		defer out.Close()
		sender = out.Send
	} else {
		fmt.Println("No MIDI output configured, playing silently (see gridseq ports)")
	}
	rack := midi.NewRack(sender, cfg.MIDI.MetronomeChannel)
	defer rack.Close()

	opts := cfg.Options()
	opts.Voices = rack
	manager, err := sequencer.NewManager(opts)
	if err != nil {
		return err
	}
	rack.SetTempo(manager.Tempo)
	manager.AddTrack(sequencer.GetInstrument(sequencer.DefaultInstrument).Bind())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		manager.Run(ctx)
	}()
	// the loop must be gone before the deferred rack and port closes run
	defer func() {
		cancel()
		<-done
	}()

	m := tui.NewModel(manager, th, cfg.UI.VisibleRows, cfg.UI.VisibleCols)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
