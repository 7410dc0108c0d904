package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gridseq/debug"
	"gridseq/pitch"
	"gridseq/transport"
)

// Manager owns the tracks, the timeline and the transport. Every mutation and
// every tick goes through its lock, so the cursor and the shared length have a
// single owner even though ticks arrive on another goroutine.
type Manager struct {
	mu sync.RWMutex

	pitches   pitch.Map
	rows      int
	registry  *Registry
	timeline  *Timeline
	transport *transport.Transport

	factory     VoiceFactory
	voices      map[int]Voice
	metronome   Voice
	metronomeOn bool

	policy  CursorPolicy
	preview bool
	step    int // last dispatched step

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager with no tracks.
func NewManager(opts Options) (*Manager, error) {
	if opts.Rows <= 0 {
		return nil, fmt.Errorf("row count must be positive, got %d", opts.Rows)
	}
	if opts.InitialPieces < 0 {
		return nil, fmt.Errorf("initial pieces must not be negative, got %d", opts.InitialPieces)
	}
	pitches, err := opts.pitchMap()
	if err != nil {
		return nil, err
	}

	tr, err := transport.New(opts.Source, opts.Tempo)
	if err != nil {
		return nil, err
	}

	factory := opts.Voices
	if factory == nil {
		factory = SilentFactory{}
	}
	metronome, err := factory.Metronome()
	if err != nil {
		debug.Log("voice", "metronome unavailable: %v", err)
		metronome = Silent{}
	}

	return &Manager{
		pitches:     pitches,
		rows:        opts.Rows,
		registry:    NewRegistry(),
		timeline:    NewTimeline(opts.initialLength()),
		transport:   tr,
		factory:     factory,
		voices:      make(map[int]Voice),
		metronome:   metronome,
		metronomeOn: opts.Metronome,
		policy:      opts.CursorPolicy,
		preview:     opts.PreviewOnPaint,
		UpdateChan:  make(chan struct{}, 1),
	}, nil
}

// Run consumes transport ticks until ctx is done, then stops playback.
func (m *Manager) Run(ctx context.Context) {
	ticks := m.transport.Ticks()
	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case tick := <-ticks:
			m.HandleTick(tick)
		}
	}
}

// HandleTick plays one step. Ticks from a stopped session are dropped.
// It returns false when nothing was dispatched.
func (m *Manager) HandleTick(tick transport.Tick) bool {
	m.mu.Lock()
	if !m.transport.Live(tick) {
		m.mu.Unlock()
		return false
	}
	step, ok := m.transport.Advance(m.timeline.Length())
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.step = step
	tracks := m.registry.Snapshot()
	voices := make(map[int]Voice, len(m.voices))
	for id, v := range m.voices {
		voices[id] = v
	}
	metronome := m.metronome
	click := m.metronomeOn
	m.mu.Unlock()

	notes := Dispatch(step, tick.Time, tracks, m.pitches)
	trigger(notes, voices)
	if click {
		if err := metronome.TriggerNote(MetronomePitch, Eighth, tick.Time); err != nil {
			debug.Log("voice", "metronome: %v", err)
		}
	}

	debug.LogEvery(16, "tick", "step=%d notes=%d", step, len(notes))
	m.notifyUpdate()
	return true
}

// Play starts the transport
func (m *Manager) Play() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	started := m.transport.Start()
	if started {
		m.notifyUpdate()
	}
	return started
}

// Stop stops the transport, keeping the cursor
func (m *Manager) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stopped := m.transport.Stop()
	if stopped {
		m.notifyUpdate()
	}
	return stopped
}

// TogglePlay starts or stops playback
func (m *Manager) TogglePlay() {
	if !m.Play() {
		m.Stop()
	}
}

// SetTempo sets the BPM
func (m *Manager) SetTempo(bpm float64) error {
	if err := m.transport.SetTempo(bpm); err != nil {
		return err
	}
	m.notifyUpdate()
	return nil
}

// SetMetronome turns the per-step click on or off
func (m *Manager) SetMetronome(on bool) {
	m.mu.Lock()
	m.metronomeOn = on
	m.mu.Unlock()
	m.notifyUpdate()
}

// AddTrack appends a track sized to the shared length and selects it.
// If the instrument's voice cannot be created the track plays silently.
func (m *Manager) AddTrack(b Binding) int {
	inst := GetInstrument(b.InstrumentID)

	m.mu.Lock()
	t := m.registry.Add(b, m.rows, m.timeline.Length())
	voice, err := m.factory.NewVoice(t.ID, inst, b.Settings)
	if err != nil {
		debug.Log("voice", "track=%d instrument=%s: %v", t.ID, inst.ID, err)
		voice = Silent{}
	}
	m.voices[t.ID] = voice
	m.timeline.Sync(m.registry.Tracks())
	if m.policy == CursorResetOnChange {
		m.transport.Reset()
	}
	m.mu.Unlock()

	debug.Log("edit", "add track=%d instrument=%s", t.ID, inst.ID)
	m.notifyUpdate()
	return t.ID
}

// SelectTrack selects a track. Unknown ids are ignored.
func (m *Manager) SelectTrack(id int) {
	m.mu.Lock()
	changed := m.registry.Select(id)
	m.mu.Unlock()
	if changed {
		m.notifyUpdate()
	}
}

// UpdateInstrumentSettings replaces a track's settings. Unknown ids are ignored.
func (m *Manager) UpdateInstrumentSettings(id int, s Settings) {
	s = s.Clamp()

	m.mu.Lock()
	ok := m.registry.UpdateSettings(id, s)
	voice := m.voices[id]
	m.mu.Unlock()
	if !ok {
		return
	}

	if sv, isSettings := voice.(SettingsVoice); isSettings {
		if err := sv.Apply(s); err != nil {
			debug.Log("voice", "track=%d apply settings: %v", id, err)
		}
	}
	m.notifyUpdate()
}

// edit applies fn to a track's matrix and resynchronizes the timeline.
// Unknown track ids are a no-op.
func (m *Manager) edit(trackID int, fn func(t *Track) error) (found bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.registry.Get(trackID)
	if !ok {
		return false, nil
	}
	if err := fn(t); err != nil {
		return true, fmt.Errorf("track %d: %w", trackID, err)
	}

	length, grew := m.timeline.Sync(m.registry.Tracks())
	if grew && m.policy == CursorResetOnChange {
		m.transport.Reset()
	}
	debug.Log("edit", "track=%d length=%d grew=%v", trackID, length, grew)
	return true, nil
}

// PaintRun writes a note into a track. Out-of-range edits return
// grid.ErrInvalidRange and change nothing.
func (m *Manager) PaintRun(trackID, row, start, end int) error {
	found, err := m.edit(trackID, func(t *Track) error {
		mat, err := t.Matrix.PaintRun(row, start, end)
		if err != nil {
			return err
		}
		t.Matrix = mat
		return nil
	})
	if err != nil || !found {
		return err
	}

	if m.preview {
		m.previewNote(trackID, row)
	}
	m.notifyUpdate()
	return nil
}

// EraseRun clears columns [start, end] of a row.
func (m *Manager) EraseRun(trackID, row, start, end int) error {
	found, err := m.edit(trackID, func(t *Track) error {
		mat, err := t.Matrix.EraseRun(row, start, end)
		if err != nil {
			return err
		}
		t.Matrix = mat
		return nil
	})
	if err == nil && found {
		m.notifyUpdate()
	}
	return err
}

// EraseRunAt clears the whole note covering (row, col). It reports whether
// there was a note there.
func (m *Manager) EraseRunAt(trackID, row, col int) (bool, error) {
	erased := false
	_, err := m.edit(trackID, func(t *Track) error {
		start, end, ok := t.Matrix.RunBounds(row, col)
		if !ok {
			return nil
		}
		mat, err := t.Matrix.EraseRun(row, start, end)
		if err != nil {
			return err
		}
		t.Matrix = mat
		erased = true
		return nil
	})
	if erased {
		m.notifyUpdate()
	}
	return erased, err
}

// RunBounds returns the note covering (row, col) of a track.
func (m *Manager) RunBounds(trackID, row, col int) (start, end int, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, found := m.registry.Get(trackID)
	if !found {
		return 0, 0, false
	}
	return t.Matrix.RunBounds(row, col)
}

func (m *Manager) previewNote(trackID, row int) {
	m.mu.RLock()
	voice, ok := m.voices[trackID]
	m.mu.RUnlock()
	name := m.pitches.At(row)
	if !ok || name == "" {
		return
	}
	if err := voice.TriggerNote(name, Eighth, time.Now()); err != nil {
		debug.Log("voice", "preview track=%d: %v", trackID, err)
	}
}

// Tracks returns a snapshot of every track in order.
func (m *Manager) Tracks() []TrackSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.Snapshot()
}

// Track returns a snapshot of one track.
func (m *Manager) Track(id int) (TrackSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.registry.Get(id)
	if !ok {
		return TrackSnapshot{}, false
	}
	return t.Snapshot(id == m.registry.Selected()), true
}

// Selected returns the selected track id, 0 when there are no tracks.
func (m *Manager) Selected() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.Selected()
}

// Length returns the shared timeline length.
func (m *Manager) Length() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeline.Length()
}

// Step returns the last step played.
func (m *Manager) Step() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.step
}

// Cursor returns the step the next tick will play.
func (m *Manager) Cursor() int {
	return m.transport.Cursor()
}

// Pitches returns the row pitch map.
func (m *Manager) Pitches() pitch.Map {
	return m.pitches
}

// Tempo returns the BPM.
func (m *Manager) Tempo() float64 {
	return m.transport.Tempo()
}

// Playing reports whether the transport is running.
func (m *Manager) Playing() bool {
	return m.transport.Playing()
}

// GetState returns the header state in one read
func (m *Manager) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Tempo:     m.transport.Tempo(),
		Step:      m.step,
		Cursor:    m.transport.Cursor(),
		Playing:   m.transport.Playing(),
		Length:    m.timeline.Length(),
		Metronome: m.metronomeOn,
		Selected:  m.registry.Selected(),
		Tracks:    m.registry.Len(),
	}
}

// notifyUpdate tells the TUI to redraw without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
