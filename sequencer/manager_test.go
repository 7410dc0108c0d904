package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridseq/grid"
	"gridseq/transport"
)

type noteCall struct {
	Pitch  string
	Length NoteLength
	At     time.Time
}

// recordingVoice remembers every note it is asked to play.
type recordingVoice struct {
	mu       sync.Mutex
	calls    []noteCall
	settings []Settings
	err      error
}

func (v *recordingVoice) TriggerNote(p string, l NoteLength, at time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, noteCall{p, l, at})
	return v.err
}

func (v *recordingVoice) Apply(s Settings) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = append(v.settings, s)
	return nil
}

func (v *recordingVoice) Calls() []noteCall {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]noteCall(nil), v.calls...)
}

type recordingFactory struct {
	mu        sync.Mutex
	voices    map[int]*recordingVoice
	metronome *recordingVoice
	fail      bool
}

func newRecordingFactory() *recordingFactory {
	return &recordingFactory{voices: make(map[int]*recordingVoice), metronome: &recordingVoice{}}
}

func (f *recordingFactory) NewVoice(id int, _ Instrument, _ Settings) (Voice, error) {
	if f.fail {
		return nil, errors.New("no port")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &recordingVoice{}
	f.voices[id] = v
	return v, nil
}

func (f *recordingFactory) Metronome() (Voice, error) {
	return f.metronome, nil
}

func (f *recordingFactory) voice(id int) *recordingVoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voices[id]
}

type harness struct {
	m      *Manager
	src    *transport.ManualSource
	voices *recordingFactory
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	src := &transport.ManualSource{Origin: time.Unix(1000, 0)}
	f := newRecordingFactory()
	opts.Source = src
	opts.Voices = f
	m, err := NewManager(opts)
	require.NoError(t, err)
	return &harness{m: m, src: src, voices: f}
}

// tick fires the clock once and dispatches the resulting tick.
func (h *harness) tick(t *testing.T) bool {
	t.Helper()
	require.True(t, h.src.Fire())
	return h.m.HandleTick(<-h.m.transport.Ticks())
}

func TestSingleNoteFiresOnce(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 10, 2, 2))

	h.m.Play()
	var steps []int
	for i := 0; i < 3; i++ {
		require.True(t, h.tick(t))
		steps = append(steps, h.m.Step())
	}
	assert.Equal(t, []int{0, 1, 2}, steps)

	calls := h.voices.voice(id).Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, h.m.Pitches().At(10), calls[0].Pitch)
	assert.Equal(t, "D5", calls[0].Pitch)
	assert.Equal(t, Eighth, calls[0].Length)
	assert.Equal(t, time.Unix(1000, 0).Add(2*500*time.Millisecond), calls[0].At)
}

func TestSustainDoesNotRetrigger(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 0, 5))

	h.m.Play()
	for i := 0; i < 8; i++ {
		h.tick(t)
	}
	calls := h.voices.voice(id).Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "C6", calls[0].Pitch)
}

func TestCursorWrapsOverSharedLength(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.m.AddTrack(GetInstrument("synth").Bind())
	require.Equal(t, 8, h.m.Length())

	h.m.Play()
	var steps []int
	for i := 0; i < 9; i++ {
		h.tick(t)
		steps = append(steps, h.m.Step())
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 0}, steps)
}

func TestLastPieceGrowsEveryTrack(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	a := h.m.AddTrack(GetInstrument("synth").Bind())
	b := h.m.AddTrack(GetInstrument("bass").Bind())
	require.Equal(t, 8, h.m.Length())

	require.NoError(t, h.m.PaintRun(a, 5, 7, 7))
	assert.Equal(t, 16, h.m.Length())
	for _, id := range []int{a, b} {
		tr, ok := h.m.Track(id)
		require.True(t, ok)
		assert.Equal(t, 16, tr.Matrix.Cols())
	}
}

func TestAddTrackUsesSharedLength(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	a := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(a, 0, 6, 7))
	require.Equal(t, 16, h.m.Length())

	b := h.m.AddTrack(GetInstrument("piano").Bind())
	tr, ok := h.m.Track(b)
	require.True(t, ok)
	assert.Equal(t, 16, tr.Matrix.Cols())
	assert.True(t, tr.Matrix.Empty())
	assert.True(t, tr.Selected)
	assert.Equal(t, b, h.m.Selected())
}

func TestEditsKeepInvariants(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	a := h.m.AddTrack(GetInstrument("synth").Bind())
	b := h.m.AddTrack(GetInstrument("drums").Bind())

	prev := h.m.Length()
	edits := []func() error{
		func() error { return h.m.PaintRun(a, 1, 0, 7) },
		func() error { return h.m.PaintRun(b, 2, 14, 15) },
		func() error { return h.m.EraseRun(a, 1, 0, 7) },
		func() error { _, err := h.m.EraseRunAt(b, 2, 15); return err },
		func() error { return h.m.PaintRun(b, 0, 23, 23) },
	}
	for _, edit := range edits {
		require.NoError(t, edit())
		length := h.m.Length()
		assert.GreaterOrEqual(t, length, prev)
		assert.Zero(t, length%grid.PieceSize)
		for _, tr := range h.m.Tracks() {
			assert.Equal(t, length, tr.Matrix.Cols())
		}
		prev = length
	}
	assert.Equal(t, 32, prev)
}

func TestInvalidEditIsRejected(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 1, 2))

	before, _ := h.m.Track(id)
	err := h.m.PaintRun(id, 0, 3, 99)
	assert.ErrorIs(t, err, grid.ErrInvalidRange)
	err = h.m.EraseRun(id, 0, 2, 1)
	assert.ErrorIs(t, err, grid.ErrInvalidRange)

	after, _ := h.m.Track(id)
	assert.Equal(t, before.Matrix.String(), after.Matrix.String())
}

func TestUnknownTrackIsNoop(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.m.AddTrack(GetInstrument("synth").Bind())

	assert.NoError(t, h.m.PaintRun(99, 0, 0, 0))
	assert.NoError(t, h.m.EraseRun(99, 0, 0, 0))
	erased, err := h.m.EraseRunAt(99, 0, 0)
	assert.NoError(t, err)
	assert.False(t, erased)
	_, _, ok := h.m.RunBounds(99, 0, 0)
	assert.False(t, ok)

	h.m.SelectTrack(99)
	assert.Equal(t, 1, h.m.Selected())
	h.m.UpdateInstrumentSettings(99, Settings{Volume: 1})
}

func TestEraseRunAtClearsWholeNote(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 4, 1, 5))

	s, e, ok := h.m.RunBounds(id, 4, 3)
	require.True(t, ok)
	assert.Equal(t, 1, s)
	assert.Equal(t, 5, e)

	erased, err := h.m.EraseRunAt(id, 4, 3)
	require.NoError(t, err)
	assert.True(t, erased)
	for c := 1; c <= 5; c++ {
		_, _, ok := h.m.RunBounds(id, 4, c)
		assert.False(t, ok)
	}

	erased, err = h.m.EraseRunAt(id, 4, 3)
	require.NoError(t, err)
	assert.False(t, erased)
}

func TestEmptyTimelineDoesNotDispatch(t *testing.T) {
	opts := DefaultOptions()
	opts.InitialPieces = 0
	h := newHarness(t, opts)
	h.m.AddTrack(GetInstrument("synth").Bind())
	require.Equal(t, 0, h.m.Length())

	h.m.Play()
	assert.False(t, h.tick(t))
	assert.Equal(t, 0, h.m.Cursor())
	assert.Empty(t, h.voices.voice(1).Calls())
}

func TestStopDropsPendingTick(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 0, 0))

	h.m.Play()
	require.True(t, h.src.Fire())
	pending := <-h.m.transport.Ticks()
	h.m.Stop()

	assert.False(t, h.m.HandleTick(pending))
	assert.Empty(t, h.voices.voice(id).Calls())
	assert.False(t, h.src.Fire())
}

func TestStopKeepsCursor(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.m.AddTrack(GetInstrument("synth").Bind())
	h.m.Play()
	for i := 0; i < 3; i++ {
		h.tick(t)
	}
	h.m.Stop()
	assert.Equal(t, 3, h.m.Cursor())

	h.m.Play()
	h.tick(t)
	assert.Equal(t, 3, h.m.Step())
}

func TestCursorPolicyKeep(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	h.m.Play()
	for i := 0; i < 3; i++ {
		h.tick(t)
	}

	h.m.AddTrack(GetInstrument("bass").Bind())
	assert.Equal(t, 3, h.m.Cursor())

	require.NoError(t, h.m.PaintRun(id, 0, 7, 7))
	require.Equal(t, 16, h.m.Length())
	assert.Equal(t, 3, h.m.Cursor())
}

func TestCursorPolicyReset(t *testing.T) {
	opts := DefaultOptions()
	opts.CursorPolicy = CursorResetOnChange
	h := newHarness(t, opts)
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 7, 7))
	require.Equal(t, 16, h.m.Length())

	h.m.Play()
	for i := 0; i < 3; i++ {
		h.tick(t)
	}

	h.m.AddTrack(GetInstrument("bass").Bind())
	assert.Equal(t, 0, h.m.Cursor())

	h.tick(t)
	h.tick(t)
	require.NoError(t, h.m.PaintRun(id, 1, 2, 3))
	assert.Equal(t, 2, h.m.Cursor(), "edits that do not grow keep the cursor")

	require.NoError(t, h.m.PaintRun(id, 1, 15, 15))
	assert.Equal(t, 24, h.m.Length())
	assert.Equal(t, 0, h.m.Cursor())
}

func TestMetronome(t *testing.T) {
	opts := DefaultOptions()
	opts.Metronome = true
	h := newHarness(t, opts)
	h.m.AddTrack(GetInstrument("synth").Bind())

	h.m.Play()
	h.tick(t)
	h.tick(t)
	h.m.SetMetronome(false)
	h.tick(t)

	calls := h.voices.metronome.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, MetronomePitch, calls[0].Pitch)
	assert.True(t, calls[1].At.After(calls[0].At))
}

func TestPreviewOnPaint(t *testing.T) {
	opts := DefaultOptions()
	opts.PreviewOnPaint = true
	h := newHarness(t, opts)
	id := h.m.AddTrack(GetInstrument("synth").Bind())

	require.NoError(t, h.m.PaintRun(id, 12, 0, 3))
	calls := h.voices.voice(id).Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "C5", calls[0].Pitch)

	require.Error(t, h.m.PaintRun(id, 12, 4, 100))
	assert.Len(t, h.voices.voice(id).Calls(), 1)
}

func TestVoiceErrorDoesNotStopPlayback(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	h.voices.voice(id).err = errors.New("port gone")
	require.NoError(t, h.m.PaintRun(id, 0, 0, 0))
	require.NoError(t, h.m.PaintRun(id, 0, 1, 1))

	h.m.Play()
	assert.True(t, h.tick(t))
	assert.True(t, h.tick(t))
	assert.Len(t, h.voices.voice(id).Calls(), 2)
	assert.True(t, h.m.Playing())
}

func TestFailedVoiceFallsBackToSilent(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.voices.fail = true
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 0, 0))

	h.m.Play()
	assert.True(t, h.tick(t))
}

func TestUpdateInstrumentSettings(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())

	h.m.UpdateInstrumentSettings(id, Settings{Volume: 0.5, Release: 5})
	tr, _ := h.m.Track(id)
	assert.Equal(t, 0.5, tr.Instrument.Settings.Volume)
	assert.Equal(t, MaxRelease, tr.Instrument.Settings.Release)

	v := h.voices.voice(id)
	v.mu.Lock()
	defer v.mu.Unlock()
	require.Len(t, v.settings, 1)
	assert.Equal(t, tr.Instrument.Settings, v.settings[0])
}

func TestTickSnapshotIsConsistent(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 0, 0))

	tracks := h.m.Tracks()
	require.NoError(t, h.m.EraseRun(id, 0, 0, 0))

	// The earlier snapshot still sees the note.
	notes := Dispatch(0, time.Time{}, tracks, h.m.Pitches())
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].TrackID)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	id := h.m.AddTrack(GetInstrument("synth").Bind())
	require.NoError(t, h.m.PaintRun(id, 0, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.m.Run(ctx)
		close(done)
	}()

	h.m.Play()
	h.src.Fire()
	require.Eventually(t, func() bool {
		return len(h.voices.voice(id).Calls()) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.False(t, h.m.Playing())
}

func TestSetTempo(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	require.NoError(t, h.m.SetTempo(90))
	assert.Equal(t, 90.0, h.m.GetState().Tempo)
	assert.Error(t, h.m.SetTempo(-1))
}

func TestNewManagerRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 0
	_, err := NewManager(opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.TopPitch = "X9"
	_, err = NewManager(opts)
	assert.Error(t, err)
}
