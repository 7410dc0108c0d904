package transport

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gridseq/debug"
)

// Tempo limits
const (
	MinBPM     = 20
	MaxBPM     = 300
	DefaultBPM = 120
)

// ErrInvalidTempo is returned for a non-positive or non-finite BPM.
var ErrInvalidTempo = errors.New("invalid tempo")

// State is the run state of the transport.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Tick is one step elapsing. Time is the scheduled time of the step and
// increases monotonically within a session.
type Tick struct {
	Time    time.Time
	Session uint64
}

// Transport owns the tempo and the playback cursor. It turns the callbacks of
// a Source into Ticks on a channel; one column of the grid is one tick, one
// tick is one quarter note.
type Transport struct {
	mu      sync.Mutex
	source  Source
	handle  Handle
	state   State
	bpm     float64
	cursor  int
	session uint64
	done    chan struct{} // closed when the current session stops
	ticks   chan Tick
}

// New creates a stopped transport.
func New(source Source, bpm float64) (*Transport, error) {
	if source == nil {
		source = TimerSource{}
	}
	t := &Transport{
		source: source,
		bpm:    DefaultBPM,
		ticks:  make(chan Tick, 4),
	}
	if err := t.SetTempo(bpm); err != nil {
		return nil, err
	}
	return t, nil
}

// Ticks delivers ticks of every session. Consumers should drop ticks for which
// Live returns false.
func (t *Transport) Ticks() <-chan Tick {
	return t.ticks
}

// Start begins ticking. It returns false if already running.
func (t *Transport) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Running {
		return false
	}

	t.session++
	t.state = Running
	done := make(chan struct{})
	t.done = done
	session := t.session
	ticks := t.ticks

	t.handle = t.source.Schedule(t.interval(), func(at time.Time) {
		select {
		case ticks <- Tick{Time: at, Session: session}:
		case <-done:
		}
	})
	debug.Log("transport", "start session=%d bpm=%.1f interval=%s", session, t.bpm, t.interval())
	return true
}

// Stop cancels further ticks and leaves the cursor where it is. It returns
// false if already stopped.
func (t *Transport) Stop() bool {
	t.mu.Lock()
	if t.state == Stopped {
		t.mu.Unlock()
		return false
	}
	t.state = Stopped
	close(t.done)
	handle := t.handle
	t.handle = nil
	session := t.session
	t.mu.Unlock()

	// Cancel may wait for a callback in flight; that callback returns because
	// done is closed.
	handle.Cancel()
	debug.Log("transport", "stop session=%d", session)
	return true
}

// State returns the run state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Playing reports whether the transport is running.
func (t *Transport) Playing() bool {
	return t.State() == Running
}

// Live reports whether tick belongs to the running session.
func (t *Transport) Live(tick Tick) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Running && tick.Session == t.session
}

// SetTempo changes the BPM, clamped to [MinBPM, MaxBPM]. A running schedule
// picks it up for subsequent ticks.
func (t *Transport) SetTempo(bpm float64) error {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTempo, bpm)
	}
	bpm = math.Max(MinBPM, math.Min(MaxBPM, bpm))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.bpm = bpm
	if t.handle != nil {
		t.handle.SetInterval(t.interval())
	}
	return nil
}

// Tempo returns the BPM.
func (t *Transport) Tempo() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

// Interval returns the duration of one tick at the current tempo.
func (t *Transport) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval()
}

func (t *Transport) interval() time.Duration {
	return BeatDuration(t.bpm)
}

// BeatDuration is the length of a quarter note at bpm.
func BeatDuration(bpm float64) time.Duration {
	return time.Duration(float64(time.Minute) / bpm)
}

// Cursor returns the step the next tick will play.
func (t *Transport) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// Advance returns the step to play now and moves the cursor to the next one,
// wrapping at length. With length 0 the cursor stays at 0 and ok is false.
func (t *Transport) Advance(length int) (step int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if length <= 0 {
		t.cursor = 0
		return 0, false
	}
	step = t.cursor
	if step >= length {
		step = 0
	}
	t.cursor = (step + 1) % length
	return step, true
}

// Reset moves the cursor back to 0.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor = 0
}
