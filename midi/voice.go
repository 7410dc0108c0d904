package midi

import (
	"errors"
	"math"
	"sync"
	"time"

	"gridseq/debug"
	"gridseq/pitch"
	"gridseq/sequencer"
)

var (
	// ErrNoSender is returned when a voice has no output to play on.
	ErrNoSender = errors.New("no MIDI output")
	// ErrClosed is returned for sends after the rack was closed.
	ErrClosed = errors.New("MIDI rack closed")
)

// Scheduler runs fn at t. Stop drops everything still pending.
type Scheduler interface {
	At(t time.Time, fn func())
	Stop()
}

// RealTime schedules with time.AfterFunc. Times in the past run at once.
type RealTime struct {
	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	stopped bool
}

func NewRealTime() *RealTime {
	return &RealTime{pending: make(map[*time.Timer]struct{})}
}

func (r *RealTime) At(t time.Time, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	var timer *time.Timer
	// the callback takes r.mu first, so timer is assigned before it reads it
	timer = time.AfterFunc(max(time.Until(t), 0), func() {
		r.mu.Lock()
		delete(r.pending, timer)
		stopped := r.stopped
		r.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	r.pending[timer] = struct{}{}
}

// Stop cancels every pending callback. Later calls to At are ignored.
func (r *RealTime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for timer := range r.pending {
		timer.Stop()
	}
	clear(r.pending)
}

// Voice plays a track's notes on one MIDI channel.
type Voice struct {
	rack    *Rack
	channel uint8
	inst    sequencer.Instrument

	mu       sync.Mutex
	settings sequencer.Settings
	lastKey  int // sounding key of a monophonic voice, -1 when silent
}

func newVoice(r *Rack, channel uint8, inst sequencer.Instrument, s sequencer.Settings) *Voice {
	return &Voice{rack: r, channel: channel, inst: inst, settings: s, lastKey: -1}
}

// Channel returns the 0-based MIDI channel.
func (v *Voice) Channel() uint8 {
	return v.channel
}

// TriggerNote schedules a note on at the given time and its note off one note
// length later at the rack's current tempo.
func (v *Voice) TriggerNote(name string, length sequencer.NoteLength, at time.Time) error {
	p, err := pitch.Parse(name)
	if err != nil {
		return err
	}
	if !v.rack.connected() {
		return ErrNoSender
	}

	v.mu.Lock()
	vel := velocity(v.settings.Volume)
	v.mu.Unlock()

	key := p.Key()
	dur := length.Duration(v.rack.bpm())

	// the note off is scheduled from the note on so it can never go out first
	v.rack.sched.At(at, func() {
		if !v.inst.Polyphonic {
			v.mu.Lock()
			last := v.lastKey
			v.lastKey = int(key)
			v.mu.Unlock()
			if last >= 0 {
				v.rack.emit(Event{At: at, Type: NoteOff, Channel: v.channel, Note: uint8(last)})
			}
		}
		v.rack.emit(Event{At: at, Type: NoteOn, Channel: v.channel, Note: key, Velocity: vel})

		off := at.Add(dur)
		v.rack.sched.At(off, func() {
			if !v.inst.Polyphonic {
				v.mu.Lock()
				if v.lastKey != int(key) {
					// a later note already cut this one
					v.mu.Unlock()
					return
				}
				v.lastKey = -1
				v.mu.Unlock()
			}
			v.rack.emit(Event{At: off, Type: NoteOff, Channel: v.channel, Note: key})
		})
	})
	return nil
}

// Apply sends the settings as controller changes.
func (v *Voice) Apply(s sequencer.Settings) error {
	v.mu.Lock()
	v.settings = s
	v.mu.Unlock()

	if !v.rack.connected() {
		return nil
	}
	ccs := []struct {
		cc    uint8
		value float64
	}{
		{CCVolume, s.Volume},
		{CCAttack, s.Attack},
		{CCDecay, s.Decay},
		{CCSustain, s.Sustain},
		{CCRelease, s.Release / sequencer.MaxRelease},
	}
	var errs []error
	for _, c := range ccs {
		errs = append(errs, v.rack.send(Event{Type: CC, Channel: v.channel, Note: c.cc, Velocity: scale7(c.value)}))
	}
	return errors.Join(errs...)
}

// velocity maps volume 0-1 to 1-127 so a quiet note still sounds
func velocity(volume float64) uint8 {
	v := scale7(volume)
	if v == 0 {
		return 1
	}
	return v
}

func scale7(x float64) uint8 {
	if x <= 0 || math.IsNaN(x) {
		return 0
	}
	if x >= 1 {
		return 127
	}
	return uint8(math.Round(x * 127))
}

// logSendError is used from scheduled callbacks that have nobody to return to
func logSendError(e Event, err error) {
	debug.Log("midi", "send type=0x%02x ch=%d note=%d: %v", e.Type, e.Channel+1, e.Note, err)
}
