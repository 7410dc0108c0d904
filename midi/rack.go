package midi

import (
	"errors"
	"sync"

	"gridseq/debug"
	"gridseq/pitch"
	"gridseq/sequencer"
	"gridseq/transport"
)

// Rack hands out one MIDI channel per track on a shared output.
// It implements sequencer.VoiceFactory.
type Rack struct {
	sender Sender // nil = not connected
	sched  Scheduler

	sendMu sync.Mutex // serializes writes to the port
	closed bool

	mu       sync.Mutex
	tempo    func() float64
	used     map[uint8]bool
	metroCh  uint8
	metronom *Voice
}

// NewRack creates a rack on sender. A nil sender makes every voice silent.
// metronomeChannel is 1-based.
func NewRack(sender Sender, metronomeChannel int) *Rack {
	ch := DrumChannel
	if metronomeChannel >= 1 && metronomeChannel <= 16 {
		ch = uint8(metronomeChannel - 1)
	}
	return &Rack{
		sender:  sender,
		sched:   NewRealTime(),
		used:    make(map[uint8]bool),
		metroCh: ch,
	}
}

// SetTempo gives the rack the tempo source used for note lengths.
func (r *Rack) SetTempo(tempo func() float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tempo = tempo
}

// SetScheduler replaces the real-time scheduler. Call it before any voice
// is created.
func (r *Rack) SetScheduler(s Scheduler) {
	r.sched = s
}

func (r *Rack) bpm() float64 {
	r.mu.Lock()
	tempo := r.tempo
	r.mu.Unlock()
	if tempo == nil {
		return transport.DefaultBPM
	}
	return tempo()
}

func (r *Rack) connected() bool {
	return r.sender != nil
}

// ChannelFor returns the 0-based channel of a track: percussion always plays
// on the drum channel, other tracks cycle through the remaining 15.
func ChannelFor(trackID int, percussion bool) uint8 {
	if percussion {
		return DrumChannel
	}
	if trackID < 1 {
		trackID = 1
	}
	ch := uint8((trackID - 1) % 15)
	if ch >= DrumChannel {
		ch++
	}
	return ch
}

// NewVoice builds the voice of a track and sends its program and settings.
func (r *Rack) NewVoice(trackID int, inst sequencer.Instrument, s sequencer.Settings) (sequencer.Voice, error) {
	if !r.connected() {
		return sequencer.Silent{}, nil
	}
	ch := ChannelFor(trackID, inst.Percussion)
	r.mu.Lock()
	r.used[ch] = true
	r.mu.Unlock()

	v := newVoice(r, ch, inst, s)
	var errs []error
	if !inst.Percussion {
		errs = append(errs, r.send(Event{Type: ProgramChange, Channel: ch, Note: inst.Program}))
	}
	errs = append(errs, v.Apply(s))
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	debug.Log("voice", "track=%d instrument=%s channel=%d", trackID, inst.ID, ch+1)
	return v, nil
}

// Metronome returns the click voice on the metronome channel.
func (r *Rack) Metronome() (sequencer.Voice, error) {
	if !r.connected() {
		return sequencer.Silent{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.metronom == nil {
		r.metronom = newVoice(r, r.metroCh, sequencer.Instrument{ID: "metronome", Percussion: true, Polyphonic: true},
			sequencer.Settings{Volume: 0.7})
		r.used[r.metroCh] = true
	}
	return r.metronom, nil
}

// Close drops pending notes, silences every channel the rack used and stops
// sending. The output port can be closed once it returns.
func (r *Rack) Close() error {
	if !r.connected() {
		return nil
	}
	r.sched.Stop()

	r.mu.Lock()
	var chans []uint8
	for ch := range r.used {
		chans = append(chans, ch)
	}
	r.mu.Unlock()

	// closed is set under the same lock so no note on can slip in after
	// the all notes off
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if r.closed {
		return nil
	}
	var errs []error
	for _, ch := range chans {
		msg, _ := Event{Type: CC, Channel: ch, Note: CCAllNotesOff}.Message()
		errs = append(errs, r.sender(msg))
	}
	r.closed = true
	return errors.Join(errs...)
}

func (r *Rack) send(e Event) error {
	msg, err := e.Message()
	if err != nil {
		return err
	}
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.sender(msg)
}

// emit sends from a scheduled callback and logs failures
func (r *Rack) emit(e Event) {
	if err := r.send(e); errors.Is(err, ErrClosed) {
		return
	} else if err != nil {
		logSendError(e, err)
		return
	}
	if e.Type == NoteOn {
		debug.LogEvery(32, "midi", "note on ch=%d key=%s", e.Channel+1, pitch.Pitch(e.Note))
	}
}
