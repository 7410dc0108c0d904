package transport

import (
	"sync"
	"time"

	"gridseq/debug"
)

// Source schedules a periodic callback. fn receives the time the tick was
// scheduled for, which downstream consumers use instead of time.Now().
type Source interface {
	Schedule(interval time.Duration, fn func(at time.Time)) Handle
}

// Handle controls one schedule started by a Source.
type Handle interface {
	// SetInterval changes the spacing of ticks after the next one.
	SetInterval(d time.Duration)
	// Cancel stops the schedule. No callback starts after Cancel returns.
	Cancel()
}

// TimerSource runs each schedule on its own goroutine using time.Timer.
// Tick times are accumulated from the first tick so timer latency does not
// drift the grid.
type TimerSource struct {
	// Lead delays the first tick so voices get the timestamp ahead of time.
	Lead time.Duration
}

func (s TimerSource) Schedule(interval time.Duration, fn func(at time.Time)) Handle {
	h := &timerHandle{
		interval: interval,
		quit:     make(chan struct{}),
		change:   make(chan time.Duration, 1),
	}
	go h.run(time.Now().Add(s.Lead), fn)
	return h
}

type timerHandle struct {
	interval time.Duration
	quit     chan struct{}
	change   chan time.Duration
	once     sync.Once
	mu       sync.Mutex // held while fn runs so Cancel waits for it
}

func (h *timerHandle) run(next time.Time, fn func(at time.Time)) {
	interval := h.interval
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-h.quit:
			return
		case d := <-h.change:
			interval = d
		case <-timer.C:
			h.mu.Lock()
			select {
			case <-h.quit:
				h.mu.Unlock()
				return
			default:
			}
			fn(next)
			h.mu.Unlock()

			next = catchUp(next.Add(interval), interval, time.Now())
			timer.Reset(time.Until(next))
		}
	}
}

func (h *timerHandle) SetInterval(d time.Duration) {
	// Replace a pending change that the loop has not picked up yet
	select {
	case <-h.change:
	default:
	}
	select {
	case h.change <- d:
	default:
	}
}

func (h *timerHandle) Cancel() {
	h.once.Do(func() {
		h.mu.Lock()
		close(h.quit)
		h.mu.Unlock()
	})
}

// catchUp moves next forward by whole intervals when the loop fell more than
// one interval behind now, so a stall skips the missed steps instead of
// replaying them back to back. The returned time stays on the tick grid.
func catchUp(next time.Time, interval time.Duration, now time.Time) time.Time {
	behind := now.Sub(next)
	if interval <= 0 || behind < interval {
		return next
	}
	missed := int64(behind / interval)
	debug.Log("transport", "behind %s, skipping %d ticks", behind, missed)
	return next.Add(time.Duration(missed) * interval)
}
