package transport

import (
	"sync"
	"time"
)

// ManualSource is a Source driven by its host: nothing ticks until Fire is
// called. Timestamps start at Origin and advance by the interval, the same
// way TimerSource computes them.
type ManualSource struct {
	Origin time.Time

	mu      sync.Mutex
	current *manualHandle
}

type manualHandle struct {
	mu        sync.Mutex
	interval  time.Duration
	next      time.Time
	fn        func(time.Time)
	cancelled bool
}

func (s *ManualSource) Schedule(interval time.Duration, fn func(at time.Time)) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.Origin
	if s.current != nil {
		// A restart continues the clock instead of going back in time
		s.current.mu.Lock()
		next = s.current.next
		s.current.mu.Unlock()
	}
	h := &manualHandle{interval: interval, next: next, fn: fn}
	s.current = h
	return h
}

// Fire runs one tick of the most recent schedule. It returns false when there
// is none or it was cancelled.
func (s *ManualSource) Fire() bool {
	s.mu.Lock()
	h := s.current
	s.mu.Unlock()
	if h == nil {
		return false
	}

	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return false
	}
	at := h.next
	h.next = h.next.Add(h.interval)
	fn := h.fn
	h.mu.Unlock()

	fn(at)
	return true
}

func (h *manualHandle) SetInterval(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.interval = d
}

func (h *manualHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled = true
}
