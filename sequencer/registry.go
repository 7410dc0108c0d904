package sequencer

// Registry is the ordered list of tracks and which one is selected.
// It is not safe for concurrent use; the Manager guards it.
type Registry struct {
	tracks   []*Track
	selected int // track id, 0 when empty
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// nextID returns max existing id + 1, or 1 when empty.
func (r *Registry) nextID() int {
	id := 0
	for _, t := range r.tracks {
		if t.ID > id {
			id = t.ID
		}
	}
	return id + 1
}

// Add appends a track with a rows x length Off matrix and selects it.
func (r *Registry) Add(binding Binding, rows, length int) *Track {
	t := NewTrack(r.nextID(), binding, rows, length)
	r.tracks = append(r.tracks, t)
	r.selected = t.ID
	return t
}

// Get finds a track by id.
func (r *Registry) Get(id int) (*Track, bool) {
	for _, t := range r.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Select makes id the selected track. Unknown ids are ignored.
func (r *Registry) Select(id int) bool {
	if _, ok := r.Get(id); !ok {
		return false
	}
	r.selected = id
	return true
}

// Selected returns the selected track id, 0 when there are no tracks.
func (r *Registry) Selected() int {
	return r.selected
}

// UpdateSettings replaces the instrument settings of a track. Unknown ids are
// ignored.
func (r *Registry) UpdateSettings(id int, s Settings) bool {
	t, ok := r.Get(id)
	if !ok {
		return false
	}
	t.Instrument.Settings = s
	return true
}

// Tracks returns the tracks in insertion order.
func (r *Registry) Tracks() []*Track {
	out := make([]*Track, len(r.tracks))
	copy(out, r.tracks)
	return out
}

// Len returns the number of tracks.
func (r *Registry) Len() int {
	return len(r.tracks)
}

// Snapshot copies every track for readers outside the lock.
func (r *Registry) Snapshot() []TrackSnapshot {
	out := make([]TrackSnapshot, len(r.tracks))
	for i, t := range r.tracks {
		out[i] = t.Snapshot(t.ID == r.selected)
	}
	return out
}
