package speech

import "sync"

// Position is a snapshot of playback progress. Index is the unit
// currently being spoken, or the next one to speak; it equals Total
// once the document has finished.
type Position struct {
	Index int
	Total int
}

// Ratio returns progress in [0, 1]. A document with no units has
// ratio 0.
func (p Position) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	r := float64(p.Index) / float64(p.Total)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Tracker is the mutable playback position shared between the
// controller, the UI, and bookmark persistence. All methods are safe
// for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	pos      Position
	watchers []func(Position)
}

// NewTracker returns a tracker at position 0/0.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Watch registers a callback invoked after every position change, in
// registration order. Callbacks must return quickly and must not call
// back into the playback controller.
func (t *Tracker) Watch(fn func(Position)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchers = append(t.watchers, fn)
}

// Reset sets the position to 0 of total and notifies watchers.
func (t *Tracker) Reset(total int) {
	if total < 0 {
		total = 0
	}
	t.mu.Lock()
	t.pos = Position{Index: 0, Total: total}
	pos, watchers := t.pos, t.watchers
	t.mu.Unlock()
	notify(watchers, pos)
}

// Set moves the index, clamped to [0, Total], and notifies watchers.
func (t *Tracker) Set(index int) {
	t.mu.Lock()
	if index < 0 {
		index = 0
	}
	if index > t.pos.Total {
		index = t.pos.Total
	}
	t.pos.Index = index
	pos, watchers := t.pos, t.watchers
	t.mu.Unlock()
	notify(watchers, pos)
}

// Advance moves the index forward by one, capped at Total, and
// returns the new position.
func (t *Tracker) Advance() Position {
	t.mu.Lock()
	if t.pos.Index < t.pos.Total {
		t.pos.Index++
	}
	pos, watchers := t.pos, t.watchers
	t.mu.Unlock()
	notify(watchers, pos)
	return pos
}

// Snapshot returns the current position.
func (t *Tracker) Snapshot() Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

func notify(watchers []func(Position), pos Position) {
	for _, fn := range watchers {
		fn(pos)
	}
}
