package album

import (
	"errors"
	"sync"
)

// ErrSuperseded is returned to the caller of a request whose result arrived
// after a newer request for the same key was issued. The result is dropped.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Phase is the lifecycle of one logical load.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseInFlight:
		return "in-flight"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Load is the committed state for a key.
type Load[T any] struct {
	Phase Phase
	Value T
	Err   error
}

// Ticket identifies one issued request. Only the ticket holding the latest
// generation for its key may commit.
type Ticket struct {
	Key string
	gen uint64
}

type slot[T any] struct {
	gen  uint64
	load Load[T]
}

// Tracker keeps a per-key generation counter so that, for each key, only the
// most recently issued request commits its result.
type Tracker[T any] struct {
	mu    sync.Mutex
	slots map[string]*slot[T]
}

// NewTracker returns an empty Tracker.
func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{slots: make(map[string]*slot[T])}
}

// Begin issues a new request for key, superseding any in flight, and moves
// the key to PhaseInFlight.
func (t *Tracker[T]) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slot(key)
	s.gen++
	s.load.Phase = PhaseInFlight
	s.load.Err = nil
	return Ticket{Key: key, gen: s.gen}
}

// Resolve commits value or err for tk. It reports false, committing nothing,
// when a newer request for the same key has been issued since.
func (t *Tracker[T]) Resolve(tk Ticket, value T, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slot(tk.Key)
	if s.gen != tk.gen {
		return false
	}
	if err != nil {
		var zero T
		s.load = Load[T]{Phase: PhaseFailed, Value: zero, Err: err}
	} else {
		s.load = Load[T]{Phase: PhaseSucceeded, Value: value}
	}
	return true
}

// Get returns the committed state for key.
func (t *Tracker[T]) Get(key string) Load[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.slots[key]; ok {
		return s.load
	}
	return Load[T]{}
}

// Reset returns key to PhaseIdle and invalidates any request in flight.
func (t *Tracker[T]) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slot(key)
	s.gen++
	s.load = Load[T]{}
}

func (t *Tracker[T]) slot(key string) *slot[T] {
	s, ok := t.slots[key]
	if !ok {
		s = &slot[T]{}
		t.slots[key] = s
	}
	return s
}
