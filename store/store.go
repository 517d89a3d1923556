package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/planfoundry/compliance-checker/core"
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventModelLoaded EventType = iota
)

// Event is emitted to subscribers when a new model snapshot is installed.
type Event struct {
	Type    EventType
	RunID   string
	Spaces  int
	Storeys int
}

// Snapshot is one loaded model together with its derived evaluation. The
// accessor and evaluation always belong to the same underlying model;
// replacing the snapshot discards both so no derived state outlives the
// model it was computed from.
type Snapshot struct {
	Accessor   core.ModelAccessor
	Evaluation *core.Evaluation
	Source     string
	LoadedAt   time.Time
}

// Store is an in-memory, thread-safe holder for the current model snapshot.
type Store struct {
	mu sync.RWMutex

	current *Snapshot
	subs    []func(Event)
}

// NewStore constructs an empty store with no model loaded.
func NewStore() *Store {
	return &Store{}
}

// Load evaluates the accessor and installs the result as the current
// snapshot, replacing any previous one. source is a caller-chosen label for
// diagnostics (a file path or request ID).
func (s *Store) Load(acc core.ModelAccessor, source string) (*Snapshot, error) {
	ev, err := core.Evaluate(acc)
	if err != nil {
		return nil, fmt.Errorf("store: evaluate model: %w", err)
	}

	snap := &Snapshot{
		Accessor:   acc,
		Evaluation: ev,
		Source:     source,
		LoadedAt:   time.Now().UTC(),
	}

	storeys := make(map[string]struct{})
	for _, r := range ev.Records {
		storeys[r.Storey] = struct{}{}
	}
	event := Event{
		Type:    EventModelLoaded,
		RunID:   ev.RunID,
		Spaces:  len(ev.Records),
		Storeys: len(storeys),
	}

	s.mu.Lock()
	s.current = snap
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return snap, nil
}

// Current returns the active snapshot, or false when no model is loaded.
func (s *Store) Current() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}
