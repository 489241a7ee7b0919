package projtree

import (
	"slices"
	"sync"

	"mimi-cli/internal/model"

	"github.com/rs/zerolog"
)

// Outcome describes what a dispatched action did.
type Outcome struct {
	// Applied is false when the action fell through to the no-op path
	// (unknown project, unknown key, unknown kind).
	Applied bool `json:"applied"`
}

// Listener is called after every dispatch, outside the store lock, in
// registration order. next is the listener's own copy.
type Listener func(a Action, out Outcome, next State)

type subscription struct {
	id int
	l  Listener
}

// Store owns one State and serialises transitions on it.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners []subscription
	nextID    int
	log       zerolog.Logger
}

type Option func(*Store)

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithState seeds the store, e.g. from a persisted snapshot.
func WithState(st State) Option {
	return func(s *Store) {
		if st != nil {
			s.state = st
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		state:     State{},
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dispatch applies a and notifies listeners.
func (s *Store) Dispatch(a Action) Outcome {
	s.mu.Lock()
	next, applied := apply(s.state, a)
	s.state = next
	ls := slices.Clone(s.listeners)
	s.mu.Unlock()

	out := Outcome{Applied: applied}
	s.log.Debug().
		Str("kind", string(a.Kind)).
		Str("project", a.ProjectID).
		Bool("applied", applied).
		Msg("dispatch")
	for _, sub := range ls {
		sub.l(a, out, next.Clone())
	}
	return out
}

// Subscribe registers l and returns a func that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, l: l})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
		s.mu.Unlock()
	}
}

// State returns a deep copy of the current mapping.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Project returns a deep copy of one project's state.
func (s *Store) Project(id string) (model.ProjectState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, ok := s.state[id]
	if !ok {
		return model.ProjectState{}, false
	}
	return ps.Clone(), true
}

// Replace swaps the whole state, e.g. after replaying the action log.
// Listeners are not notified.
func (s *Store) Replace(st State) {
	if st == nil {
		st = State{}
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
