// Package state provides the application's single state container.
//
// Every Dispatch is reduced to completion before the next action is
// admitted. Listeners run after the new state is published and may
// dispatch; such actions are queued behind the current one rather than
// nested inside it.
package state

import (
	"io"
	"log/slog"
	"sync"

	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/reducer"
)

// Listener observes a completed transition.
type Listener func(prev, next reducer.AppState, a action.Action)

// Reducer computes the next state.
type Reducer func(reducer.AppState, action.Action) reducer.AppState

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store owns the current AppState.
type Store struct {
	mu        sync.Mutex
	state     reducer.AppState
	reduce    Reducer
	listeners []listenerEntry
	nextID    uint64
	queue     []action.Action
	draining  bool
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithInitialState overrides the startup state.
func WithInitialState(s reducer.AppState) Option {
	return func(st *Store) { st.state = s }
}

// WithReducer replaces the root reducer.
func WithReducer(r Reducer) Option {
	return func(st *Store) { st.reduce = r }
}

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(l *slog.Logger) Option {
	return func(st *Store) { st.logger = l }
}

// New creates a Store holding reducer.InitialState().
func New(opts ...Option) *Store {
	s := &Store{
		state:  reducer.InitialState(),
		reduce: reducer.Root,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Store) State() reducer.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispatch submits a. If no other dispatch is draining the queue, a (and
// anything queued while it runs) is processed before Dispatch returns.
// Otherwise a is processed by the goroutine already draining.
func (s *Store) Dispatch(a action.Action) {
	if a == nil {
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, a)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]

		prev := s.state
		s.state = s.reduce(prev, next)
		cur := s.state
		listeners := make([]listenerEntry, len(s.listeners))
		copy(listeners, s.listeners)
		s.mu.Unlock()

		s.logger.Debug("action reduced", "type", next.Type())
		for _, e := range listeners {
			s.notify(e, prev, cur, next)
		}

		s.mu.Lock()
	}

	s.draining = false
	s.queue = nil
	s.mu.Unlock()
}

// notify calls one listener. A panicking listener is logged and skipped so
// the drain loop always finishes and later dispatches are still reduced.
func (s *Store) notify(e listenerEntry, prev, next reducer.AppState, a action.Action) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panicked", "type", a.Type(), "panic", r)
		}
	}()
	e.fn(prev, next, a)
}
