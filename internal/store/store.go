package store

import (
	"sync"
	"time"
)

// Store owns State and its subscribers.
type Store struct {
	mu     sync.Mutex
	state  State
	now    func() time.Time
	nextID int
	subs   map[int]func(State)
	order  []int
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used for the default publication year.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store holding InitialState.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now, subs: make(map[int]func(State))}
	for _, opt := range opts {
		opt(s)
	}
	s.state = InitialState(s.now())
	return s
}

// GetState returns a copy of the current state.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies action and notifies subscribers in subscription order.
// Subscribers may call GetState or Dispatch.
func (s *Store) Dispatch(action Action) State {
	if reset, ok := action.(ResetBook); ok && reset.Year == 0 {
		reset.Year = s.now().Year()
		action = reset
	}

	s.mu.Lock()
	next := action.Reduce(s.state.clone())
	next.Version = s.state.Version + 1
	s.state = next
	listeners := make([]func(State), 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.subs[id])
	}
	snapshot := next.clone()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.clone())
	}
	return snapshot
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, existing := range s.order {
				if existing == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}
