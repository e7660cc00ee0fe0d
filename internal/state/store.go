package state

import (
	"sync"
)

// Store serializes transitions of the shared State.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers []chan struct{}
}

// Dispatch applies ev atomically and returns the resulting state. When the
// transition is rejected the stored state is untouched.
func (s *Store) Dispatch(ev Event) (State, error) {
	s.mu.Lock()
	next, err := s.state.Apply(ev)
	if err != nil {
		current := s.state
		s.mu.Unlock()
		return current, err
	}
	s.state = next
	subs := s.subscribers
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return next, nil
}

// Snapshot returns the current state. The catalog slice is copied; the cart
// pointer is shared and must be treated as read-only.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.Catalog = cloneProducts(s.state.Catalog)
	return snap
}

// Subscribe returns a channel signalled after each accepted transition.
// Signals coalesce: a slow reader sees at least one pending signal, not one
// per transition.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}
