// Package snapshot holds an immutable state value and notifies subscribers
// whenever it is replaced.
package snapshot

import "sync"

// Store holds the current snapshot of type S.
//
// Contract:
//   - Identity: State returns the value last published. When S is a pointer
//     or another reference type, two calls with no mutation in between
//     return the identical reference.
//   - Notification: every call to Set or Update notifies all subscribers,
//     even when the new value equals the old one. UpdateIf notifies only
//     when it applies.
//   - Concurrency: safe for concurrent use. Callbacks run synchronously in
//     the mutating goroutine after the internal lock is released, so a
//     callback may call back into the store. Under concurrent mutation
//     callbacks can arrive out of order and a callback may receive a value
//     that is already stale. Subscribers that keep a copy must re-read State
//     rather than trust the argument.
//   - Ownership: snapshots are shared; callers must not mutate them.
type Store[S any] struct {
	mu     sync.Mutex
	state  S
	nextID uint64
	subs   []subscription[S]
}

type subscription[S any] struct {
	id uint64
	fn func(S)
}

// New creates a store holding initial.
func New[S any](initial S) *Store[S] {
	return &Store[S]{state: initial}
}

// State returns the current snapshot.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the snapshot and notifies subscribers.
func (s *Store[S]) Set(next S) {
	s.Update(func(S) S { return next })
}

// Update derives the next snapshot from the current one and notifies
// subscribers. fn runs under the store lock and must not call back into s.
func (s *Store[S]) Update(fn func(S) S) {
	s.mu.Lock()
	s.state = fn(s.state)
	state := s.state
	subs := make([]subscription[S], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	s.emit(subs, state)
}

// UpdateIf is Update for mutations that may be refused. When fn reports
// false the snapshot is left untouched and nobody is notified.
func (s *Store[S]) UpdateIf(fn func(S) (S, bool)) bool {
	s.mu.Lock()
	next, ok := fn(s.state)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	subs := make([]subscription[S], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	s.emit(subs, next)
	return true
}

// Subscribe registers fn to be called after every mutation. fn receives the
// snapshot its mutation produced, which is not necessarily the newest one
// when mutations race; read State for the current value. The returned
// function removes the subscription; calling it more than once is a no-op.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[S]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store[S]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store[S]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// emit is the single notification point for every mutation.
func (s *Store[S]) emit(subs []subscription[S], state S) {
	for _, sub := range subs {
		sub.fn(state)
	}
}
