// Package alert holds user-visible notifications raised by the stores and
// loaders, such as truncation warnings and fetch failures.
package alert

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/snapshot"
)

// Level is the severity of an alert.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Alert is a single notification.
type Alert struct {
	// ID identifies the alert. Add assigns a random UUID when empty.
	ID string

	Message string
	Level   Level

	// ExpireAfter closes the alert automatically. Zero keeps it open until
	// Close or Reset.
	ExpireAfter time.Duration

	// NoDuplicates drops the alert if an open alert has the same ID, or the
	// same message and level.
	NoDuplicates bool

	// CreatedAt is set by Add.
	CreatedAt time.Time
}

func (a Alert) duplicates(b Alert) bool {
	if a.ID != "" && a.ID == b.ID {
		return true
	}
	return a.Message == b.Message && a.Level == b.Level
}

// State is an immutable snapshot of the open alerts.
type State struct {
	alerts []Alert
}

// Len returns the number of open alerts.
func (s *State) Len() int {
	return len(s.alerts)
}

// All returns the open alerts, oldest first.
func (s *State) All() []Alert {
	return slices.Clone(s.alerts)
}

// Store keeps the list of open alerts.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Identity: IDs are unique among open alerts. Adding an alert whose ID
//     is already open replaces it, along with its pending expiry.
//   - Notification: Add and Reset always notify, even when a duplicate was
//     dropped. Close notifies only when the alert was open.
type Store struct {
	snap   *snapshot.Store[*State]
	logger observe.Logger
	now    func() time.Time

	mu     sync.Mutex
	seq    uint64
	timers map[string]expiry
}

// expiry is the pending auto-close of one alert. seq tells a timer that
// already fired apart from the one that replaced it.
type expiry struct {
	timer *time.Timer
	seq   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Default: no-op.
func WithLogger(l observe.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty alert store.
func New(opts ...Option) *Store {
	s := &Store{
		snap:   snapshot.New(&State{}),
		logger: observe.NopLogger(),
		now:    time.Now,
		timers: map[string]expiry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add opens an alert and returns its ID. When a is dropped as a duplicate,
// the ID of the alert already open is returned.
func (s *Store) Add(ctx context.Context, a Alert) string {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Level == "" {
		a.Level = LevelInfo
	}
	a.CreatedAt = s.now()

	existing := ""
	added := false
	s.snap.Update(func(cur *State) *State {
		if a.NoDuplicates {
			if i := slices.IndexFunc(cur.alerts, a.duplicates); i >= 0 {
				existing = cur.alerts[i].ID
				return cur
			}
		}
		added = true
		next := make([]Alert, 0, len(cur.alerts)+1)
		for _, open := range cur.alerts {
			if open.ID != a.ID {
				next = append(next, open)
			}
		}
		return &State{alerts: append(next, a)}
	})
	if !added {
		return existing
	}

	id := a.ID
	s.mu.Lock()
	if old, ok := s.timers[id]; ok {
		old.timer.Stop()
		delete(s.timers, id)
	}
	if a.ExpireAfter > 0 {
		s.seq++
		seq := s.seq
		s.timers[id] = expiry{
			timer: time.AfterFunc(a.ExpireAfter, func() { s.expire(id, seq) }),
			seq:   seq,
		}
	}
	s.mu.Unlock()

	log := s.logger.WithStore(observe.Meta{Store: "alert", Op: "add"})
	log.Debug(ctx, "alert added", observe.F("alert_id", a.ID), observe.F("alert_level", string(a.Level)))
	return a.ID
}

// Close removes the alert with the given ID. It reports whether an alert
// was removed.
func (s *Store) Close(ctx context.Context, id string) bool {
	s.mu.Lock()
	if e, ok := s.timers[id]; ok {
		e.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if !slices.ContainsFunc(s.snap.State().alerts, func(a Alert) bool { return a.ID == id }) {
		return false
	}

	removed := false
	s.snap.Update(func(cur *State) *State {
		i := slices.IndexFunc(cur.alerts, func(a Alert) bool { return a.ID == id })
		if i < 0 {
			return cur
		}
		removed = true
		return &State{alerts: slices.Delete(slices.Clone(cur.alerts), i, i+1)}
	})

	if removed {
		s.logger.WithStore(observe.Meta{Store: "alert", Op: "close"}).
			Debug(ctx, "alert closed", observe.F("alert_id", id))
	}
	return removed
}

// expire closes id if seq is still its pending expiry. A timer that fired
// after its alert was replaced finds a different seq and does nothing.
func (s *Store) expire(id string, seq uint64) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok || e.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	s.Close(context.Background(), id)
}

// Reset closes every alert and cancels pending expiries.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.snap.Set(&State{})
	s.logger.WithStore(observe.Meta{Store: "alert", Op: "reset"}).Debug(ctx, "alerts reset")
}

// State returns the current snapshot. The pointer is stable until the
// open alerts change.
func (s *Store) State() *State {
	return s.snap.State()
}

// Alerts returns the open alerts, oldest first.
func (s *Store) Alerts() []Alert {
	return s.snap.State().All()
}

// Subscribe registers fn to run after every change.
func (s *Store) Subscribe(fn func(*State)) (unsubscribe func()) {
	return s.snap.Subscribe(fn)
}
