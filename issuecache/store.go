package issuecache

import (
	"context"
	"maps"
	"slices"

	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/query"
	"github.com/jonwraymond/liststore/snapshot"
)

const storeName = "issuecache"

// State is an immutable snapshot of the cache table.
type State struct {
	entries    map[string]Entry
	generation uint64
}

// Len returns the number of cached queries.
func (s *State) Len() int {
	return len(s.entries)
}

// Get returns the entry stored under a canonical key.
func (s *State) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Keys returns the canonical keys in sorted order.
func (s *State) Keys() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

// Generation counts the resets that led to this snapshot. Loaders use it to
// discard results of fetches that started before a reset.
func (s *State) Generation() uint64 {
	return s.generation
}

// Store is the issue list cache.
//
// Contract:
//   - Concurrency: safe for concurrent use; subscribers are notified
//     synchronously after each Save or Reset.
//   - Errors: no operation fails. A miss is reported as ok=false.
//   - Ownership: entries are copied on Save; returned entries and snapshots
//     are shared and must not be mutated.
type Store struct {
	snap    *snapshot.Store[*State]
	logger  observe.Logger
	metrics observe.Metrics
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

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observe.Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Store {
	s := &Store{
		snap:    snapshot.New(&State{entries: map[string]Entry{}}),
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores entry under the canonical key of q, replacing any previous
// entry for an equivalent query.
func (s *Store) Save(ctx context.Context, q query.Query, entry Entry) {
	s.SaveIf(ctx, q, entry, nil)
}

// SaveIf is Save guarded by cond, which sees the snapshot the entry would
// be written into. cond runs under the store lock and must not call back
// into the store. A nil cond always accepts. Refused saves leave the cache
// untouched and do not notify.
func (s *Store) SaveIf(ctx context.Context, q query.Query, entry Entry, cond func(*State) bool) bool {
	key := query.Normalize(q)
	entry = entry.clone()

	saved := s.snap.UpdateIf(func(cur *State) (*State, bool) {
		if cond != nil && !cond(cur) {
			return cur, false
		}
		next := &State{
			entries:    make(map[string]Entry, len(cur.entries)+1),
			generation: cur.generation,
		}
		maps.Copy(next.entries, cur.entries)
		next.entries[key] = entry
		return next, true
	})

	meta := observe.Meta{Store: storeName, Op: "save", Key: query.Hash(q)}
	if !saved {
		s.logger.WithStore(meta).Debug(ctx, "issue list save refused")
		return false
	}
	s.metrics.RecordMutation(ctx, meta)
	s.logger.WithStore(meta).Debug(ctx, "issue list cached",
		observe.F("groups", len(entry.Groups)),
		observe.F("query_count", entry.QueryCount),
	)
	return true
}

// GetFromCache returns the entry saved for a query equivalent to q.
func (s *Store) GetFromCache(ctx context.Context, q query.Query) (Entry, bool) {
	entry, ok := s.snap.State().Get(query.Normalize(q))
	s.metrics.RecordLookup(ctx, observe.Meta{Store: storeName, Op: "get"}, ok)
	return entry, ok
}

// Reset drops every entry. Subscribers are notified even when the cache
// was already empty.
func (s *Store) Reset(ctx context.Context) {
	s.snap.Update(func(cur *State) *State {
		return &State{entries: map[string]Entry{}, generation: cur.generation + 1}
	})

	meta := observe.Meta{Store: storeName, Op: "reset"}
	s.metrics.RecordMutation(ctx, meta)
	s.logger.WithStore(meta).Debug(ctx, "issue list cache reset")
}

// State returns the current snapshot. The pointer is stable until the next
// Save or Reset.
func (s *Store) State() *State {
	return s.snap.State()
}

// Subscribe registers fn to run after every Save and Reset.
func (s *Store) Subscribe(fn func(*State)) (unsubscribe func()) {
	return s.snap.Subscribe(fn)
}
