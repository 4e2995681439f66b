// Package tags holds the tag keys available to the current selection.
//
// Loads replace the whole list. Oversized loads are cut to the store limit
// and raise one warning alert per load.
package tags

import (
	"context"
	"time"

	"github.com/jonwraymond/liststore/alert"
	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/snapshot"
)

// MaxTags is the default number of tags a store keeps from a single load.
const MaxTags = 1000

// TruncatedMessage is the warning raised when a load exceeds the limit.
const TruncatedMessage = "You have too many unique tags and some have been truncated"

// Tag is a tag key available for filtering.
type Tag struct {
	Key          string     `json:"key"`
	Name         string     `json:"name"`
	Kind         string     `json:"kind,omitempty"`
	TotalValues  int        `json:"totalValues,omitempty"`
	UniqueValues int        `json:"uniqueValues,omitempty"`
	Values       []TagValue `json:"topValues,omitempty"`
}

// TagValue is one observed value of a tag.
type TagValue struct {
	Value     string    `json:"value"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Alerter receives truncation warnings. *alert.Store implements it.
type Alerter interface {
	Add(ctx context.Context, a alert.Alert) string
}

// State is an immutable snapshot of the loaded tags.
type State struct {
	tags  []Tag
	index map[string]int
}

// Len returns the number of loaded tags.
func (s *State) Len() int {
	return len(s.tags)
}

// Tags returns the loaded tags in load order. The slice is shared and must
// not be modified.
func (s *State) Tags() []Tag {
	return s.tags
}

// Lookup returns the tag with the given key.
func (s *State) Lookup(key string) (Tag, bool) {
	i, ok := s.index[key]
	if !ok {
		return Tag{}, false
	}
	return s.tags[i], true
}

// Store keeps the current tag list.
type Store struct {
	snap    *snapshot.Store[*State]
	max     int
	alerts  Alerter
	logger  observe.Logger
	metrics observe.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMax overrides MaxTags. Non-positive values are ignored.
func WithMax(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithAlerter sets where truncation warnings go. Without one, truncation
// is only logged.
func WithAlerter(a Alerter) Option {
	return func(s *Store) { s.alerts = a }
}

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

// New creates an empty tag store.
func New(opts ...Option) *Store {
	s := &Store{
		snap:    snapshot.New(newState(nil)),
		max:     MaxTags,
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newState(tags []Tag) *State {
	st := &State{tags: tags, index: make(map[string]int, len(tags))}
	for i, t := range tags {
		if _, dup := st.index[t.Key]; !dup {
			st.index[t.Key] = i
		}
	}
	return st
}

// Max returns the store limit.
func (s *Store) Max() int {
	return s.max
}

// LoadTags replaces the store contents with tags. A nil slice loads an
// empty list. When len(tags) exceeds the limit, only the first Max tags are
// kept and a single warning alert is raised.
func (s *Store) LoadTags(ctx context.Context, tags []Tag) {
	kept := tags
	dropped := 0
	if len(tags) > s.max {
		kept = tags[:s.max]
		dropped = len(tags) - s.max
	}
	kept = append(make([]Tag, 0, len(kept)), kept...)

	s.snap.Set(newState(kept))

	meta := observe.Meta{Store: "tags", Op: "load"}
	s.metrics.RecordMutation(ctx, meta)
	log := s.logger.WithStore(meta)

	if dropped > 0 {
		s.metrics.RecordTruncation(ctx, meta, dropped)
		log.Warn(ctx, "tag list truncated", observe.F("received", len(tags)), observe.F("kept", len(kept)))
		if s.alerts != nil {
			s.alerts.Add(ctx, alert.Alert{Message: TruncatedMessage, Level: alert.LevelWarning})
		}
		return
	}
	log.Debug(ctx, "tags loaded", observe.F("count", len(kept)))
}

// Reset clears the store.
func (s *Store) Reset(ctx context.Context) {
	s.snap.Set(newState(nil))
	s.metrics.RecordMutation(ctx, observe.Meta{Store: "tags", Op: "reset"})
}

// State returns the current snapshot. The pointer is stable until the next
// LoadTags or Reset.
func (s *Store) State() *State {
	return s.snap.State()
}

// Tags returns the loaded tags.
func (s *Store) Tags() []Tag {
	return s.snap.State().Tags()
}

// Lookup returns the loaded tag with the given key.
func (s *Store) Lookup(key string) (Tag, bool) {
	return s.snap.State().Lookup(key)
}

// Subscribe registers fn to run after every LoadTags and Reset.
func (s *Store) Subscribe(fn func(*State)) (unsubscribe func()) {
	return s.snap.Subscribe(fn)
}
