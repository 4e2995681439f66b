package loader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/query"
)

// IssueFetcher runs an issue list query against the backend.
// *api.Client implements it.
type IssueFetcher interface {
	FetchIssues(ctx context.Context, org string, q query.Query) (issuecache.Entry, error)
}

// IssueLoader is a read-through loader for one organization's issue lists.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent Loads of equivalent
//     queries share one fetch, run with the context of the first caller.
//   - Ordering: each fetch takes a ticket when it starts. A result is saved
//     only if its ticket is newer than the last one saved for that query
//     and the cache generation is unchanged. Dropped results are still
//     returned to the caller.
//   - Errors: fetch errors are returned wrapped and never cached.
type IssueLoader struct {
	org     string
	cache   *issuecache.Store
	fetcher IssueFetcher
	opts    options

	group   singleflight.Group
	tickets atomic.Uint64

	mu         sync.Mutex
	applied    map[string]uint64
	appliedGen uint64
}

// NewIssueLoader creates a loader that saves into cache.
func NewIssueLoader(org string, cache *issuecache.Store, fetcher IssueFetcher, opts ...Option) (*IssueLoader, error) {
	if cache == nil {
		return nil, ErrMissingStore
	}
	if fetcher == nil {
		return nil, ErrMissingFetcher
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &IssueLoader{
		org:     org,
		cache:   cache,
		fetcher: fetcher,
		opts:    o,
		applied: map[string]uint64{},
	}, nil
}

// Load returns the entry for q, from the cache when present. cached
// reports whether the fetch was skipped.
func (l *IssueLoader) Load(ctx context.Context, q query.Query) (entry issuecache.Entry, cached bool, err error) {
	if entry, ok := l.cache.GetFromCache(ctx, q); ok {
		return entry, true, nil
	}

	key := query.Normalize(q)
	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.fetch(ctx, key, q)
	})
	if err != nil {
		return issuecache.Entry{}, false, err
	}
	return v.(issuecache.Entry), false, nil
}

// Refresh fetches q even when it is cached. It does not join an in-flight
// Load, and its result wins over any Load that started before it.
func (l *IssueLoader) Refresh(ctx context.Context, q query.Query) (issuecache.Entry, error) {
	return l.fetch(ctx, query.Normalize(q), q)
}

func (l *IssueLoader) fetch(ctx context.Context, key string, q query.Query) (issuecache.Entry, error) {
	generation := l.cache.State().Generation()
	ticket := l.tickets.Add(1)
	meta := observe.Meta{Store: "issuecache", Op: "fetch", Key: query.Hash(q)}

	var entry issuecache.Entry
	err := l.opts.policy.Execute(ctx, func(ctx context.Context) error {
		return l.opts.middleware.Run(ctx, meta, func(ctx context.Context) error {
			var err error
			entry, err = l.fetcher.FetchIssues(ctx, l.org, q)
			return err
		})
	})
	if err != nil {
		return issuecache.Entry{}, fmt.Errorf("loader: fetch issues: %w", err)
	}

	saved := l.cache.SaveIf(ctx, q, entry, func(st *issuecache.State) bool {
		return st.Generation() == generation && l.accept(st.Generation(), key, ticket)
	})
	if !saved {
		l.opts.logger.WithStore(meta).Debug(ctx, "stale issue list dropped",
			observe.F("ticket", ticket),
			observe.F("generation", generation),
		)
	}
	return entry, nil
}

// accept records ticket as the newest saved for key. It runs under the
// cache lock, so it must not call into the cache.
func (l *IssueLoader) accept(generation uint64, key string, ticket uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if generation != l.appliedGen {
		clear(l.applied)
		l.appliedGen = generation
	}
	if ticket <= l.applied[key] {
		return false
	}
	l.applied[key] = ticket
	return true
}
