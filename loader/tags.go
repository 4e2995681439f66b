package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonwraymond/liststore/alert"
	"github.com/jonwraymond/liststore/api"
	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/tags"
)

// LoadFailedMessage is the error alert raised when tags cannot be fetched.
const LoadFailedMessage = "Unable to load tags"

// TagFetcher lists an organization's tag keys. *api.Client implements it.
type TagFetcher interface {
	FetchOrganizationTags(ctx context.Context, org string, sel api.Selection) ([]tags.Tag, error)
}

// TagLoader loads organization tags into a tag store.
type TagLoader struct {
	store   *tags.Store
	alerts  tags.Alerter
	fetcher TagFetcher
	opts    options

	// mu orders Reset and LoadTags across calls. seq identifies the
	// newest call.
	mu  sync.Mutex
	seq uint64
}

// NewTagLoader creates a TagLoader. alerts may be nil.
func NewTagLoader(store *tags.Store, alerts tags.Alerter, fetcher TagFetcher, opts ...Option) (*TagLoader, error) {
	if store == nil {
		return nil, ErrMissingStore
	}
	if fetcher == nil {
		return nil, ErrMissingFetcher
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TagLoader{store: store, alerts: alerts, fetcher: fetcher, opts: o}, nil
}

// LoadOrganizationTags empties the store, fetches the tags for sel and
// loads them. When the fetch fails an error alert is raised, unless ctx
// was canceled, and the error is returned. A load superseded by a later
// call is dropped.
func (l *TagLoader) LoadOrganizationTags(ctx context.Context, org string, sel api.Selection) error {
	l.mu.Lock()
	l.seq++
	n := l.seq
	l.store.Reset(ctx)
	l.mu.Unlock()

	meta := observe.Meta{Store: "tags", Op: "fetch"}
	var loaded []tags.Tag
	err := l.opts.policy.Execute(ctx, func(ctx context.Context) error {
		return l.opts.middleware.Run(ctx, meta, func(ctx context.Context) error {
			var err error
			loaded, err = l.fetcher.FetchOrganizationTags(ctx, org, sel)
			return err
		})
	})
	if err != nil {
		if l.alerts != nil && !errors.Is(err, context.Canceled) {
			l.alerts.Add(ctx, alert.Alert{
				Message:      LoadFailedMessage,
				Level:        alert.LevelError,
				NoDuplicates: true,
			})
		}
		return fmt.Errorf("loader: load tags: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq != n {
		l.opts.logger.WithStore(meta).Debug(ctx, "superseded tag load dropped",
			observe.F("org", org),
		)
		return nil
	}
	l.store.LoadTags(ctx, loaded)
	return nil
}
