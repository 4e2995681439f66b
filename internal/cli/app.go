package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/liststore/alert"
	"github.com/jonwraymond/liststore/api"
	"github.com/jonwraymond/liststore/config"
	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/loader"
	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/resilience"
	"github.com/jonwraymond/liststore/tags"
)

// app is the object graph shared by every command.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	logger   observe.Logger

	client *api.Client
	policy *resilience.Policy
	alerts *alert.Store
	tags   *tags.Store
	issues *issuecache.Store

	tagLoader   *loader.TagLoader
	issueLoader *loader.IssueLoader
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Org != "" {
		cfg.API.Org = opts.Org
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, err
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}
	logger := obs.Logger()

	tokens, err := tokenSource(cfg.API)
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}
	client, err := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithTokenSource(tokens),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}

	a := &app{
		cfg:      cfg,
		observer: obs,
		logger:   logger,
		client:   client,
		policy:   fetchPolicy(cfg, logger),
		alerts:   alert.New(alert.WithLogger(logger)),
		issues:   issuecache.New(issuecache.WithLogger(logger), issuecache.WithMetrics(metrics)),
	}
	a.tags = tags.New(
		tags.WithMax(cfg.Tags.Max),
		tags.WithAlerter(a.alerts),
		tags.WithLogger(logger),
		tags.WithMetrics(metrics),
	)

	loaderOpts := []loader.Option{
		loader.WithPolicy(a.policy),
		loader.WithMiddleware(mw),
		loader.WithLogger(logger),
	}
	if a.tagLoader, err = loader.NewTagLoader(a.tags, a.alerts, client, loaderOpts...); err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}
	if a.issueLoader, err = loader.NewIssueLoader(cfg.API.Org, a.issues, client, loaderOpts...); err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}
	return a, nil
}

func (a *app) close(ctx context.Context) error {
	a.alerts.Reset(ctx)
	return a.observer.Shutdown(ctx)
}

// tokenSource prefers a static token and falls back to minted JWTs.
// With neither configured requests are sent unauthenticated.
func tokenSource(cfg config.APIConfig) (api.TokenSource, error) {
	switch {
	case cfg.Token != "":
		return api.StaticToken(cfg.Token), nil
	case cfg.JWT.Secret != "":
		return api.NewJWTSource(api.JWTConfig{
			Secret:   []byte(cfg.JWT.Secret),
			Issuer:   cfg.JWT.Issuer,
			Subject:  cfg.JWT.Subject,
			Audience: cfg.JWT.Audience,
			TTL:      cfg.JWT.TTL,
		})
	default:
		return nil, nil
	}
}

func fetchPolicy(cfg *config.Config, logger observe.Logger) *resilience.Policy {
	opts := []resilience.PolicyOption{
		resilience.WithRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Jitter:       cfg.Retry.Jitter,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Warn(context.Background(), "retrying fetch",
					observe.F("attempt", attempt),
					observe.F("delay_ms", delay.Milliseconds()),
					observe.F("error", err),
				)
			},
		}),
		resilience.WithAttemptTimeout(cfg.Retry.AttemptTimeout),
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
			MaxFailures: cfg.Breaker.MaxFailures,
			CoolDown:    cfg.Breaker.CoolDown,
			OnStateChange: func(from, to resilience.BreakerState) {
				logger.Warn(context.Background(), "fetch breaker state changed",
					observe.F("from", from.String()),
					observe.F("to", to.String()),
				)
			},
		})))
	}
	return resilience.NewPolicy(opts...)
}

func writeJSON(w io.Writer, pretty bool, v any) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// alertView is the JSON form of an open alert.
type alertView struct {
	ID      string      `json:"id"`
	Level   alert.Level `json:"level"`
	Message string      `json:"message"`
}

func openAlerts(s *alert.Store) []alertView {
	out := []alertView{}
	for _, a := range s.Alerts() {
		out = append(out, alertView{ID: a.ID, Level: a.Level, Message: a.Message})
	}
	return out
}
