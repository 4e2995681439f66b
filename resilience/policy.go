package resilience

import (
	"context"
	"errors"
	"time"
)

// Policy composes breaker, retry and per-attempt timeout around a fetch.
// The zero configuration (NewPolicy with no options) runs op once.
type Policy struct {
	breaker *Breaker
	retry   *RetryConfig
	timeout time.Duration
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// NewPolicy creates a Policy.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithBreaker guards the whole call, retries included, with b.
func WithBreaker(b *Breaker) PolicyOption {
	return func(p *Policy) { p.breaker = b }
}

// WithRetry retries failed attempts.
func WithRetry(cfg RetryConfig) PolicyOption {
	return func(p *Policy) {
		cfg = cfg.withDefaults()
		p.retry = &cfg
	}
}

// WithAttemptTimeout bounds each attempt. Non-positive disables it.
func WithAttemptTimeout(d time.Duration) PolicyOption {
	return func(p *Policy) { p.timeout = d }
}

// Breaker returns the configured breaker, or nil.
func (p *Policy) Breaker() *Breaker {
	return p.breaker
}

// Execute runs op under the policy. op must honor ctx cancellation.
func (p *Policy) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := op
	if p.timeout > 0 {
		attempt = func(ctx context.Context) error {
			return withTimeout(ctx, p.timeout, op)
		}
	}

	call := attempt
	if p.retry != nil {
		cfg := *p.retry
		call = func(ctx context.Context) error {
			return retry(ctx, cfg, attempt)
		}
	}

	if p.breaker == nil {
		return call(ctx)
	}
	if err := p.breaker.Allow(); err != nil {
		return err
	}
	err := call(ctx)
	p.breaker.Record(err)
	return err
}

func withTimeout(parent context.Context, d time.Duration, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	err := op(ctx)
	if err != nil && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}
