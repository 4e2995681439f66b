package loader

import (
	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/resilience"
)

type options struct {
	policy     *resilience.Policy
	middleware *observe.Middleware
	logger     observe.Logger
}

func defaultOptions() options {
	return options{
		policy:     resilience.NewPolicy(),
		middleware: observe.NewMiddleware(nil, nil, nil),
		logger:     observe.NopLogger(),
	}
}

// Option configures a loader.
type Option func(*options)

// WithPolicy wraps every fetch in p. Default: a single attempt.
func WithPolicy(p *resilience.Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithMiddleware instruments every fetch with m. Default: no-op.
func WithMiddleware(m *observe.Middleware) Option {
	return func(o *options) {
		if m != nil {
			o.middleware = m
		}
	}
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
