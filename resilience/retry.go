package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// RetryConfig configures retries.
type RetryConfig struct {
	// MaxAttempts includes the first attempt.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	// Default: 200ms
	InitialDelay time.Duration

	// MaxDelay caps any single wait.
	// Default: 5s
	MaxDelay time.Duration

	// Multiplier applies to BackoffExponential.
	// Default: 2.0
	Multiplier float64

	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// ShouldRetry decides whether an error is retried.
	// Default: Retryable
	ShouldRetry func(err error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 200 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = Retryable
	}
	return c
}

// Delay returns the wait after the given failed attempt (1-based), before
// jitter.
func (c RetryConfig) Delay(attempt int) time.Duration {
	c = c.withDefaults()

	var d time.Duration
	switch c.Strategy {
	case BackoffConstant:
		d = c.InitialDelay
	case BackoffLinear:
		d = c.InitialDelay * time.Duration(attempt)
	default:
		d = time.Duration(float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1)))
	}
	return min(d, c.MaxDelay)
}

// retry runs op until it succeeds, fails with a non-retryable error, or
// runs out of attempts. The last error is returned.
func retry(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.ShouldRetry(err) {
			return err
		}

		delay := cfg.Delay(attempt)
		if cfg.Jitter && delay >= 4 {
			// #nosec G404 -- jitter is non-cryptographic timing variance.
			delay += time.Duration(rand.Int64N(int64(delay / 4)))
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
