package resilience

import (
	"sync"
	"time"
)

// BreakerState is the state of a circuit breaker.
type BreakerState int

const (
	// BreakerClosed lets every call through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cool-down has passed.
	BreakerOpen
	// BreakerHalfOpen lets a single probe through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Default: 5
	MaxFailures int

	// CoolDown is how long the breaker stays open before probing.
	// Default: 30s
	CoolDown time.Duration

	// OnStateChange runs, under the breaker lock, on every transition.
	OnStateChange func(from, to BreakerState)

	// Now overrides time.Now.
	Now func() time.Time
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{cfg: cfg}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

// Allow reports whether a call may proceed. Every allowed call must be
// followed by exactly one Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked()
	switch b.state {
	case BreakerOpen:
		return ErrCircuitOpen
	case BreakerHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

// Record reports the outcome of an allowed call. Non-retryable errors,
// such as a 404 or a cancelled context, do not count as failures.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && Retryable(err)

	switch b.state {
	case BreakerHalfOpen:
		b.probing = false
		if failed {
			b.openLocked()
		} else {
			b.failures = 0
			b.setLocked(BreakerClosed)
		}
	case BreakerClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.openLocked()
		}
	}
}

// Reset closes the breaker and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probing = false
	b.setLocked(BreakerClosed)
}

func (b *Breaker) openLocked() {
	b.openedAt = b.cfg.Now()
	b.setLocked(BreakerOpen)
}

func (b *Breaker) refreshLocked() {
	if b.state == BreakerOpen && b.cfg.Now().Sub(b.openedAt) >= b.cfg.CoolDown {
		b.probing = false
		b.setLocked(BreakerHalfOpen)
	}
}

func (b *Breaker) setLocked(to BreakerState) {
	from := b.state
	b.state = to
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
