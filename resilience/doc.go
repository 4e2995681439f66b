// Package resilience guards remote list fetches.
//
// A Policy composes three patterns, outermost first:
//
//   - Circuit breaker: after repeated failures, fetches fail fast with
//     ErrCircuitOpen until a cool-down has passed.
//   - Retry: retryable failures are attempted again with exponential,
//     linear or constant backoff.
//   - Timeout: every attempt gets its own deadline.
//
// Usage:
//
//	policy := resilience.NewPolicy(
//	    resilience.WithRetry(resilience.RetryConfig{MaxAttempts: 3}),
//	    resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{})),
//	    resilience.WithAttemptTimeout(10*time.Second),
//	)
//
//	err := policy.Execute(ctx, func(ctx context.Context) error {
//	    return fetchIssues(ctx)
//	})
package resilience
