// Package health reports whether the liststore client can currently serve
// fresh data.
//
// A Checker inspects one component: the fetch circuit breaker, the API
// endpoint, the alert store or the tag store. An Aggregator runs the
// registered checkers in parallel under a shared timeout and folds their
// results into one Status.
//
//	agg := health.NewAggregator()
//	agg.Register(health.BreakerCheck(breaker))
//	agg.Register(health.AlertsCheck(alerts))
//	results := agg.CheckAll(ctx)
//	overall := health.Overall(results)
package health
