// Package issuecache memoizes fetched issue lists per query.
//
// A Store maps the canonical key of a query.Query to the Entry that was
// last fetched for it, so that returning to an identical search can render
// without a round trip. The store only ever sees settled results: fetching,
// retries and stale-response handling live in package loader.
//
// State returns an immutable snapshot that keeps its identity until the
// next Save or Reset, so observers can detect changes by comparing pointers.
package issuecache
