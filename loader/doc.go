// Package loader fills the stores from the API.
//
// IssueLoader is a read-through loader over the issue list cache. Cache
// hits return without a fetch; concurrent misses for equivalent queries
// share one fetch. Results are saved only if no newer fetch for the same
// query has been saved and the cache has not been reset since the fetch
// began, so a slow response can never overwrite a fresher one.
//
// TagLoader resets the tag store, fetches the organization's tags and
// hands them to the store, raising an error alert when the fetch fails.
//
// Every fetch runs through a resilience.Policy and is instrumented with
// an observe.Middleware.
package loader
