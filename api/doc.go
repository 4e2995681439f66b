// Package api is a small HTTP client for the issue tracker REST endpoints
// that feed the stores: organization tags, tag values and issue lists.
//
// Every request carries a bearer token from a TokenSource. Non-2xx
// responses are returned as *StatusError, whose Retryable method lets the
// resilience package retry 429 and 5xx responses only.
//
// Usage:
//
//	client, err := api.New("https://monitor.example.com/api/0/",
//		api.WithTokenSource(api.StaticToken(token)),
//	)
//	if err != nil {
//		return err
//	}
//	entry, err := client.FetchIssues(ctx, "acme", query.Query{"query": "is:unresolved"})
package api
