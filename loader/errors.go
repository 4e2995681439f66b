package loader

import "errors"

// Sentinel errors for loaders.
var (
	ErrMissingStore   = errors.New("loader: missing store")
	ErrMissingFetcher = errors.New("loader: missing fetcher")
)
