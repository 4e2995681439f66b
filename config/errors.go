package config

import "errors"

// Sentinel errors for configuration.
var (
	ErrLoad            = errors.New("config: load failed")
	ErrMissingEnv      = errors.New("config: missing required environment variables")
	ErrMissingBaseURL  = errors.New("config: api.base_url is required")
	ErrMissingOrg      = errors.New("config: api.org is required")
	ErrInvalidTagLimit = errors.New("config: tags.max must be positive")
	ErrInvalidRetry    = errors.New("config: invalid retry settings")
	ErrInvalidBreaker  = errors.New("config: invalid breaker settings")
)
