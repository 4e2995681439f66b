package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the API client.
var (
	ErrInvalidBaseURL  = errors.New("api: invalid base url")
	ErrMissingOrg      = errors.New("api: missing organization")
	ErrMissingTagKey   = errors.New("api: missing tag key")
	ErrDecode          = errors.New("api: decode response")
	ErrMissingSecret   = errors.New("api: missing signing secret")
	ErrTokenGeneration = errors.New("api: token generation failed")
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int

	// Detail is the server's error message, when the body carried one.
	Detail string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
