package espn

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an upstream API failure.
type ErrorKind string

const (
	ErrAuthExpired  ErrorKind = "auth_expired" // 401: credentials rejected
	ErrForbidden    ErrorKind = "forbidden"    // 403: no access to this league
	ErrNotFound     ErrorKind = "not_found"    // 404: league or resource missing
	ErrRateLimited  ErrorKind = "rate_limited" // 429: provider throttling
	ErrUpstream     ErrorKind = "upstream"     // 500/502/503: provider-side fault
	ErrTimeout      ErrorKind = "timeout"      // request deadline exceeded
	ErrUnclassified ErrorKind = "unclassified" // anything else
)

// APIError is a classified upstream failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("espn api %s (%d): %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("espn api %s: %s", e.Kind, e.Body)
}

// Retryable reports whether the failure is transient.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case ErrRateLimited, ErrUpstream, ErrTimeout:
		return true
	}
	return false
}

// IsThrottle reports whether err indicates provider throttling; the rate
// limiter uses it to decide when to force a cooldown.
func IsThrottle(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == ErrRateLimited ||
			(apiErr.Kind == ErrUpstream && apiErr.StatusCode == 503)
	}
	return false
}

// KindOf returns the classification of err, or ErrUnclassified for errors
// that did not originate from the upstream API.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ErrUnclassified
}
