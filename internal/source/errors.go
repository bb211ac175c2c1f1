package source

import (
	"errors"
	"fmt"
)

// RateLimitError indicates every host tried in a failover attempt returned
// HTTP 429 or errors[].code == 88. It carries the exhausted host set so the
// caller (the sync engine) can fold it into the account's cooldown state
// without string-matching a message.
type RateLimitError struct {
	Hosts []string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited on all hosts: %v", e.Hosts)
}

// AuthError indicates the adapter exhausted every auth-pair and bearer-token
// rotation without a host accepting the request.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return "authentication failed: auth rotation exhausted"
	}
	return fmt.Sprintf("authentication failed: auth rotation exhausted: %v", e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// GenericError wraps any other non-2xx or errors[]-bearing response that
// isn't classified as rate-limit or auth-invalid.
type GenericError struct {
	Host  string
	Cause error
}

func (e *GenericError) Error() string {
	return fmt.Sprintf("source request failed on %s: %v", e.Host, e.Cause)
}

func (e *GenericError) Unwrap() error { return e.Cause }

// IsRateLimit reports whether err (or any error it wraps) is a RateLimitError.
func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// IsAuthError reports whether err (or any error it wraps) is an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}
