package spotify

import (
	"errors"
	"fmt"
	"net/http"
)

// The error types below form the closed set of failures an operation can
// return. Raw transport or decoding errors never cross the package boundary;
// they are wrapped into one of these kinds at the point of classification.

// AuthErrorReason identifies why an access token could not be supplied.
type AuthErrorReason int

const (
	// AuthMisconfigured indicates the upstream credentials are incomplete.
	AuthMisconfigured AuthErrorReason = iota

	// AuthRefreshFailed indicates the token refresh failed with an HTTP
	// status or transport error, after any applicable retries.
	AuthRefreshFailed

	// AuthInvalidResponse indicates the token endpoint returned a payload
	// without a usable access token.
	AuthInvalidResponse
)

func (r AuthErrorReason) String() string {
	switch r {
	case AuthMisconfigured:
		return "misconfigured"
	case AuthRefreshFailed:
		return "refresh failed"
	case AuthInvalidResponse:
		return "invalid response"
	}
	return "unknown"
}

// AuthError is returned when a valid access token cannot be produced.
type AuthError struct {
	Reason AuthErrorReason

	// StatusCode is the token endpoint status for AuthRefreshFailed, zero
	// otherwise.
	StatusCode int

	cause error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("spotify auth: %s", e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

// Status implements the handler error mapping. Credential problems are
// internal: the caller gets no detail beyond "unavailable".
func (e *AuthError) Status() (int, string) {
	return http.StatusInternalServerError, "music service unavailable"
}

// UpstreamError is returned when a data endpoint call fails. Exactly one of
// Timeout or StatusCode is meaningful; a zero StatusCode with Timeout false
// indicates a transport-level failure.
type UpstreamError struct {
	StatusCode int
	Timeout    bool

	cause error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("spotify upstream: timeout: %v", e.cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("spotify upstream: status %d", e.StatusCode)
	default:
		return fmt.Sprintf("spotify upstream: %v", e.cause)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.cause
}

func (e *UpstreamError) Status() (int, string) {
	return http.StatusBadGateway, "music service unavailable"
}

// RateLimitedError is returned when the quota gate denies a call, or when the
// upstream itself reports too many requests. It is never retried by this
// layer.
type RateLimitedError struct {
	// Upstream is true when the upstream API returned 429, false when the
	// local quota gate denied the call.
	Upstream bool
}

func (e *RateLimitedError) Error() string {
	if e.Upstream {
		return "spotify: upstream rate limited"
	}
	return "spotify: quota exceeded"
}

func (e *RateLimitedError) Status() (int, string) {
	return http.StatusTooManyRequests, "too many requests"
}

// GateError is returned when the quota gate itself fails, as distinct from a
// denial. Gate infrastructure problems are internal: the caller gets no
// detail.
type GateError struct {
	Key string

	cause error
}

func (e *GateError) Error() string {
	return fmt.Sprintf("spotify: quota gate check for %s: %v", e.Key, e.cause)
}

func (e *GateError) Unwrap() error {
	return e.cause
}

func (e *GateError) Status() (int, string) {
	return http.StatusInternalServerError, "music service unavailable"
}

// IsRateLimited reports whether err is a rate limiting failure from either
// the quota gate or the upstream.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
