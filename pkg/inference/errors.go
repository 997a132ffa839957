package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when API key is required but missing.
	ErrNoAPIKey = errors.New("inference: API key required")

	// ErrNoCandidates is returned when a Completer has no models to try.
	ErrNoCandidates = errors.New("inference: no candidate models")

	// ErrEmptyResponse is returned when the API answers without choices.
	ErrEmptyResponse = errors.New("inference: empty response")
)

// ErrorKind classifies an APIError.
type ErrorKind string

const (
	// KindRateLimited is an HTTP 429 answer.
	KindRateLimited ErrorKind = "rate_limited"

	// KindTransport is a connection failure or timeout.
	KindTransport ErrorKind = "transport"

	// KindHTTPStatus is any other non-200 answer or an unusable body.
	KindHTTPStatus ErrorKind = "http_status"

	// KindExhausted means every candidate model failed.
	KindExhausted ErrorKind = "exhausted_candidates"
)

// APIError represents a failed completion request.
type APIError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// StatusCode is the HTTP status code, zero for transport errors.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Code is the error code (if provided).
	Code string

	// Model is the candidate model that was being tried.
	Model string

	// Provider identifies which provider returned the error.
	Provider string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	where := e.Provider
	if e.Model != "" {
		where += "/" + e.Model
	}
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("inference [%s]: %s %d (%s): %s", where, e.Kind, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("inference [%s]: %s %d: %s", where, e.Kind, e.StatusCode, e.Message)
	case e.Err != nil && e.Message == "":
		return fmt.Sprintf("inference [%s]: %s: %v", where, e.Kind, e.Err)
	default:
		return fmt.Sprintf("inference [%s]: %s: %s", where, e.Kind, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.Kind == KindRateLimited
}

// IsTransport returns true for connection-level failures.
func (e *APIError) IsTransport() bool {
	return e.Kind == KindTransport
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the same request may succeed later.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited()
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of the first APIError in err's chain, or "".
func KindOf(err error) ErrorKind {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Kind
	}
	return ""
}
