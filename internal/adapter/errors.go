// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// ErrorKind classifies a provider failure. The set is closed: every
// adapter maps its backend's failures onto exactly these kinds, so
// callers branch on the kind regardless of which backend was called.
type ErrorKind string

const (
	// KindTimeout means the outbound call exceeded the configured deadline.
	KindTimeout ErrorKind = "timeout"

	// KindConnectionFailure means the transport could not reach the endpoint.
	KindConnectionFailure ErrorKind = "connection_failure"

	// KindAuthenticationFailure means the backend rejected the credentials.
	KindAuthenticationFailure ErrorKind = "authentication_failure"

	// KindRateLimitExceeded means the backend reported too many requests.
	KindRateLimitExceeded ErrorKind = "rate_limit_exceeded"

	// KindHTTPFailure is any other non-success HTTP status.
	KindHTTPFailure ErrorKind = "http_failure"

	// KindDeserializationFailure means the response body did not match
	// the expected schema.
	KindDeserializationFailure ErrorKind = "deserialization_failure"

	// KindEmptyResponse means the response parsed successfully but
	// contained no usable content.
	KindEmptyResponse ErrorKind = "empty_response"
)

// ProviderError is the typed error surfaced by every adapter. It carries
// enough context (status, raw body, underlying cause) to be logged;
// callers branch only on Kind, never on the message text.
type ProviderError struct {
	// Provider is the adapter's identifier ("anthropic", "openai", ...).
	Provider string

	// Kind classifies the failure.
	Kind ErrorKind

	// Status is the HTTP status code when the backend responded.
	Status int

	// Body is the raw response body for HTTP failures, for logging.
	Body string

	// Err is the underlying transport or decode cause, if any.
	Err error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: request timed out: %v", e.Provider, e.Err)
	case KindConnectionFailure:
		return fmt.Sprintf("%s: connection failed: %v", e.Provider, e.Err)
	case KindAuthenticationFailure:
		return fmt.Sprintf("%s: authentication failed (status %d)", e.Provider, e.Status)
	case KindRateLimitExceeded:
		return fmt.Sprintf("%s: rate limit exceeded (status %d)", e.Provider, e.Status)
	case KindHTTPFailure:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Body)
	case KindDeserializationFailure:
		return fmt.Sprintf("%s: failed to decode response: %v", e.Provider, e.Err)
	case KindEmptyResponse:
		return fmt.Sprintf("%s: response contained no content", e.Provider)
	default:
		return fmt.Sprintf("%s: provider error: %v", e.Provider, e.Err)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy kind of err, or "" if err is not a ProviderError.
func Kind(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is a ProviderError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return Kind(err) == kind
}

// Retryable reports whether a failure is worth retrying on another
// provider: rate limits, timeouts, connection failures and 5xx responses.
// Adapters themselves never retry; this is consumed by callers only.
func Retryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case KindTimeout, KindConnectionFailure, KindRateLimitExceeded:
		return true
	case KindHTTPFailure:
		return pe.Status >= 500
	default:
		return false
	}
}

// transportError maps an http.Client failure into the taxonomy:
// deadline and net timeouts become KindTimeout, everything else is a
// connection failure.
func transportError(provider string, err error) *ProviderError {
	kind := KindConnectionFailure

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case os.IsTimeout(err):
		kind = KindTimeout
	}

	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// statusError maps a non-success HTTP status into the taxonomy,
// preserving the original status and body.
func statusError(provider string, status int, body []byte) *ProviderError {
	kind := KindHTTPFailure
	switch status {
	case http.StatusUnauthorized:
		kind = KindAuthenticationFailure
	case http.StatusTooManyRequests:
		kind = KindRateLimitExceeded
	}

	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Status:   status,
		Body:     string(body),
	}
}
