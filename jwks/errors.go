package jwks

import (
	"errors"
	"fmt"
)

var (
	// ErrRefreshTimeout is returned when a caller waiting on an in-flight
	// key refresh exceeds the configured wait timeout. The refresh itself
	// is not cancelled and may still populate the cache for later callers.
	ErrRefreshTimeout = errors.New("timed out waiting for key refresh to complete")

	// ErrCacheMiss is returned when a caller was notified that a refresh
	// completed but the cache is still empty or expired, which means the
	// refresh it waited on failed.
	ErrCacheMiss = errors.New("key cache empty or expired after waiting for refresh")

	// ErrInvalidRefreshThreshold is returned at construction when the
	// background refresh threshold lies outside the open interval (0, 100).
	ErrInvalidRefreshThreshold = errors.New("background refresh threshold must be between 1 and 99")

	// ErrEndpointRequired is returned at construction when neither an
	// issuer URL nor a custom JWKS URI was provided.
	ErrEndpointRequired = errors.New("an issuer URL or a custom JWKS URI is required")
)

// TransportError indicates that the key endpoint could not be reached or
// answered with an unexpected status. It is retryable under the blocking
// refresh retry policy.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not fetch JWKS from %q: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeserializationError indicates that the key endpoint answered but the
// response body could not be parsed into a key set. It receives the same
// retry treatment as TransportError.
type DeserializationError struct {
	URL string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("could not parse JWKS from %q: %v", e.URL, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
