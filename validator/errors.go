package validator

import "errors"

// Validation errors. ErrKeyNotFound and ErrSignatureInvalid are the two
// rotation-shaped failures: when either occurs on a first attempt the
// validator invalidates the key provider's cache and retries once with
// freshly fetched keys.
var (
	// ErrTokenMalformed is returned when the token cannot be parsed as a
	// compact JWS at all. Malformed input can never be fixed by fresher
	// keys, so it never triggers a cache invalidation.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrKeyNotFound is returned when the token's key id is not present
	// in the key set.
	ErrKeyNotFound = errors.New("signing key not found in key set")

	// ErrSignatureInvalid is returned when signature verification fails
	// against the resolved key.
	ErrSignatureInvalid = errors.New("token signature is invalid")
)

// Claim validation errors.
var (
	ErrInvalidIssuer     = errors.New("issuer claim is invalid")
	ErrInvalidAudience   = errors.New("audience claim is invalid")
	ErrTokenExpired      = errors.New("token is expired")
	ErrTokenNotYetValid  = errors.New("token is not valid yet")
	ErrIssuedInTheFuture = errors.New("token issued in the future")
)
