package keyward

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrJWTMissing is reported when no token was found on the request and
	// credentials are not optional.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is reported when a token was found but failed
	// validation. Use errors.Is against it; the underlying validation error
	// stays reachable through Unwrap.
	ErrJWTInvalid = errors.New("jwt invalid")
)

// ErrorHandler writes the response for a failed JWT check. The middleware
// calls it with ErrJWTMissing, an error matching ErrJWTInvalid, or whatever
// the token extractor returned. A replacement handler must distinguish
// these cases the same way, otherwise clients cannot tell a missing
// credential from a rejected one.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler maps ErrJWTMissing to 400, ErrJWTInvalid to 401 and
// everything else to 500, with a small JSON body. It is installed unless
// WithErrorHandler overrides it.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, ErrJWTMissing):
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"JWT is missing."}`))
	case errors.Is(err, ErrJWTInvalid):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT is invalid."}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong while checking the JWT."}`))
	}
}

// invalidError couples a concrete validation failure to the ErrJWTInvalid
// sentinel. Kept unexported; Is and Unwrap expose everything callers need.
type invalidError struct {
	details error
}

func (e *invalidError) Is(target error) bool {
	return target == ErrJWTInvalid
}

func (e *invalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJWTInvalid, e.details)
}

func (e *invalidError) Unwrap() error {
	return e.details
}
