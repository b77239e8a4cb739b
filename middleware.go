package keyward

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ContextKey is the key used in the request context where the information
// from a validated JWT will be stored.
type ContextKey struct{}

// ValidateToken takes in a string JWT and makes sure it is valid and
// returns the validated claims. If it is not valid it will return nil and
// an error message describing why validation failed. The validator
// package's Validator.ValidateToken satisfies this signature.
type ValidateToken func(context.Context, string) (interface{}, error)

// JWTMiddleware wraps an http.Handler and rejects requests that do not
// carry a valid JWT.
type JWTMiddleware struct {
	validateToken       ValidateToken
	errorHandler        ErrorHandler
	credentialsOptional bool
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	logger              Logger
	metrics             Metrics
	tracer              Tracer
}

// New constructs a new JWTMiddleware instance with the supplied options.
// It requires a ValidateToken function to be passed in, so it can
// properly validate tokens.
func New(validateToken ValidateToken, opts ...Option) *JWTMiddleware {
	m := &JWTMiddleware{
		validateToken:       validateToken,
		errorHandler:        DefaultErrorHandler,
		credentialsOptional: false,
		tokenExtractor:      AuthHeaderTokenExtractor,
		validateOnOptions:   true,
		logger:              &noopLogger{},
		metrics:             &NoopMetrics{},
		tracer:              &NoopTracer{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CheckJWT is the main JWTMiddleware function which performs the main logic. It
// is passed a http.Handler which will be called if the JWT passes validation.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		span := m.tracer.StartSpan("keyward.CheckJWT")
		defer span.Finish()
		span.SetTag("http.method", r.Method)
		span.SetTag("http.path", r.URL.Path)

		token, err := m.tokenExtractor(r)
		if err != nil {
			// This is not ErrJWTMissing because an error here means that the
			// tokenExtractor had an error and _not_ that the token was missing.
			m.logger.Errorf("failed to extract token from request: %v", err)
			m.observeResult("extract_error", 0)
			span.SetTag("error", true)
			m.errorHandler(w, r, fmt.Errorf("error extracting token: %w", err))
			return
		}

		if token == "" {
			if m.credentialsOptional {
				m.logger.Debugf("no credentials found, continuing (credentials optional)")
				next.ServeHTTP(w, r)
				return
			}

			m.observeResult("missing", 0)
			span.SetTag("error", true)
			m.errorHandler(w, r, ErrJWTMissing)
			return
		}

		start := time.Now()
		validToken, err := m.validateToken(r.Context(), token)
		elapsed := time.Since(start)

		if err != nil {
			m.logger.Warnf("JWT validation failed: %v", err)
			m.observeResult("invalid", elapsed.Seconds())
			span.SetTag("error", true)
			m.errorHandler(w, r, &invalidError{details: err})
			return
		}

		m.observeResult("valid", elapsed.Seconds())

		// No err means we have a valid token, so set
		// it into the context and continue onto next.
		r = r.Clone(context.WithValue(r.Context(), ContextKey{}, validToken))
		next.ServeHTTP(w, r)
	})
}

func (m *JWTMiddleware) observeResult(result string, seconds float64) {
	tags := map[string]string{"result": result}
	m.metrics.IncCounter("jwt_validation_total", tags)
	if seconds > 0 {
		m.metrics.ObserveHistogram("jwt_validation_duration_seconds", seconds, tags)
	}
}
