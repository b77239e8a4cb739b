package keywardgin

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/validator"
)

// DefaultClaimsKey is the gin context key under which validated claims are
// stored unless WithContextKey overrides it.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type ginMiddlewareConfig struct {
	errorHandler   func(*gin.Context, error)
	contextKey     string
	tokenExtractor keyward.TokenExtractor
}

// NewGinMiddleware creates a gin middleware for JWT authentication.
// The validateToken should be an implementation of keyward.ValidateToken,
// typically validator.Validator.ValidateToken. Ensure that the validateToken
// implementation is thread-safe and does not have mutable state that could be
// altered concurrently.
func NewGinMiddleware(validateToken keyward.ValidateToken, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{
		errorHandler: defaultGinErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	middlewareOpts := []keyward.Option{
		keyward.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, exists := r.Context().Value(gin.ContextKey).(*gin.Context)
			if !exists || c == nil {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(err.Error()))
				return
			}
			config.errorHandler(c, err)
		}),
	}

	if config.tokenExtractor != nil {
		middlewareOpts = append(middlewareOpts, keyward.WithTokenExtractor(config.tokenExtractor))
	}

	middleware := keyward.New(validateToken, middlewareOpts...)

	return func(c *gin.Context) {
		// Stash the gin context in the request so the error handler can reach
		// it regardless of the engine's ContextWithFallback setting.
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), gin.ContextKey, c))

		encounteredError := true
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			encounteredError = false
			c.Request = r

			if claims, ok := r.Context().Value(keyward.ContextKey{}).(*validator.ValidatedClaims); ok {
				c.Set(config.contextKey, claims)
			}

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		if encounteredError {
			c.Abort()
		}
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": err.Error(),
	})
}

// GetClaims extracts the validated JWT claims from the gin context.
func GetClaims(c *gin.Context, contextKey string) (*validator.ValidatedClaims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return validatedClaims, nil
}
