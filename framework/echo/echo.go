package keywardecho

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/validator"
)

// DefaultClaimsKey is the echo context key under which validated claims are
// stored unless WithContextKey overrides it.
const DefaultClaimsKey = "jwt"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler   func(echo.Context, error)
	contextKey     string
	tokenExtractor keyward.TokenExtractor
}

// NewEchoMiddleware creates an echo middleware for JWT authentication.
// The validateToken should be an implementation of keyward.ValidateToken,
// typically validator.Validator.ValidateToken.
func NewEchoMiddleware(validateToken keyward.ValidateToken, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	middlewareOpts := []keyward.Option{
		keyward.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			// Adapt the standard error handler to the echo context.
			e := echo.New()
			c := e.NewContext(r, w)
			config.errorHandler(c, err)
		}),
	}

	if config.tokenExtractor != nil {
		middlewareOpts = append(middlewareOpts, keyward.WithTokenExtractor(config.tokenExtractor))
	}

	middleware := keyward.New(validateToken, middlewareOpts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			encounteredError := true
			var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
				encounteredError = false
				c.SetRequest(r)

				if claims, ok := r.Context().Value(keyward.ContextKey{}).(*validator.ValidatedClaims); ok {
					c.Set(config.contextKey, claims)
				}

				if err := next(c); err != nil {
					c.Error(err)
				}
			}

			middleware.CheckJWT(handler).ServeHTTP(c.Response(), c.Request())

			if encounteredError {
				return nil // Prevent further handlers from being called.
			}
			return nil
		}
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) {
	_ = c.JSON(http.StatusUnauthorized, map[string]string{
		"message": err.Error(),
	})
}

// GetClaims extracts the JWT claims from the echo context
func GetClaims(c echo.Context, contextKey string) (*validator.ValidatedClaims, bool) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims := c.Get(contextKey)
	if claims == nil {
		return nil, false
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	return validatedClaims, ok
}
