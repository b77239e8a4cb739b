package keywardecho

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/validator"
)

func TestNewEchoMiddleware(t *testing.T) {
	okValidator := func(ctx context.Context, token string) (interface{}, error) {
		return &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "user-123"},
		}, nil
	}
	failValidator := func(ctx context.Context, token string) (interface{}, error) {
		return nil, errors.New("bad token")
	}

	t.Run("valid token stores claims in the echo context", func(t *testing.T) {
		e := echo.New()
		e.Use(NewEchoMiddleware(okValidator))
		e.GET("/protected", func(c echo.Context) error {
			claims, ok := GetClaims(c, "")
			require.True(t, ok)
			return c.String(http.StatusOK, claims.RegisteredClaims.Subject)
		})

		request := httptest.NewRequest(http.MethodGet, "/protected", nil)
		request.Header.Set("Authorization", "Bearer good.token.here")
		recorder := httptest.NewRecorder()

		e.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "user-123", recorder.Body.String())
	})

	t.Run("invalid token responds with 401", func(t *testing.T) {
		e := echo.New()
		e.Use(NewEchoMiddleware(failValidator))
		e.GET("/protected", func(c echo.Context) error {
			t.Fatal("handler must not run")
			return nil
		})

		request := httptest.NewRequest(http.MethodGet, "/protected", nil)
		request.Header.Set("Authorization", "Bearer bad.token.here")
		recorder := httptest.NewRecorder()

		e.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "message")
	})

	t.Run("custom error handler", func(t *testing.T) {
		e := echo.New()
		e.Use(NewEchoMiddleware(failValidator, WithErrorHandler(func(c echo.Context, err error) {
			_ = c.JSON(http.StatusForbidden, map[string]string{"reason": err.Error()})
		})))
		e.GET("/protected", func(c echo.Context) error {
			t.Fatal("handler must not run")
			return nil
		})

		request := httptest.NewRequest(http.MethodGet, "/protected", nil)
		request.Header.Set("Authorization", "Bearer bad.token.here")
		recorder := httptest.NewRecorder()

		e.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("custom context key", func(t *testing.T) {
		e := echo.New()
		e.Use(NewEchoMiddleware(okValidator, WithContextKey("claims")))
		e.GET("/protected", func(c echo.Context) error {
			claims, ok := GetClaims(c, "claims")
			require.True(t, ok)
			return c.String(http.StatusOK, claims.RegisteredClaims.Subject)
		})

		request := httptest.NewRequest(http.MethodGet, "/protected", nil)
		request.Header.Set("Authorization", "Bearer good.token.here")
		recorder := httptest.NewRecorder()

		e.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestGetClaims(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	t.Run("missing claims", func(t *testing.T) {
		_, ok := GetClaims(c, "")
		assert.False(t, ok)
	})

	t.Run("wrong type", func(t *testing.T) {
		c.Set(DefaultClaimsKey, "not claims")
		_, ok := GetClaims(c, "")
		assert.False(t, ok)
	})
}
