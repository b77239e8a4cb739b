package keyward

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okValidator(ctx context.Context, token string) (interface{}, error) {
	return map[string]string{"sub": "user-123"}, nil
}

func failValidator(ctx context.Context, token string) (interface{}, error) {
	return nil, errors.New("bad token")
}

func TestCheckJWT(t *testing.T) {
	tests := []struct {
		name           string
		validateToken  ValidateToken
		options        []Option
		method         string
		authHeader     string
		wantStatus     int
		wantClaimsSet  bool
		wantNextCalled bool
	}{
		{
			name:           "valid token passes through with claims",
			validateToken:  okValidator,
			authHeader:     "Bearer valid.token.here",
			wantStatus:     http.StatusOK,
			wantClaimsSet:  true,
			wantNextCalled: true,
		},
		{
			name:          "missing token is a 400",
			validateToken: okValidator,
			wantStatus:    http.StatusBadRequest,
		},
		{
			name:          "invalid token is a 401",
			validateToken: failValidator,
			authHeader:    "Bearer bad.token.here",
			wantStatus:    http.StatusUnauthorized,
		},
		{
			name:          "malformed authorization header is a 500",
			validateToken: okValidator,
			authHeader:    "NotBearer token",
			wantStatus:    http.StatusInternalServerError,
		},
		{
			name:           "missing token allowed when credentials optional",
			validateToken:  okValidator,
			options:        []Option{WithCredentialsOptional(true)},
			wantStatus:     http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:           "OPTIONS skipped when configured",
			validateToken:  failValidator,
			options:        []Option{WithValidateOnOptions(false)},
			method:         http.MethodOptions,
			authHeader:     "Bearer bad.token.here",
			wantStatus:     http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:          "OPTIONS validated by default",
			validateToken: failValidator,
			method:        http.MethodOptions,
			authHeader:    "Bearer bad.token.here",
			wantStatus:    http.StatusUnauthorized,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nextCalled := false
			var gotClaims interface{}
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotClaims = r.Context().Value(ContextKey{})
				w.WriteHeader(http.StatusOK)
			})

			middleware := New(test.validateToken, test.options...)

			method := test.method
			if method == "" {
				method = http.MethodGet
			}
			request := httptest.NewRequest(method, "/protected", nil)
			if test.authHeader != "" {
				request.Header.Set("Authorization", test.authHeader)
			}
			recorder := httptest.NewRecorder()

			middleware.CheckJWT(next).ServeHTTP(recorder, request)

			assert.Equal(t, test.wantStatus, recorder.Code)
			assert.Equal(t, test.wantNextCalled, nextCalled)
			if test.wantClaimsSet {
				require.NotNil(t, gotClaims)
				claims, ok := gotClaims.(map[string]string)
				require.True(t, ok)
				assert.Equal(t, "user-123", claims["sub"])
			} else {
				assert.Nil(t, gotClaims)
			}
		})
	}
}

func TestCheckJWTCustomErrorHandler(t *testing.T) {
	var handledErr error
	middleware := New(failValidator, WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		handledErr = err
		w.WriteHeader(http.StatusTeapot)
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer some.token.here")
	recorder := httptest.NewRecorder()

	middleware.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusTeapot, recorder.Code)
	assert.ErrorIs(t, handledErr, ErrJWTInvalid)
	assert.Contains(t, handledErr.Error(), "bad token")
}

func TestCheckJWTCustomExtractor(t *testing.T) {
	var gotToken string
	middleware := New(func(ctx context.Context, token string) (interface{}, error) {
		gotToken = token
		return "claims", nil
	}, WithTokenExtractor(ParameterTokenExtractor("token")))

	request := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	recorder := httptest.NewRecorder()

	middleware.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "from-query", gotToken)
}

type recordingMetrics struct {
	counters   map[string]int
	histograms map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		counters:   map[string]int{},
		histograms: map[string]int{},
	}
}

func (m *recordingMetrics) IncCounter(name string, tags map[string]string) {
	m.counters[name+":"+tags["result"]]++
}

func (m *recordingMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {
	m.histograms[name+":"+tags["result"]]++
}

func (m *recordingMetrics) SetGauge(name string, value float64, tags map[string]string) {}

func TestCheckJWTMetrics(t *testing.T) {
	metrics := newRecordingMetrics()
	middleware := New(okValidator, WithMetrics(metrics))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	valid := httptest.NewRequest(http.MethodGet, "/", nil)
	valid.Header.Set("Authorization", "Bearer good.token.here")
	middleware.CheckJWT(next).ServeHTTP(httptest.NewRecorder(), valid)

	missing := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.CheckJWT(next).ServeHTTP(httptest.NewRecorder(), missing)

	assert.Equal(t, 1, metrics.counters["jwt_validation_total:valid"])
	assert.Equal(t, 1, metrics.counters["jwt_validation_total:missing"])
	assert.Equal(t, 1, metrics.histograms["jwt_validation_duration_seconds:valid"])
	assert.Zero(t, metrics.histograms["jwt_validation_duration_seconds:missing"])
}
