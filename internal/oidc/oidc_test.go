package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, responseCode int, responseBody string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/openid-configuration", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(responseCode)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestGetWellKnownEndpointsFromIssuerURL(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		responseBody string
		expectError  bool
		wantJWKSURI  string
	}{
		{
			name:         "successful response",
			responseCode: http.StatusOK,
			responseBody: `{"issuer":"https://example.com","jwks_uri":"https://example.com/jwks"}`,
			wantJWKSURI:  "https://example.com/jwks",
		},
		{
			name:         "not found",
			responseCode: http.StatusNotFound,
			responseBody: `{"error": "not found"}`,
			expectError:  true,
		},
		{
			name:         "server error",
			responseCode: http.StatusInternalServerError,
			responseBody: `Internal Server Error`,
			expectError:  true,
		},
		{
			name:         "malformed json",
			responseCode: http.StatusOK,
			responseBody: `{"jwks_uri": "https://example.com/jwks"`,
			expectError:  true,
		},
		{
			name:         "empty body",
			responseCode: http.StatusOK,
			responseBody: ``,
			expectError:  true,
		},
		{
			name:         "non-json body",
			responseCode: http.StatusOK,
			responseBody: `<html><body>Error</body></html>`,
			expectError:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := setupTestServer(t, test.responseCode, test.responseBody)

			issuerURL, err := url.Parse(server.URL)
			require.NoError(t, err)

			endpoints, err := GetWellKnownEndpointsFromIssuerURL(context.Background(), &http.Client{}, *issuerURL)

			if test.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.wantJWKSURI, endpoints.JWKSURI)
		})
	}
}

func TestGetWellKnownEndpointsNetworkError(t *testing.T) {
	invalidURL, err := url.Parse("http://invalid.local")
	require.NoError(t, err)

	_, err = GetWellKnownEndpointsFromIssuerURL(context.Background(), &http.Client{}, *invalidURL)
	assert.ErrorContains(t, err, "could not get well known endpoints")
}

func TestGetWellKnownEndpointsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	t.Cleanup(server.Close)

	issuerURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = GetWellKnownEndpointsFromIssuerURL(ctx, &http.Client{}, *issuerURL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetWellKnownEndpointsNilClientFallsBack(t *testing.T) {
	server := setupTestServer(t, http.StatusOK, `{"jwks_uri":"https://example.com/jwks"}`)

	issuerURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	endpoints, err := GetWellKnownEndpointsFromIssuerURL(context.Background(), nil, *issuerURL)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jwks", endpoints.JWKSURI)
}

func TestGetWellKnownEndpointsPreservesIssuerPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jwks_uri":"https://example.com/jwks"}`))
	}))
	t.Cleanup(server.Close)

	issuerURL, err := url.Parse(server.URL + "/tenant1")
	require.NoError(t, err)

	_, err = GetWellKnownEndpointsFromIssuerURL(context.Background(), &http.Client{}, *issuerURL)
	require.NoError(t, err)
	assert.Equal(t, "/tenant1/.well-known/openid-configuration", gotPath)
}
