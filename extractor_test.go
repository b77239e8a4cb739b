package keyward

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHeaderTokenExtractor(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantError string
	}{
		{name: "no header"},
		{name: "valid bearer", header: "Bearer the-token", wantToken: "the-token"},
		{name: "case insensitive scheme", header: "bearer the-token", wantToken: "the-token"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantError: "Authorization header format must be Bearer {token}"},
		{name: "missing token", header: "Bearer", wantError: "Authorization header format must be Bearer {token}"},
		{name: "too many parts", header: "Bearer one two", wantError: "Authorization header format must be Bearer {token}"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.header != "" {
				request.Header.Set("Authorization", test.header)
			}

			token, err := AuthHeaderTokenExtractor(request)
			if test.wantError != "" {
				assert.EqualError(t, err, test.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantToken, token)
		})
	}
}

func TestCookieTokenExtractor(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)

		token, err := CookieTokenExtractor("jwt")(request)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("cookie present", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.AddCookie(&http.Cookie{Name: "jwt", Value: "the-token"})

		token, err := CookieTokenExtractor("jwt")(request)
		require.NoError(t, err)
		assert.Equal(t, "the-token", token)
	})
}

func TestParameterTokenExtractor(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/?token=the-token", nil)

	token, err := ParameterTokenExtractor("token")(request)
	require.NoError(t, err)
	assert.Equal(t, "the-token", token)
}

func TestMultiTokenExtractor(t *testing.T) {
	t.Run("first non-empty wins", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)

		extractor := MultiTokenExtractor(AuthHeaderTokenExtractor, ParameterTokenExtractor("token"))
		token, err := extractor(request)
		require.NoError(t, err)
		assert.Equal(t, "from-query", token)
	})

	t.Run("error aborts the chain", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
		request.Header.Set("Authorization", "Broken header value")

		extractor := MultiTokenExtractor(AuthHeaderTokenExtractor, ParameterTokenExtractor("token"))
		_, err := extractor(request)
		assert.Error(t, err)
	})

	t.Run("all empty yields empty", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)

		extractor := MultiTokenExtractor(CookieTokenExtractor("jwt"), ParameterTokenExtractor("token"))
		token, err := extractor(request)
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}
