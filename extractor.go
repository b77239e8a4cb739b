package keyward

import (
	"errors"
	"net/http"
	"strings"
)

// TokenExtractor pulls a raw token out of an incoming request. A missing
// token is not an error: return an empty string and let the middleware
// decide whether credentials are required. Return an error only when a
// token was supplied but its carrier is malformed.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor reads the token from the Authorization header,
// expecting the "Bearer {token}" scheme (scheme match is case insensitive).
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}

	return parts[1], nil
}

// CookieTokenExtractor reads the token from the named cookie. An absent
// cookie yields an empty token.
func CookieTokenExtractor(name string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}

		return cookie.Value, nil
	}
}

// ParameterTokenExtractor reads the token from the named query string
// parameter.
func ParameterTokenExtractor(name string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(name), nil
	}
}

// MultiTokenExtractor tries each extractor in order and returns the first
// non-empty token. An extractor error aborts the chain immediately.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			token, err := extract(r)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}

		return "", nil
	}
}
