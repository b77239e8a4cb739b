package jwks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// maxJWKSBody limits the response body size when fetching a key set.
// 1MB is generous for a JWKS (typically <10KB).
const maxJWKSBody = 1 * 1024 * 1024

// fetcher performs one network fetch of the key set and maps transport and
// parse failures onto the engine's error types.
type fetcher struct {
	client         *http.Client
	skipUnresolved bool
	logger         Logger
}

func (f *fetcher) fetch(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, &TransportError{URL: jwksURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: jwksURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: jwksURL, Err: fmt.Errorf("request returned status %d, expected 200", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBody))
	if err != nil {
		return nil, &TransportError{URL: jwksURL, Err: err}
	}

	var parseOpts []jwk.ParseOption
	if f.skipUnresolved {
		// Key entries that fail to resolve (unknown type, missing
		// parameters) are dropped from the set instead of failing the
		// whole response.
		parseOpts = append(parseOpts, jwk.WithIgnoreParseError(true))
	}

	set, err := jwk.Parse(body, parseOpts...)
	if err != nil {
		return nil, &DeserializationError{URL: jwksURL, Err: err}
	}

	f.logger.Debugf("fetched %d signing keys from %s", set.Len(), jwksURL)

	return set, nil
}

// fetchWithRetry wraps fetch in the bounded exponential backoff retry used
// by blocking refreshes. The first attempt is unconditional; each retry
// sleeps base * 2^attempt before refetching. It returns the first success
// or the last error once the budget is exhausted.
func (f *fetcher) fetchWithRetry(ctx context.Context, jwksURL string, maxRetries int, backoffBase time.Duration) (jwk.Set, error) {
	set, err := f.fetch(ctx, jwksURL)

	for attempt := 0; err != nil && attempt < maxRetries; attempt++ {
		backoff := backoffBase << attempt

		f.logger.Debugf("key fetch failed, retrying (%d/%d) after %s: %v", attempt+1, maxRetries, backoff, err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		set, err = f.fetch(ctx, jwksURL)
	}

	return set, err
}
