/*
Package jwks fetches and caches JSON Web Key Sets for JWT validation.

It exposes two providers. Provider fetches the key set from the identity
provider on every call and is mainly useful in tests and one-off tools.
CachingProvider is the production implementation: it serves keys from an
in-memory TTL-bound cache, collapses concurrent refreshes of a cold or
expired cache into a single fetch, and proactively renews the cache in
the background before it expires so steady-state readers never block on
the network.

# Basic usage

	issuerURL, _ := url.Parse("https://auth.example.com/")

	provider, err := jwks.NewCachingProvider(
	    jwks.WithIssuerURL(issuerURL),
	    jwks.WithCacheTTL(15*time.Minute),
	)
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeyProvider(provider),
	    validator.WithAlgorithm(validator.RS256),
	    validator.WithIssuer(issuerURL.String()),
	    validator.WithAudience("my-api"),
	)

The JWKS endpoint is discovered from the issuer's well-known OIDC
configuration on first use; pass WithCustomJWKSURI to skip discovery.

# Refresh behavior

A cache read falls into one of three cases:

 1. Fresh: the entry is younger than the TTL and below the staleness
    threshold. Served directly, no network traffic.
 2. Near expiry: the entry's age has crossed the threshold (default 80%
    of the TTL) but the TTL has not elapsed. The stale entry is served
    immediately and a single background refresh is kicked off so the
    next reads see a renewed entry.
 3. Empty or expired: exactly one caller fetches, with bounded
    exponential-backoff retry; everyone else waits for that fetch to
    finish (bounded by WithRefreshWaitTimeout) and then re-reads the
    cache.

Background refreshes make a single attempt each and are paced by a
failure cooldown (default 60s) rather than by retries, so a flapping
endpoint cannot pin the refresh lock. A failed refresh never evicts the
cached entry.

# Key rotation

Invalidate empties the cache so the next read refetches. The validator
package calls it when a token references an unknown key id or fails
signature verification, which is what a provider-side key rotation looks
like from the consumer's end.
*/
package jwks
