/*
Package validator provides JWT validation backed by a key provider.

The Validator verifies a token's signature against the key set supplied by
a KeyProvider (typically a jwks.CachingProvider) and validates the
registered claims: issuer, audience, expiration, not-before and issued-at,
with an optional clock skew tolerance. Custom claims can be decoded and
validated alongside the registered ones.

# Key rotation handling

Identity providers rotate their signing keys, and a cached key set can
lag a rotation. Two failures are treated as rotation-shaped: the token
references a key id that is not in the set (ErrKeyNotFound), and the
signature fails to verify against the resolved key (ErrSignatureInvalid).
When the key provider implements CacheInvalidator, either failure causes
the Validator to invalidate the provider's cache and retry exactly once
with freshly fetched keys. Any other failure, including a token that does
not parse at all, is terminal on the first attempt; stale keys cannot
explain malformed input or an expired claim set.

# Usage

	provider, err := jwks.NewCachingProvider(
	    jwks.WithIssuerURL(issuerURL),
	)
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeyProvider(provider),
	    validator.WithAlgorithm(validator.RS256),
	    validator.WithIssuer(issuerURL.String()),
	    validator.WithAudience("my-api"),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.ValidateToken(ctx, tokenString)
	if err != nil {
	    // Token invalid.
	}
	validated := claims.(*validator.ValidatedClaims)

# Custom claims

	type MyClaims struct {
	    Scope string `json:"scope"`
	}

	func (c *MyClaims) Validate(ctx context.Context) error {
	    if c.Scope == "" {
	        return errors.New("scope claim is required")
	    }
	    return nil
	}

	v, err := validator.New(
	    validator.WithKeyProvider(provider),
	    validator.WithAlgorithm(validator.RS256),
	    validator.WithIssuer(issuerURL.String()),
	    validator.WithAudience("my-api"),
	    validator.WithCustomClaims(func() validator.CustomClaims {
	        return &MyClaims{}
	    }),
	)
*/
package validator
