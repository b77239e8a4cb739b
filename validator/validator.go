package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// Signature algorithms
const (
	EdDSA = SignatureAlgorithm("EdDSA")
	HS256 = SignatureAlgorithm("HS256") // HMAC using SHA-256
	HS384 = SignatureAlgorithm("HS384") // HMAC using SHA-384
	HS512 = SignatureAlgorithm("HS512") // HMAC using SHA-512
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	ES256 = SignatureAlgorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = SignatureAlgorithm("ES384") // ECDSA using P-384 and SHA-384
	ES512 = SignatureAlgorithm("ES512") // ECDSA using P-521 and SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

var allowedSigningAlgorithms = map[SignatureAlgorithm]bool{
	EdDSA: true,
	HS256: true,
	HS384: true,
	HS512: true,
	RS256: true,
	RS384: true,
	RS512: true,
	ES256: true,
	ES384: true,
	ES512: true,
	PS256: true,
	PS384: true,
	PS512: true,
}

// KeyProvider supplies the key set used to verify token signatures. It is
// implemented by jwks.Provider and jwks.CachingProvider.
type KeyProvider interface {
	GetKeys(ctx context.Context) (jwk.Set, error)
}

// CacheInvalidator is implemented by key providers whose key set can be
// forcibly refetched. When the provider implements it, the Validator calls
// Invalidate once per token on rotation-shaped failures (unknown key id or
// invalid signature) and retries the validation with fresh keys.
type CacheInvalidator interface {
	Invalidate()
}

// Validator verifies JWT signatures against a key provider's key set and
// validates the registered claims.
type Validator struct {
	provider           KeyProvider        // Required.
	signatureAlgorithm SignatureAlgorithm // Required.
	expectedIssuer     string             // Required.
	expectedAudiences  []string           // Required.
	customClaims       func() CustomClaims
	allowedClockSkew   time.Duration
}

// New sets up a new Validator from the given options.
//
// Required options: WithKeyProvider, WithAlgorithm, WithIssuer and
// WithAudience (or WithAudiences).
func New(opts ...Option) (*Validator, error) {
	v := &Validator{}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.provider == nil {
		return nil, errors.New("key provider is required but was not set")
	}
	if v.signatureAlgorithm == "" {
		return nil, errors.New("signature algorithm is required but was not set")
	}
	if v.expectedIssuer == "" {
		return nil, errors.New("issuer is required but was not set")
	}
	if len(v.expectedAudiences) == 0 {
		return nil, errors.New("audience is required but was not set")
	}

	return v, nil
}

// ValidateToken verifies the token's signature against the provider's key
// set and validates its claims. On a result that looks like a key rotation
// (the token references a key id that is not in the set, or the signature
// does not verify) it invalidates the provider's cache and retries exactly
// once with freshly fetched keys; all other failures are terminal on the
// first attempt. The returned value is a *ValidatedClaims.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (interface{}, error) {
	claims, err := v.validate(ctx, tokenString)
	if err == nil {
		return claims, nil
	}

	invalidator, ok := v.provider.(CacheInvalidator)
	if !ok || !isRotationError(err) {
		return nil, err
	}

	// The key id miss or bad signature may just mean the provider rotated
	// its keys after we cached them. Drop the cache and try once more.
	invalidator.Invalidate()

	return v.validate(ctx, tokenString)
}

// isRotationError reports whether the failure could be explained by a
// provider-side key rotation that our cached key set has not seen yet.
func isRotationError(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrSignatureInvalid)
}

// validate performs one verification attempt against the current key set.
func (v *Validator) validate(ctx context.Context, tokenString string) (*ValidatedClaims, error) {
	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one signature, got %d", ErrTokenMalformed, len(sigs))
	}
	headers := sigs[0].ProtectedHeaders()

	if alg := headers.Algorithm(); alg != jwa.SignatureAlgorithm(v.signatureAlgorithm) {
		return nil, fmt.Errorf("signing method is invalid: expected %q signing algorithm but token specified %q", v.signatureAlgorithm, alg)
	}

	set, err := v.provider.GetKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting the keys from the key provider: %w", err)
	}

	key, err := lookupKey(set, headers.KeyID())
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(tokenString), jws.WithKey(jwa.SignatureAlgorithm(v.signatureAlgorithm), key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	var claims rawClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: could not decode claims: %v", ErrTokenMalformed, err)
	}

	if err := v.validateClaimsWithLeeway(claims, time.Now()); err != nil {
		return nil, fmt.Errorf("expected claims not validated: %w", err)
	}

	var customClaims CustomClaims
	if v.customClaims != nil {
		customClaims = v.customClaims()
		if customClaims != nil {
			if err := json.Unmarshal(payload, customClaims); err != nil {
				return nil, fmt.Errorf("%w: could not decode custom claims: %v", ErrTokenMalformed, err)
			}
			if err := customClaims.Validate(ctx); err != nil {
				return nil, fmt.Errorf("custom claims not validated: %w", err)
			}
		}
	}

	return &ValidatedClaims{
		RegisteredClaims: RegisteredClaims{
			Issuer:    claims.Issuer,
			Subject:   claims.Subject,
			Audience:  claims.Audience,
			ID:        claims.ID,
			Expiry:    numericDateToUnixTime(claims.Expiry),
			NotBefore: numericDateToUnixTime(claims.NotBefore),
			IssuedAt:  numericDateToUnixTime(claims.IssuedAt),
		},
		CustomClaims: customClaims,
	}, nil
}

// lookupKey resolves the verification key for the given key id. A token
// without a kid header is accepted only against a single-key set.
func lookupKey(set jwk.Set, kid string) (jwk.Key, error) {
	if kid == "" {
		if set.Len() == 1 {
			key, _ := set.Key(0)
			return key, nil
		}
		return nil, fmt.Errorf("%w: token has no key id and the key set holds %d keys", ErrKeyNotFound, set.Len())
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}

	return key, nil
}

func (v *Validator) validateClaimsWithLeeway(claims rawClaims, now time.Time) error {
	leeway := v.allowedClockSkew

	if claims.Issuer != v.expectedIssuer {
		return ErrInvalidIssuer
	}

	foundAudience := false
	for _, expected := range v.expectedAudiences {
		for _, actual := range claims.Audience {
			if actual == expected {
				foundAudience = true
				break
			}
		}
	}
	if !foundAudience {
		return ErrInvalidAudience
	}

	if claims.NotBefore != nil && now.Add(leeway).Before(unixTime(*claims.NotBefore)) {
		return ErrTokenNotYetValid
	}

	if claims.Expiry != nil && now.Add(-leeway).After(unixTime(*claims.Expiry)) {
		return ErrTokenExpired
	}

	if claims.IssuedAt != nil && now.Add(leeway).Before(unixTime(*claims.IssuedAt)) {
		return ErrIssuedInTheFuture
	}

	return nil
}

func unixTime(sec float64) time.Time {
	return time.Unix(int64(sec), 0)
}
