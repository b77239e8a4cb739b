/*
Package keyward provides HTTP middleware for JWT authentication backed by
a cached JWKS key provider.

The module is built from three layers:

  - jwks: fetches the identity provider's JSON Web Key Set and caches it
    with single-flight refresh, proactive background renewal and failure
    cooldown.
  - validator: verifies token signatures against the provider's keys and
    validates the registered claims, invalidating the key cache and
    retrying once when a failure looks like a key rotation.
  - keyward (this package): net/http middleware that extracts the token
    from the request, runs it through a ValidateToken function and stores
    the validated claims in the request context.

Adapters for gin, echo and gRPC live under framework/.

# Quick Start

	import (
	    "github.com/keyward/keyward"
	    "github.com/keyward/keyward/jwks"
	    "github.com/keyward/keyward/validator"
	)

	issuerURL, _ := url.Parse("https://auth.example.com/")

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
	)
	if err != nil {
	    log.Fatal(err)
	}

	middleware := keyward.New(v.ValidateToken)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	    claims := r.Context().Value(keyward.ContextKey{}).(*validator.ValidatedClaims)
	    fmt.Fprintf(w, "hello %s", claims.RegisteredClaims.Subject)
	})

	http.ListenAndServe(":8080", middleware.CheckJWT(handler))

# Observability

The middleware accepts pluggable logging, metrics and tracing through
WithLogger, WithMetrics and WithTracer. Adapters are provided for logrus,
zap and zerolog (logging), Prometheus (metrics) and OpenTelemetry
(tracing); all default to no-ops.
*/
package keyward
