package keywardgrpc

import (
	"github.com/keyward/keyward"
)

// Option defines a functional option for configuring the gRPC interceptor.
type Option func(*JWTInterceptor)

// WithTokenExtractor sets a custom token extractor.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *JWTInterceptor) {
		i.tokenExtractor = extractor
	}
}

// WithCredentialsOptional sets whether requests without a token are allowed
// through without claims.
func WithCredentialsOptional(value bool) Option {
	return func(i *JWTInterceptor) {
		i.credentialsOptional = value
	}
}

// WithExcludedMethods configures a list of gRPC methods to exclude from JWT validation.
func WithExcludedMethods(methods []string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return func(i *JWTInterceptor) {
		i.exclusionChecker = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
	}
}

// WithExclusionChecker configures a custom exclusion checker for gRPC methods.
func WithExclusionChecker(checker func(string) bool) Option {
	return func(i *JWTInterceptor) {
		i.exclusionChecker = checker
	}
}

// WithLogger sets an optional logger for the interceptor.
func WithLogger(l keyward.Logger) Option {
	return func(i *JWTInterceptor) {
		i.logger = l
	}
}

// WithMetrics sets an optional metrics sink for the interceptor.
func WithMetrics(m keyward.Metrics) Option {
	return func(i *JWTInterceptor) {
		i.metrics = m
	}
}

// WithTracer sets an optional tracer for the interceptor.
func WithTracer(t keyward.Tracer) Option {
	return func(i *JWTInterceptor) {
		i.tracer = t
	}
}
