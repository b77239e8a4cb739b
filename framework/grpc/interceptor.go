package keywardgrpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/validator"
)

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Warnf(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// JWTInterceptor provides configurable JWT authentication for gRPC.
type JWTInterceptor struct {
	validateToken       keyward.ValidateToken
	tokenExtractor      TokenExtractor
	credentialsOptional bool
	exclusionChecker    func(method string) bool
	logger              keyward.Logger
	metrics             keyward.Metrics
	tracer              keyward.Tracer
}

// New creates a new JWTInterceptor with the given options.
func New(validateToken keyward.ValidateToken, opts ...Option) *JWTInterceptor {
	i := &JWTInterceptor{
		validateToken:       validateToken,
		tokenExtractor:      MetadataTokenExtractor,
		credentialsOptional: false,
		logger:              noopLogger{},
		metrics:             &keyward.NoopMetrics{},
		tracer:              &keyward.NoopTracer{},
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// authenticate handles token extraction, validation and context updating.
// It returns the new context with validated claims or an error.
func (i *JWTInterceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		return ctx, nil
	}

	span := i.tracer.StartSpan("keywardgrpc.authenticate")
	defer span.Finish()
	span.SetTag("grpc.method", method)

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		i.logger.Errorf("failed to extract token for %s: %v", method, err)
		i.observeResult(method, "extract_error", 0)
		span.SetTag("error", true)
		return nil, status.Errorf(codes.Unauthenticated, "error extracting token: %v", err)
	}

	if token == "" {
		if i.credentialsOptional {
			return ctx, nil
		}
		i.observeResult(method, "missing", 0)
		span.SetTag("error", true)
		return nil, status.Error(codes.Unauthenticated, "JWT token is missing")
	}

	start := time.Now()
	validToken, err := i.validateToken(ctx, token)
	elapsed := time.Since(start)

	if err != nil {
		i.logger.Warnf("JWT validation failed for %s: %v", method, err)
		i.observeResult(method, "invalid", elapsed.Seconds())
		span.SetTag("error", true)
		return nil, status.Errorf(codes.Unauthenticated, "invalid JWT token: %v", err)
	}

	i.observeResult(method, "valid", elapsed.Seconds())

	return context.WithValue(ctx, keyward.ContextKey{}, validToken), nil
}

func (i *JWTInterceptor) observeResult(method, result string, seconds float64) {
	tags := map[string]string{"method": method, "result": result}
	i.metrics.IncCounter("grpc_jwt_validation_total", tags)
	if seconds > 0 {
		i.metrics.ObserveHistogram("grpc_jwt_validation_duration_seconds", seconds, tags)
	}
}

// UnaryServerInterceptor returns a gRPC unary server interceptor for JWT authentication.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor for JWT authentication.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          authCtx,
		})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// GetClaimsFromContext retrieves the validated claims from the context.
// Returns nil if no claims are present.
func GetClaimsFromContext(ctx context.Context) *validator.ValidatedClaims {
	claims := ctx.Value(keyward.ContextKey{})
	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil
	}
	return validatedClaims
}

// RequireClaimsFromContext retrieves the validated claims from the context.
// Returns ErrMissingClaims if no claims are present, or ErrInvalidClaims if
// the claims are of an invalid type.
func RequireClaimsFromContext(ctx context.Context) (*validator.ValidatedClaims, error) {
	claims := ctx.Value(keyward.ContextKey{})
	if claims == nil {
		return nil, ErrMissingClaims
	}
	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return validatedClaims, nil
}
