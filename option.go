package keyward

// Option is how options for the JWTMiddleware are set up.
type Option func(*JWTMiddleware)

// WithCredentialsOptional sets up if credentials are optional or not.
// If set to true then an empty token will be considered valid.
//
// Default value: false.
func WithCredentialsOptional(value bool) Option {
	return func(m *JWTMiddleware) {
		m.credentialsOptional = value
	}
}

// WithValidateOnOptions sets up if OPTIONS requests should have their JWT
// validated or not.
//
// Default value: true.
func WithValidateOnOptions(value bool) Option {
	return func(m *JWTMiddleware) {
		m.validateOnOptions = value
	}
}

// WithErrorHandler sets the handler which is called when there are errors in
// the JWTMiddleware. See the ErrorHandler type for more information.
//
// Default value: DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *JWTMiddleware) {
		m.errorHandler = h
	}
}

// WithTokenExtractor sets up the function which extracts the JWT to be
// validated from the request.
//
// Default value: AuthHeaderTokenExtractor.
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *JWTMiddleware) {
		m.tokenExtractor = e
	}
}

// WithLogger sets an optional logger for the JWTMiddleware. Adapters for
// logrus, zap and zerolog are provided; see NewLogrusLogger, NewZapLogger
// and NewZerologLogger.
func WithLogger(l Logger) Option {
	return func(m *JWTMiddleware) {
		m.logger = l
	}
}

// WithMetrics sets an optional metrics sink for the JWTMiddleware. The
// middleware records a jwt_validation_total counter and a
// jwt_validation_duration_seconds histogram, both tagged with the
// validation result.
func WithMetrics(metrics Metrics) Option {
	return func(m *JWTMiddleware) {
		m.metrics = metrics
	}
}

// WithTracer sets an optional tracer for the JWTMiddleware.
func WithTracer(t Tracer) Option {
	return func(m *JWTMiddleware) {
		m.tracer = t
	}
}
