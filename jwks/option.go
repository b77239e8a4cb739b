package jwks

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Default configuration values. Each can be overridden independently with
// the corresponding option.
const (
	DefaultCacheTTL           = time.Hour
	DefaultRefreshMaxRetries  = 2
	DefaultRefreshBackoffBase = 100 * time.Millisecond
	DefaultRefreshWaitTimeout = 5 * time.Second
	DefaultRefreshCooldown    = time.Minute
	DefaultRefreshThreshold   = 80
)

// Option configures a Provider or CachingProvider.
// Options return errors to enable validation during construction.
type Option func(*config) error

// config is the immutable configuration snapshot built once by NewProvider
// or NewCachingProvider and never mutated thereafter.
type config struct {
	issuerURL     *url.URL
	customJWKSURI *url.URL
	httpClient    *http.Client

	cacheTTL           time.Duration
	refreshMaxRetries  int
	refreshBackoffBase time.Duration
	refreshWaitTimeout time.Duration
	refreshCooldown    time.Duration

	backgroundRefreshEnabled          bool
	backgroundRefreshThresholdPercent int

	skipUnresolvedKeys bool
	logger             Logger
}

func defaultConfig() *config {
	return &config{
		httpClient:                        &http.Client{Timeout: 30 * time.Second},
		cacheTTL:                          DefaultCacheTTL,
		refreshMaxRetries:                 DefaultRefreshMaxRetries,
		refreshBackoffBase:                DefaultRefreshBackoffBase,
		refreshWaitTimeout:                DefaultRefreshWaitTimeout,
		refreshCooldown:                   DefaultRefreshCooldown,
		backgroundRefreshEnabled:          true,
		backgroundRefreshThresholdPercent: DefaultRefreshThreshold,
		logger:                            noopLogger{},
	}
}

func (c *config) validate() error {
	if c.issuerURL == nil && c.customJWKSURI == nil {
		return ErrEndpointRequired
	}
	if c.backgroundRefreshThresholdPercent <= 0 || c.backgroundRefreshThresholdPercent >= 100 {
		return ErrInvalidRefreshThreshold
	}
	return nil
}

// WithIssuerURL sets the identity provider's issuer URL. The JWKS endpoint
// is discovered from the issuer's well-known OIDC configuration on first
// use unless WithCustomJWKSURI is also given.
func WithIssuerURL(issuerURL *url.URL) Option {
	return func(c *config) error {
		if issuerURL == nil {
			return fmt.Errorf("issuer URL cannot be nil")
		}
		c.issuerURL = issuerURL
		return nil
	}
}

// WithCustomJWKSURI sets the key endpoint directly, skipping OIDC
// discovery.
func WithCustomJWKSURI(jwksURI *url.URL) Option {
	return func(c *config) error {
		if jwksURI == nil {
			return fmt.Errorf("custom JWKS URI cannot be nil")
		}
		c.customJWKSURI = jwksURI
		return nil
	}
}

// WithCustomClient sets a custom HTTP client.
// If not specified, a default client with a 30s timeout is used.
func WithCustomClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithCacheTTL sets how long a fetched key set is served before it is
// considered expired. Default: 1 hour.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithRefreshMaxRetries sets how many retries a blocking refresh makes
// after its unconditional first attempt. Background refreshes never retry;
// they are paced by the failure cooldown instead. Default: 2.
func WithRefreshMaxRetries(retries int) Option {
	return func(c *config) error {
		if retries < 0 {
			return fmt.Errorf("refresh max retries cannot be negative")
		}
		c.refreshMaxRetries = retries
		return nil
	}
}

// WithRefreshBackoffBase sets the base for the exponential backoff between
// blocking refresh attempts: the n-th retry waits base * 2^n.
// Default: 100ms.
func WithRefreshBackoffBase(base time.Duration) Option {
	return func(c *config) error {
		if base < 0 {
			return fmt.Errorf("refresh backoff base cannot be negative")
		}
		c.refreshBackoffBase = base
		return nil
	}
}

// WithRefreshWaitTimeout bounds how long a caller that lost the
// single-flight race waits for the in-flight refresh to complete.
// Default: 5 seconds.
func WithRefreshWaitTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout <= 0 {
			return fmt.Errorf("refresh wait timeout must be positive")
		}
		c.refreshWaitTimeout = timeout
		return nil
	}
}

// WithRefreshCooldown sets the minimum interval between background refresh
// attempt-sets after a failure. Default: 60 seconds.
func WithRefreshCooldown(cooldown time.Duration) Option {
	return func(c *config) error {
		if cooldown < 0 {
			return fmt.Errorf("refresh cooldown cannot be negative")
		}
		c.refreshCooldown = cooldown
		return nil
	}
}

// WithBackgroundRefresh enables or disables proactive refreshes once the
// cache crosses the staleness threshold. Default: enabled.
func WithBackgroundRefresh(enabled bool) Option {
	return func(c *config) error {
		c.backgroundRefreshEnabled = enabled
		return nil
	}
}

// WithBackgroundRefreshThreshold sets the percentage of the cache TTL after
// which a read triggers a proactive background refresh. The value must lie
// strictly between 0 and 100. Default: 80.
func WithBackgroundRefreshThreshold(percent int) Option {
	return func(c *config) error {
		if percent <= 0 || percent >= 100 {
			return ErrInvalidRefreshThreshold
		}
		c.backgroundRefreshThresholdPercent = percent
		return nil
	}
}

// WithSkipUnresolvedKeys controls how key entries that cannot be resolved
// (unknown type, missing parameters) are handled: skipped and logged when
// enabled, a hard parse error otherwise. Default: disabled.
func WithSkipUnresolvedKeys(skip bool) Option {
	return func(c *config) error {
		c.skipUnresolvedKeys = skip
		return nil
	}
}

// WithLogger sets an optional logger for the refresh lifecycle.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
