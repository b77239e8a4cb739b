package jwks

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/keyward/keyward/internal/oidc"
)

// backgroundFetchTimeout bounds a detached background refresh, which runs
// on its own context independent of any caller.
const backgroundFetchTimeout = 30 * time.Second

// Provider fetches the key set from the identity provider on every call.
// Most likely you will want the CachingProvider instead, which serves keys
// from a TTL-bound cache with single-flight refresh and proactive renewal.
type Provider struct {
	cfg     *config
	fetcher *fetcher
}

// NewProvider builds and returns a new *Provider.
//
// Required options: WithIssuerURL or WithCustomJWKSURI.
// Optional options: WithCustomClient, WithSkipUnresolvedKeys, WithLogger.
func NewProvider(opts ...Option) (*Provider, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Provider{
		cfg: cfg,
		fetcher: &fetcher{
			client:         cfg.httpClient,
			skipUnresolved: cfg.skipUnresolvedKeys,
			logger:         cfg.logger,
		},
	}, nil
}

// GetKeys fetches the key set from the endpoint, discovering it from the
// issuer's well-known configuration if no custom URI was configured.
func (p *Provider) GetKeys(ctx context.Context) (jwk.Set, error) {
	jwksURL := p.cfg.customJWKSURI
	if jwksURL == nil {
		endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, p.cfg.httpClient, *p.cfg.issuerURL)
		if err != nil {
			return nil, err
		}

		jwksURL, err = url.Parse(endpoints.JWKSURI)
		if err != nil {
			return nil, fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
		}
	}

	return p.fetcher.fetch(ctx, jwksURL.String())
}

// KeyFunc adheres to the keyFunc signature used by token validators. As
// long as the error is nil the returned value is a jwk.Set.
func (p *Provider) KeyFunc(ctx context.Context) (interface{}, error) {
	return p.GetKeys(ctx)
}

// CachingProvider serves the identity provider's key set from an in-memory
// TTL-bound cache. It guarantees at most one in-flight fetch regardless of
// how many callers race a cold or expired cache, refreshes proactively in
// the background once the cache crosses a staleness threshold, and backs
// off after failed background attempts.
//
// A CachingProvider owns its cache and refresh state; separate instances
// never share either. All methods are safe for concurrent use.
type CachingProvider struct {
	cfg      *config
	fetcher  *fetcher
	store    *keyStore
	refresh  *refreshCoordinator
	cooldown *cooldownTracker
	logger   Logger

	// JWKS URI, lazily discovered from the issuer when not configured.
	jwksURLMu sync.Mutex
	jwksURL   string
}

// NewCachingProvider builds and returns a new *CachingProvider.
//
// Required options: WithIssuerURL or WithCustomJWKSURI.
// All cache and refresh settings have defaults; see the Option docs.
// Construction fails if the background refresh threshold lies outside the
// open interval (0, 100).
func NewCachingProvider(opts ...Option) (*CachingProvider, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &CachingProvider{
		cfg: cfg,
		fetcher: &fetcher{
			client:         cfg.httpClient,
			skipUnresolved: cfg.skipUnresolvedKeys,
			logger:         cfg.logger,
		},
		store:    &keyStore{},
		refresh:  newRefreshCoordinator(),
		cooldown: newCooldownTracker(cfg.refreshCooldown),
		logger:   cfg.logger,
	}
	if cfg.customJWKSURI != nil {
		c.jwksURL = cfg.customJWKSURI.String()
	}

	return c, nil
}

// GetKeys returns the current key set. It serves from the cache whenever
// the entry is younger than the TTL, triggering a proactive background
// refresh (without waiting on it) once the entry's age crosses the
// configured threshold. On an empty or expired cache exactly one caller
// performs a blocking refresh with bounded retry while the rest wait for
// its completion, bounded by the refresh wait timeout.
func (c *CachingProvider) GetKeys(ctx context.Context) (jwk.Set, error) {
	if set, ok := c.cachedKeys(); ok {
		return set, nil
	}

	// Cache empty or expired. Exactly one caller wins the refresh lock;
	// everyone else waits on its completion.
	if c.refresh.tryAcquire() {
		return c.refreshBlocking(ctx)
	}

	return c.waitForRefresh()
}

// Invalidate empties the cache so the next GetKeys call performs a fresh
// fetch. Used by validators that suspect a provider-side key rotation.
func (c *CachingProvider) Invalidate() {
	c.logger.Debugf("invalidating cached key set")
	c.store.clear()
}

// Refresh fetches the key set immediately and replaces the cache
// regardless of its expiration status. It can be used for warm-up at
// startup or from a cron task when background refresh is disabled.
func (c *CachingProvider) Refresh(ctx context.Context) (jwk.Set, error) {
	jwksURL, err := c.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	set, err := c.fetcher.fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	c.store.replace(set, time.Now())
	c.cooldown.recordSuccess()

	return set, nil
}

// KeyFunc adheres to the keyFunc signature used by token validators. As
// long as the error is nil the returned value is a jwk.Set.
func (c *CachingProvider) KeyFunc(ctx context.Context) (interface{}, error) {
	return c.GetKeys(ctx)
}

// cachedKeys returns the cached set when it is younger than the TTL,
// kicking off a background refresh when the entry has crossed the
// staleness threshold. Callers never block on that refresh.
func (c *CachingProvider) cachedKeys() (jwk.Set, bool) {
	set, fetchedAt, ok := c.store.snapshot()
	if !ok {
		c.logger.Debugf("key cache miss")
		return nil, false
	}

	age := time.Since(fetchedAt)
	if age >= c.cfg.cacheTTL {
		c.logger.Debugf("key cache expired (age %s)", age)
		return nil, false
	}

	threshold := c.cfg.cacheTTL * time.Duration(c.cfg.backgroundRefreshThresholdPercent) / 100
	if c.cfg.backgroundRefreshEnabled && age >= threshold {
		c.maybeTriggerBackgroundRefresh()
	}

	return set, true
}

// maybeTriggerBackgroundRefresh launches a detached refresh task when the
// cooldown does not suppress it and no refresh is already in flight. It
// reports whether a task was launched.
func (c *CachingProvider) maybeTriggerBackgroundRefresh() bool {
	if c.cooldown.shouldSuppress(time.Now()) {
		c.logger.Debugf("respecting refresh cooldown, delaying background key refresh")
		return false
	}
	if !c.refresh.tryAcquire() {
		c.logger.Debugf("key refresh already in progress")
		return false
	}

	c.logger.Debugf("triggering background key refresh")
	go c.backgroundRefresh()

	return true
}

// backgroundRefresh makes exactly one fetch attempt; pacing between failed
// attempts comes from the cooldown, not from retries, so a background task
// never holds the refresh lock through a backoff sequence. It runs on its
// own context, detached from whichever call triggered it.
func (c *CachingProvider) backgroundRefresh() {
	defer c.refresh.releaseAndNotify()

	ctx, cancel := context.WithTimeout(context.Background(), backgroundFetchTimeout)
	defer cancel()

	jwksURL, err := c.endpoint(ctx)
	if err == nil {
		var set jwk.Set
		set, err = c.fetcher.fetch(ctx, jwksURL)
		if err == nil {
			c.store.replace(set, time.Now())
			c.cooldown.recordSuccess()
			c.logger.Debugf("background key refresh successful")
			return
		}
	}

	c.cooldown.recordFailure(time.Now())
	c.logger.Warnf("background key refresh failed: %v", err)
}

// refreshBlocking performs the caller-visible refresh with bounded retry.
// The refresh lock is assumed held; it is released, and waiters notified,
// on every exit path. A failure here leaves the cache entry and the
// cooldown untouched: the caller's own retry budget is the pacing.
func (c *CachingProvider) refreshBlocking(ctx context.Context) (jwk.Set, error) {
	defer c.refresh.releaseAndNotify()

	jwksURL, err := c.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	set, err := c.fetcher.fetchWithRetry(ctx, jwksURL, c.cfg.refreshMaxRetries, c.cfg.refreshBackoffBase)
	if err != nil {
		c.logger.Errorf("key refresh failed after %s: %v", time.Since(start), err)
		return nil, err
	}

	c.store.replace(set, time.Now())
	c.cooldown.recordSuccess()
	c.logger.Infof("fetched and cached %d signing keys in %s", set.Len(), time.Since(start))

	return set, nil
}

// waitForRefresh blocks until the in-flight refresh completes or the wait
// timeout elapses, then re-reads the cache. A notification only means the
// refresh ended; if the cache is still empty or expired the refresh failed
// and the waiter fails with it.
func (c *CachingProvider) waitForRefresh() (jwk.Set, error) {
	c.logger.Debugf("waiting for in-flight key refresh")

	if !c.refresh.waitForCompletion(c.cfg.refreshWaitTimeout) {
		return nil, ErrRefreshTimeout
	}

	set, fetchedAt, ok := c.store.snapshot()
	if ok && time.Since(fetchedAt) < c.cfg.cacheTTL {
		return set, nil
	}

	return nil, ErrCacheMiss
}

// endpoint returns the key endpoint URL, discovering it from the issuer's
// well-known configuration on first use when no custom URI was configured.
// Discovery failures are not cached; the next call retries.
func (c *CachingProvider) endpoint(ctx context.Context) (string, error) {
	c.jwksURLMu.Lock()
	defer c.jwksURLMu.Unlock()

	if c.jwksURL != "" {
		return c.jwksURL, nil
	}

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, c.cfg.httpClient, *c.cfg.issuerURL)
	if err != nil {
		return "", fmt.Errorf("failed to discover JWKS URI: %w", err)
	}
	if _, err := url.Parse(endpoints.JWKSURI); err != nil {
		return "", fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
	}

	c.jwksURL = endpoints.JWKSURI

	return c.jwksURL, nil
}
