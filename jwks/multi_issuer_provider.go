package jwks

import (
	"container/list"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// MultiIssuerProvider manages caching providers for multiple issuers.
// Providers are created on demand, one per issuer, each with its own key
// cache and refresh lifecycle. Entries are evicted least-recently-used once
// the configured limit is reached.
//
// Thread-safe for concurrent access across multiple requests.
type MultiIssuerProvider struct {
	mu           sync.RWMutex
	providers    map[string]*providerEntry
	lruList      *list.List
	maxProviders int // 0 means unlimited
	cacheTTL     time.Duration
	httpClient   *http.Client
	logger       Logger
}

type providerEntry struct {
	provider   *CachingProvider
	lruElement *list.Element
	lastUsed   time.Time
}

// MultiIssuerOption configures a MultiIssuerProvider.
type MultiIssuerOption func(*MultiIssuerProvider) error

// WithMultiIssuerCacheTTL sets the key cache TTL applied to every
// per-issuer provider.
func WithMultiIssuerCacheTTL(ttl time.Duration) MultiIssuerOption {
	return func(p *MultiIssuerProvider) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %s", ttl)
		}
		p.cacheTTL = ttl
		return nil
	}
}

// WithMultiIssuerClient sets the HTTP client shared by every per-issuer
// provider.
func WithMultiIssuerClient(client *http.Client) MultiIssuerOption {
	return func(p *MultiIssuerProvider) error {
		if client == nil {
			return fmt.Errorf("http client must not be nil")
		}
		p.httpClient = client
		return nil
	}
}

// WithMaxProviders bounds the number of cached per-issuer providers. Once
// the limit is reached the least-recently-used provider is evicted.
func WithMaxProviders(max int) MultiIssuerOption {
	return func(p *MultiIssuerProvider) error {
		if max < 0 {
			return fmt.Errorf("max providers must not be negative, got %d", max)
		}
		p.maxProviders = max
		return nil
	}
}

// WithMultiIssuerLogger sets the logger passed to every per-issuer provider.
func WithMultiIssuerLogger(l Logger) MultiIssuerOption {
	return func(p *MultiIssuerProvider) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		p.logger = l
		return nil
	}
}

// NewMultiIssuerProvider creates a MultiIssuerProvider. Per-issuer providers
// inherit the configured cache TTL, HTTP client and logger.
func NewMultiIssuerProvider(opts ...MultiIssuerOption) (*MultiIssuerProvider, error) {
	p := &MultiIssuerProvider{
		providers:  make(map[string]*providerEntry),
		lruList:    list.New(),
		cacheTTL:   15 * time.Minute,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return p, nil
}

// ProviderFor returns the caching provider for the given issuer URL,
// creating it on first use.
func (p *MultiIssuerProvider) ProviderFor(issuer string) (*CachingProvider, error) {
	// Fast path: provider already exists.
	p.mu.RLock()
	entry, exists := p.providers[issuer]
	p.mu.RUnlock()

	if exists {
		p.touch(entry)
		return entry.provider, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock.
	if entry, exists = p.providers[issuer]; exists {
		entry.lastUsed = time.Now()
		p.lruList.MoveToFront(entry.lruElement)
		return entry.provider, nil
	}

	if p.maxProviders > 0 && len(p.providers) >= p.maxProviders {
		p.evictLRU()
	}

	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer URL %q: %w", issuer, err)
	}

	provider, err := NewCachingProvider(
		WithIssuerURL(issuerURL),
		WithCacheTTL(p.cacheTTL),
		WithCustomClient(p.httpClient),
		WithLogger(p.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider for issuer %q: %w", issuer, err)
	}

	entry = &providerEntry{
		provider: provider,
		lastUsed: time.Now(),
	}
	entry.lruElement = p.lruList.PushFront(issuer)
	p.providers[issuer] = entry

	return provider, nil
}

// Invalidate drops the cached keys of the given issuer's provider, if one
// exists. The provider itself stays cached.
func (p *MultiIssuerProvider) Invalidate(issuer string) {
	p.mu.RLock()
	entry, exists := p.providers[issuer]
	p.mu.RUnlock()

	if exists {
		entry.provider.Invalidate()
	}
}

// ProviderCount returns the number of per-issuer providers currently cached.
func (p *MultiIssuerProvider) ProviderCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.providers)
}

func (p *MultiIssuerProvider) touch(entry *providerEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry.lastUsed = time.Now()
	p.lruList.MoveToFront(entry.lruElement)
}

// evictLRU removes the least-recently-used provider. Callers must hold the
// write lock.
func (p *MultiIssuerProvider) evictLRU() {
	oldest := p.lruList.Back()
	if oldest == nil {
		return
	}

	issuer := oldest.Value.(string)
	delete(p.providers, issuer)
	p.lruList.Remove(oldest)
}
