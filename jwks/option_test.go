package jwks

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, time.Hour, cfg.cacheTTL)
	assert.Equal(t, 2, cfg.refreshMaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.refreshBackoffBase)
	assert.Equal(t, 5*time.Second, cfg.refreshWaitTimeout)
	assert.Equal(t, time.Minute, cfg.refreshCooldown)
	assert.True(t, cfg.backgroundRefreshEnabled)
	assert.Equal(t, 80, cfg.backgroundRefreshThresholdPercent)
	assert.False(t, cfg.skipUnresolvedKeys)
	require.NotNil(t, cfg.httpClient)
	assert.Equal(t, 30*time.Second, cfg.httpClient.Timeout)
}

func TestOptionsApply(t *testing.T) {
	issuer, _ := url.Parse("https://issuer.example.com/")
	jwksURI, _ := url.Parse("https://issuer.example.com/jwks.json")
	client := &http.Client{Timeout: time.Second}

	cfg := defaultConfig()
	opts := []Option{
		WithIssuerURL(issuer),
		WithCustomJWKSURI(jwksURI),
		WithCustomClient(client),
		WithCacheTTL(10 * time.Minute),
		WithRefreshMaxRetries(5),
		WithRefreshBackoffBase(time.Second),
		WithRefreshWaitTimeout(time.Second),
		WithRefreshCooldown(10 * time.Second),
		WithBackgroundRefresh(false),
		WithBackgroundRefreshThreshold(50),
		WithSkipUnresolvedKeys(true),
	}
	for _, opt := range opts {
		require.NoError(t, opt(cfg))
	}

	assert.Equal(t, issuer, cfg.issuerURL)
	assert.Equal(t, jwksURI, cfg.customJWKSURI)
	assert.Same(t, client, cfg.httpClient)
	assert.Equal(t, 10*time.Minute, cfg.cacheTTL)
	assert.Equal(t, 5, cfg.refreshMaxRetries)
	assert.Equal(t, time.Second, cfg.refreshBackoffBase)
	assert.Equal(t, time.Second, cfg.refreshWaitTimeout)
	assert.Equal(t, 10*time.Second, cfg.refreshCooldown)
	assert.False(t, cfg.backgroundRefreshEnabled)
	assert.Equal(t, 50, cfg.backgroundRefreshThresholdPercent)
	assert.True(t, cfg.skipUnresolvedKeys)
}

func TestOptionsReject(t *testing.T) {
	cfg := defaultConfig()

	assert.Error(t, WithIssuerURL(nil)(cfg))
	assert.Error(t, WithCustomJWKSURI(nil)(cfg))
	assert.Error(t, WithCustomClient(nil)(cfg))
	assert.Error(t, WithCacheTTL(0)(cfg))
	assert.Error(t, WithCacheTTL(-time.Second)(cfg))
	assert.Error(t, WithRefreshMaxRetries(-1)(cfg))
	assert.Error(t, WithRefreshBackoffBase(-time.Second)(cfg))
	assert.Error(t, WithRefreshWaitTimeout(0)(cfg))
	assert.Error(t, WithRefreshCooldown(-time.Second)(cfg))
	assert.Error(t, WithLogger(nil)(cfg))
	assert.ErrorIs(t, WithBackgroundRefreshThreshold(0)(cfg), ErrInvalidRefreshThreshold)
	assert.ErrorIs(t, WithBackgroundRefreshThreshold(100)(cfg), ErrInvalidRefreshThreshold)
}

func TestConfigValidate(t *testing.T) {
	cfg := defaultConfig()
	assert.ErrorIs(t, cfg.validate(), ErrEndpointRequired)

	jwksURI, _ := url.Parse("https://issuer.example.com/jwks.json")
	require.NoError(t, WithCustomJWKSURI(jwksURI)(cfg))
	assert.NoError(t, cfg.validate())

	cfg.backgroundRefreshThresholdPercent = 100
	assert.ErrorIs(t, cfg.validate(), ErrInvalidRefreshThreshold)
}
