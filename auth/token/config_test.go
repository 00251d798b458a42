package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stephnangue/gatekeeper/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2*time.Hour, cfg.Expiration)
	assert.Equal(t, 8, cfg.KeyLength)
	assert.Equal(t, NoCleanupThreshold, cfg.CleanupThreshold)
	assert.True(t, cfg.Refresh)
	assert.Equal(t, DefaultHashParams(), cfg.Hash)
}

func TestConfigFromOptions(t *testing.T) {
	cfg := ConfigFromOptions(config.Options{
		config.OptTokenExpiration:       "1500",
		config.OptTokenLength:           "16",
		config.OptTokenCleanupThreshold: "100",
		config.OptTokenRefresh:          "false",
		config.OptHashAlgorithm:         AlgPBKDF2SHA512,
		config.OptHashIterations:        "5000",
		config.OptHashSaltLength:        "32",
	})

	assert.Equal(t, 1500*time.Millisecond, cfg.Expiration)
	assert.Equal(t, 16, cfg.KeyLength)
	assert.Equal(t, 100, cfg.CleanupThreshold)
	assert.False(t, cfg.Refresh)
	assert.Equal(t, AlgPBKDF2SHA512, cfg.Hash.Algorithm)
	assert.Equal(t, 5000, cfg.Hash.Iterations)
	assert.Equal(t, 32, cfg.Hash.SaltLength)
}

func TestConfigFromOptionsFallsBack(t *testing.T) {
	cfg := ConfigFromOptions(config.Options{
		config.OptTokenExpiration: "whenever",
		config.OptTokenLength:     "wide",
	})

	assert.Equal(t, DefaultExpiration, cfg.Expiration)
	assert.Equal(t, DefaultKeyLength, cfg.KeyLength)

	empty := ConfigFromOptions(config.Options{})
	assert.Equal(t, DefaultConfig(), empty)
}
