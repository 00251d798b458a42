package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `
log_level  = "debug"
log_format = "json"

token {
  expiration        = "30m"
  length            = 16
  cleanup_threshold = 100
  refresh           = false
  hash_algorithm    = "pbkdf2-sha256"
  hash_iterations   = 5000
}
`
	path := filepath.Join(t.TempDir(), "gatekeeper.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	require.NotNil(t, cfg.Token)

	options := cfg.Token.Options()
	assert.Equal(t, 30*time.Minute, options.GetDuration(OptTokenExpiration, 2*time.Hour))
	assert.Equal(t, 16, options.GetInt(OptTokenLength, 8))
	assert.Equal(t, 100, options.GetInt(OptTokenCleanupThreshold, 0))
	assert.False(t, options.GetBool(OptTokenRefresh, true))
	assert.Equal(t, "pbkdf2-sha256", options.GetString(OptHashAlgorithm, "pbkdf2-sha256"))
}

func TestOptions_MalformedFallsBackToDefault(t *testing.T) {
	options := Options{
		OptTokenExpiration:       "not-a-duration",
		OptTokenLength:           "eight",
		OptTokenRefresh:          "yep",
		OptTokenCleanupThreshold: "12.5",
	}

	assert.Equal(t, 2*time.Hour, options.GetDuration(OptTokenExpiration, 2*time.Hour))
	assert.Equal(t, 8, options.GetInt(OptTokenLength, 8))
	assert.True(t, options.GetBool(OptTokenRefresh, true))
	assert.Equal(t, 0, options.GetInt(OptTokenCleanupThreshold, 0))
}

func TestOptions_MillisecondDurations(t *testing.T) {
	options := Options{OptTokenExpiration: "1000"}
	assert.Equal(t, time.Second, options.GetDuration(OptTokenExpiration, 2*time.Hour))
}
