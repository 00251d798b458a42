package token

import (
	"time"

	"github.com/stephnangue/gatekeeper/config"
)

// Default token manager settings.
const (
	// DefaultExpiration is the default time-to-live of login tokens.
	DefaultExpiration = 2 * time.Hour

	// DefaultKeyLength is the default secret length in bytes.
	DefaultKeyLength = 8

	// NoCleanupThreshold disables cleanup of expired records.
	NoCleanupThreshold = 0
)

// Config holds the token manager configuration.
type Config struct {
	// Expiration is the time-to-live applied to new tokens unless an
	// issuance attribute overrides it.
	Expiration time.Duration

	// KeyLength is the secret length in bytes; the hex-encoded secret is
	// twice as long.
	KeyLength int

	// CleanupThreshold is the container size that, once reached, arms
	// cleanup of expired records. Zero disables cleanup.
	CleanupThreshold int

	// Refresh enables sliding expiration on successful logins.
	Refresh bool

	// Hash drives key hash computation for newly issued tokens.
	Hash HashParams
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Expiration:       DefaultExpiration,
		KeyLength:        DefaultKeyLength,
		CleanupThreshold: NoCleanupThreshold,
		Refresh:          true,
		Hash:             DefaultHashParams(),
	}
}

// ConfigFromOptions builds a Config from an option map. Missing or
// malformed values fall back to the defaults; option errors are never
// fatal.
func ConfigFromOptions(options config.Options) *Config {
	return &Config{
		Expiration:       options.GetDuration(config.OptTokenExpiration, DefaultExpiration),
		KeyLength:        options.GetInt(config.OptTokenLength, DefaultKeyLength),
		CleanupThreshold: options.GetInt(config.OptTokenCleanupThreshold, NoCleanupThreshold),
		Refresh:          options.GetBool(config.OptTokenRefresh, true),
		Hash: HashParams{
			Algorithm:  options.GetString(config.OptHashAlgorithm, DefaultHashAlgorithm),
			Iterations: options.GetInt(config.OptHashIterations, DefaultHashIterations),
			SaltLength: options.GetInt(config.OptHashSaltLength, DefaultSaltLength),
		},
	}
}
