package config

import (
	"strconv"
	"time"
)

// Canonical token option names.
const (
	OptTokenExpiration       = "tokenExpiration"
	OptTokenLength           = "tokenLength"
	OptTokenCleanupThreshold = "tokenCleanupThreshold"
	OptTokenRefresh          = "tokenRefresh"
	OptHashAlgorithm         = "hashAlgorithm"
	OptHashIterations        = "hashIterations"
	OptHashSaltLength        = "hashSaltLength"
)

// Options is a loosely typed option map. Lookups never fail: a missing or
// malformed value yields the supplied default.
type Options map[string]string

// GetDuration reads a duration option. Values are either Go duration
// strings ("2h", "90m") or bare integers interpreted as milliseconds.
func (o Options) GetDuration(key string, def time.Duration) time.Duration {
	raw, ok := o[key]
	if !ok {
		return def
	}
	return ParseDuration(raw, def)
}

// GetInt reads an integer option, falling back to def when absent or
// malformed.
func (o Options) GetInt(key string, def int) int {
	raw, ok := o[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// GetBool reads a boolean option, falling back to def when absent or
// malformed.
func (o Options) GetBool(key string, def bool) bool {
	raw, ok := o[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// GetString reads a string option.
func (o Options) GetString(key string, def string) string {
	if raw, ok := o[key]; ok {
		return raw
	}
	return def
}

// ParseDuration parses a single duration value with the same rules as
// GetDuration.
func ParseDuration(raw string, def time.Duration) time.Duration {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}
