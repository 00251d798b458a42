package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the configuration for a gatekeeper instance.
type Config struct {
	LogLevel           string `hcl:"log_level,optional"`
	LogFormat          string `hcl:"log_format,optional"`
	LogFile            string `hcl:"log_file,optional"`
	LogRotateMegabytes int    `hcl:"log_rotate_megabytes,optional"`
	LogRotateMaxFiles  int    `hcl:"log_rotate_max_files,optional"`

	Token *TokenBlock `hcl:"token,block"`
}

// TokenBlock carries the token manager options.
type TokenBlock struct {
	Expiration       string `hcl:"expiration,optional"`        // e.g. "2h" or milliseconds
	Length           int    `hcl:"length,optional"`            // secret length in bytes
	CleanupThreshold int    `hcl:"cleanup_threshold,optional"` // 0 disables cleanup
	Refresh          *bool  `hcl:"refresh,optional"`

	HashAlgorithm  string `hcl:"hash_algorithm,optional"`
	HashIterations int    `hcl:"hash_iterations,optional"`
	HashSaltLength int    `hcl:"hash_salt_length,optional"`
}

// Options returns the token block as an option map using the canonical
// option names.
func (t *TokenBlock) Options() Options {
	options := make(Options)
	if t == nil {
		return options
	}
	if t.Expiration != "" {
		options[OptTokenExpiration] = t.Expiration
	}
	if t.Length != 0 {
		options[OptTokenLength] = fmt.Sprintf("%d", t.Length)
	}
	if t.CleanupThreshold != 0 {
		options[OptTokenCleanupThreshold] = fmt.Sprintf("%d", t.CleanupThreshold)
	}
	if t.Refresh != nil {
		options[OptTokenRefresh] = fmt.Sprintf("%t", *t.Refresh)
	}
	if t.HashAlgorithm != "" {
		options[OptHashAlgorithm] = t.HashAlgorithm
	}
	if t.HashIterations != 0 {
		options[OptHashIterations] = fmt.Sprintf("%d", t.HashIterations)
	}
	if t.HashSaltLength != 0 {
		options[OptHashSaltLength] = fmt.Sprintf("%d", t.HashSaltLength)
	}
	return options
}

// LoadConfig reads an HCL configuration file.
func LoadConfig(configFile string) (*Config, error) {
	var config Config
	err := hclsimple.DecodeFile(configFile, nil, &config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
