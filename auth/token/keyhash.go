package token

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/stephnangue/gatekeeper/helper"
)

// Supported hash algorithms.
const (
	AlgPBKDF2SHA256 = "pbkdf2-sha256"
	AlgPBKDF2SHA512 = "pbkdf2-sha512"
)

const (
	DefaultHashAlgorithm  = AlgPBKDF2SHA256
	DefaultHashIterations = 10000
	DefaultSaltLength     = 16

	derivedKeyLength = 32
)

// HashParams drive hash computation. Produced hashes embed the parameters
// so verification keeps working after the configuration changes.
type HashParams struct {
	Algorithm  string
	Iterations int
	SaltLength int
}

// DefaultHashParams returns the default hash parameters.
func DefaultHashParams() HashParams {
	return HashParams{
		Algorithm:  DefaultHashAlgorithm,
		Iterations: DefaultHashIterations,
		SaltLength: DefaultSaltLength,
	}
}

func (p HashParams) normalized() HashParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultHashAlgorithm
	}
	if p.Iterations <= 0 {
		p.Iterations = DefaultHashIterations
	}
	if p.SaltLength <= 0 {
		p.SaltLength = DefaultSaltLength
	}
	return p
}

func digestFor(algorithm string) (func() hash.Hash, error) {
	switch algorithm {
	case AlgPBKDF2SHA256:
		return sha256.New, nil
	case AlgPBKDF2SHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Hash computes a one-way salted hash of material. The result is
// self-describing: $<algorithm>$i=<iterations>$<saltB64>$<keyB64>.
func Hash(material string, params HashParams) (string, error) {
	params = params.normalized()

	digest, err := digestFor(params.Algorithm)
	if err != nil {
		return "", err
	}

	salt := helper.GenerateSalt(params.SaltLength)
	key := pbkdf2.Key([]byte(material), salt, params.Iterations, derivedKeyLength, digest)

	return fmt.Sprintf("$%s$i=%d$%s$%s",
		params.Algorithm,
		params.Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify checks candidate material against a stored hash using the
// algorithm, iterations and salt embedded in the stored string, so tokens
// issued under an older configuration keep validating. The comparison is
// constant time in the key length.
func Verify(stored, material string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 5 || parts[0] != "" {
		return false
	}

	digest, err := digestFor(parts[1])
	if err != nil {
		return false
	}

	var iterations int
	if _, err := fmt.Sscanf(parts[2], "i=%d", &iterations); err != nil || iterations <= 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := pbkdf2.Key([]byte(material), salt, iterations, len(expected), digest)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
