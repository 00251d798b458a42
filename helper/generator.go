package helper

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/oklog/ulid"
)

// GenerateSecret returns byteLength cryptographically secure random bytes,
// hex encoded. The resulting string is 2*byteLength characters long.
func GenerateSecret(byteLength int) string {
	bytes := make([]byte, byteLength)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateSalt returns byteLength cryptographically secure random bytes.
func GenerateSalt(byteLength int) []byte {
	bytes := make([]byte, byteLength)
	rand.Read(bytes)
	return bytes
}

// GenerateCommitID returns a lexicographically sortable commit identifier.
func GenerateCommitID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
