package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSecret(t *testing.T) {
	secret := GenerateSecret(8)
	assert.Len(t, secret, 16)

	// hex only
	for _, c := range secret {
		assert.Contains(t, "0123456789abcdef", string(c))
	}

	assert.NotEqual(t, secret, GenerateSecret(8))
}

func TestGenerateCommitID(t *testing.T) {
	a := GenerateCommitID()
	b := GenerateCommitID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
