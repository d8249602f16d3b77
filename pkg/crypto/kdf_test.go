package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	first := DeriveKey("Secret123", salt)
	second := DeriveKey("Secret123", salt)
	assert.Equal(t, first, second)
}

func TestDeriveKeyOutputFormat(t *testing.T) {
	key := DeriveKey("password", "0123456789abcdef")
	// 32-byte key, hex-encoded.
	assert.Len(t, key, 64)
	assert.Regexp(t, "^[0-9a-f]+$", key)
}

func TestDeriveKeySensitivity(t *testing.T) {
	salt := "0123456789abcdef"

	assert.NotEqual(t, DeriveKey("password", salt), DeriveKey("Password", salt))
	assert.NotEqual(t, DeriveKey("password", salt), DeriveKey("password", "fedcba9876543210"))
}
