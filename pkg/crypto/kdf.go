package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters. These are fixed and versioned: changing any of them
// invalidates every stored derived key, so a migration path is required
// before they can ever move.
const (
	// SaltLength is the length in printable characters of generated salts.
	SaltLength = 16

	kdfIterations = 10000
	kdfKeyLength  = 32 // 256-bit derived key
)

// DeriveKey derives a storage key from a password and salt using
// PBKDF2-HMAC-SHA256. The result is hex-encoded (64 characters) and
// deterministic for a given (password, salt) pair.
func DeriveKey(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), kdfIterations, kdfKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// NewSalt generates a fresh credential salt.
func NewSalt() (string, error) {
	return RandomString(SaltLength)
}
