// Package crypto provides the entropy and key-derivation primitives used by
// the credential subsystem: random salts and filenames, and the PBKDF2
// derivation applied to passwords before storage.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrInvalidLength is returned when a non-positive length is requested.
var ErrInvalidLength = errors.New("crypto: length must be positive")

const (
	// alphanumeric is the alphabet used for salts and printable tokens.
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// fileSafe is a lowercase alphabet for generated object keys and filenames.
	fileSafe = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return buf, nil
}

// RandomString returns a printable string of length n drawn from the
// letters+digits alphabet.
func RandomString(n int) (string, error) {
	return randomFromAlphabet(n, alphanumeric)
}

// RandomFileName returns a filesystem-safe string of length n, suitable for
// stored upload names and blob keys.
func RandomFileName(n int) (string, error) {
	return randomFromAlphabet(n, fileSafe)
}

func randomFromAlphabet(n int, alphabet string) (string, error) {
	raw, err := RandomBytes(n)
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
