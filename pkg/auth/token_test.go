package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(lifetime time.Duration) *TokenService {
	return NewTokenService([]byte("test-signing-secret"), lifetime)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	subject := Subject{UserID: 42, Username: "alice", Role: RoleUser}
	token, err := svc.Issue(subject)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	assert.Len(t, parts, 3, "expected compact JWT serialization")

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, subject, *got)
}

func TestTokenExpiry(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	token, err := svc.Issue(Subject{UserID: 1, Username: "alice", Role: RoleUser})
	require.NoError(t, err)

	// Advance the clock past the lifetime; signature is still valid.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenTamperedSignature(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	token, err := svc.Issue(Subject{UserID: 1, Username: "alice", Role: RoleUser})
	require.NoError(t, err)

	// Flip a bit in the signature segment.
	idx := strings.LastIndex(token, ".") + 1
	sig := []byte(token[idx:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := token[:idx] + string(sig)

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService([]byte("secret-one"), time.Hour)
	verifier := NewTokenService([]byte("secret-two"), time.Hour)

	token, err := issuer.Issue(Subject{UserID: 1, Username: "alice", Role: RoleUser})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestTokenMalformed(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	for _, token := range []string{
		"",
		"not-a-token",
		"one.two",
		"one.two.three.four",
		"!!!.???.###",
	} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}
