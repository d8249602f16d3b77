package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT claim set: the registered claims plus the username and
// role the API needs without a database round trip.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenService issues and verifies HMAC-SHA256 signed bearer tokens in
// compact JWT serialization. The signing secret is loaded once at startup
// and held for the process lifetime; there is no runtime rotation.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service with the given secret and token
// lifetime.
func NewTokenService(secret []byte, lifetime time.Duration) *TokenService {
	return &TokenService{
		secret:   secret,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime returns the configured token validity duration.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue mints a signed token for the subject with iat = now and
// exp = now + lifetime (UTC seconds).
func (s *TokenService) Issue(subject Subject) (string, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
		Username: subject.Username,
		Role:     string(subject.Role),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify validates the compact serialization, signature, and expiry of a
// token and returns the embedded subject. Failures are classified as
// ErrTokenMalformed, ErrTokenSignature, or ErrTokenExpired.
func (s *TokenService) Verify(tokenString string) (*Subject, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrTokenMalformed
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenSignature
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	return &Subject{
		UserID:   userID,
		Username: claims.Username,
		Role:     Role(claims.Role),
	}, nil
}
