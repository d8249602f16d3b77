package auth

import "errors"

var (
	// ErrInvalidArgument indicates malformed input (empty login or password).
	ErrInvalidArgument = errors.New("auth: invalid argument")

	// ErrDuplicateLogin indicates the login is already registered.
	ErrDuplicateLogin = errors.New("auth: login already exists")

	// ErrAuthFailed is the single failure returned for both unknown logins
	// and wrong passwords so callers cannot enumerate accounts.
	ErrAuthFailed = errors.New("auth: invalid username or password")

	// ErrTokenMalformed indicates the token is not a well-formed compact JWT
	// (not exactly three dot-separated segments, or undecodable).
	ErrTokenMalformed = errors.New("auth: token format invalid")

	// ErrTokenSignature indicates the HMAC signature did not verify.
	ErrTokenSignature = errors.New("auth: token signature mismatch")

	// ErrTokenExpired indicates the token's expiry is in the past.
	ErrTokenExpired = errors.New("auth: token expired")
)
