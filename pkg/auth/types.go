// Package auth implements the credential and session subsystem: salted
// PBKDF2 credential storage and verification, and HMAC-signed bearer token
// issuance and validation.
package auth

// Role is the authorization level carried by a credential and its tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Subject is the verified identity carried by a token and attached to the
// request context by the auth middleware.
type Subject struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the subject holds the admin role.
func (s *Subject) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
