package models

import "github.com/golang-jwt/jwt/v5"

// Role is the kind of account behind a principal.
type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated actor issuing a command.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Is reports whether the principal holds role r.
func (p Principal) Is(r Role) bool {
	return p.Role == r
}

// JWTClaims is the access token payload minted by the identity service.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal extracts the actor carried by the token.
func (c *JWTClaims) Principal() Principal {
	if c == nil {
		return Principal{}
	}
	return Principal{ID: c.UserID, Role: c.Role}
}
