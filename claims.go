package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the verified contents of a first party token
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	GivenName() string
	FamilyName() string
	Picture() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims.
//
// The wire format carries the role as a single element collection for
// forward compatibility; every user holds exactly one role internally.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserEmail string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Given     string   `json:"givenName,omitempty"`
	Family    string   `json:"familyName,omitempty"`
	Avatar    string   `json:"picture,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim, the user's external ID
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the external user ID carried as the subject
func (c *JWTClaims) UserID() string {
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the user's single role
func (c *JWTClaims) Role() string {
	if len(c.Roles) == 0 {
		return ""
	}
	return c.Roles[0]
}

// GivenName returns the given name claim
func (c *JWTClaims) GivenName() string {
	return c.Given
}

// FamilyName returns the family name claim
func (c *JWTClaims) FamilyName() string {
	return c.Family
}

// Picture returns the avatar URL claim
func (c *JWTClaims) Picture() string {
	return c.Avatar
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.Role()).IsAtLeast(UserRole(minRole))
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
