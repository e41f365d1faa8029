package identity

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the narrow view of an account consumed when minting tokens.
// ID returns the external identifier, which becomes the token subject.
type Identity interface {
	ID() string
	Email() string
	Role() string
	GivenName() string
	FamilyName() string
	Picture() string
}

// TokenService mints and validates first party tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// ProviderVerifier validates a token issued by an external OAuth provider
// and returns the claims we consume from it.
type ProviderVerifier interface {
	Verify(ctx context.Context, rawToken string) (*ProviderClaims, error)
}

// ProviderClaims is the subset of provider token claims used to mirror
// an account locally. It is never persisted as-is.
type ProviderClaims struct {
	Subject    string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// TokenExchanger runs the provider token exchange flow.
type TokenExchanger interface {
	Exchange(ctx context.Context, providerToken string) (*ExchangeResult, error)
}

// Config holds auth options
type Config interface {
	// GetSigningKey returns the base64 encoded shared signing secret
	GetSigningKey() string
	// GetTokenExpiration returns the token TTL in hours
	GetTokenExpiration() int
	// GetRefreshTokenExpiration returns the refresh token TTL in hours.
	// Reserved for the refresh flow, unused by token issuance.
	GetRefreshTokenExpiration() int
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	// GetProviderIssuer returns the expected issuer of provider tokens
	GetProviderIssuer() string
	// GetProviderJWKSURL returns the provider's published key set endpoint
	GetProviderJWKSURL() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
