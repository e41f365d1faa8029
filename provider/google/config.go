package google

import (
	"time"

	"github.com/exploresg/go-identity"
)

const (
	// DefaultIssuer is the issuer claim on Google ID tokens
	DefaultIssuer = "https://accounts.google.com"

	// DefaultJWKSURL is Google's published key set endpoint
	DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// legacyIssuer appears on tokens minted by older Google endpoints
const legacyIssuer = "accounts.google.com"

// Config holds Google ID token validation settings.
type Config struct {
	// Issuer overrides the expected issuer claim (optional).
	Issuer string

	// JWKSURL overrides the key set endpoint (optional).
	JWKSURL string

	// Audience is the OAuth client ID(s) to validate against.
	// Empty skips the audience check.
	Audience []string

	// RefreshInterval is how often keys are refreshed in the background.
	// Default: 1 hour.
	RefreshInterval time.Duration

	// RefreshRateLimit bounds refreshes triggered by unknown key IDs, so
	// a rotation costs at most one re-fetch per request.
	// Default: 5 minutes.
	RefreshRateLimit time.Duration

	// RefreshTimeout bounds a single key fetch.
	// Default: 10 seconds.
	RefreshTimeout time.Duration

	// Logger is optional.
	Logger identity.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(audience ...string) Config {
	return Config{
		Issuer:           DefaultIssuer,
		JWKSURL:          DefaultJWKSURL,
		Audience:         audience,
		RefreshInterval:  time.Hour,
		RefreshRateLimit: 5 * time.Minute,
		RefreshTimeout:   10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.JWKSURL == "" {
		c.JWKSURL = DefaultJWKSURL
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = time.Hour
	}
	if c.RefreshRateLimit == 0 {
		c.RefreshRateLimit = 5 * time.Minute
	}
	if c.RefreshTimeout == 0 {
		c.RefreshTimeout = 10 * time.Second
	}
	return c
}
