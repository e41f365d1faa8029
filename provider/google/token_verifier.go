package google

import (
	"context"
	"sync"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/exploresg/go-identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// idTokenClaims are the Google ID token claims we consume.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// TokenVerifier validates Google ID tokens against the published JWKS.
// The key set is cached and shared by concurrent requests; an unknown
// key ID triggers at most one rate-limited re-fetch before the token is
// rejected. While the key set cannot be fetched, every token is rejected
// until a later fetch succeeds.
type TokenVerifier struct {
	config Config
	logger identity.Logger

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

var _ identity.ProviderVerifier = (*TokenVerifier)(nil)

// NewTokenVerifier creates a Google token verifier. The initial key
// fetch failure is not fatal; it is retried lazily on first use.
func NewTokenVerifier(cfg Config) *TokenVerifier {
	cfg = cfg.withDefaults()

	v := &TokenVerifier{
		config: cfg,
		logger: cfg.Logger,
	}
	if v.logger == nil {
		v.logger = noopLogger{}
	}

	if jwks, err := v.fetchJWKS(); err == nil {
		v.jwks = jwks
	} else {
		v.logger.Error("google verifier initial key fetch failed", "error", err)
	}

	return v
}

// Verify validates the raw ID token and returns the claims the exchange
// flow consumes. All failures surface as an untrusted token.
func (v *TokenVerifier) Verify(ctx context.Context, rawToken string) (*identity.ProviderClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "context cancelled during token verification")
	}

	jwks, err := v.ensureJWKS()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "provider key set unavailable").
			WithTextCode(identity.ErrUntrustedToken.TextCode)
	}

	claims := &idTokenClaims{}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if len(v.config.Audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.config.Audience...))
	}

	token, err := jwt.ParseWithClaims(rawToken, claims, jwks.Keyfunc, parserOptions...)
	if err != nil {
		return nil, v.untrusted(err, "token validation failed")
	}

	if !token.Valid {
		return nil, v.untrusted(nil, "token validation failed")
	}

	if claims.Issuer != v.config.Issuer && claims.Issuer != legacyIssuer {
		return nil, v.untrusted(nil, "unexpected issuer")
	}

	if claims.Email == "" {
		return nil, v.untrusted(nil, "token is missing the email claim")
	}

	return &identity.ProviderClaims{
		Subject:    claims.RegisteredClaims.Subject,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Picture:    claims.Picture,
	}, nil
}

func (v *TokenVerifier) untrusted(err error, msg string) error {
	if err == nil {
		return errors.New(msg, errors.CategoryAuth).
			WithTextCode(identity.ErrUntrustedToken.TextCode)
	}
	return errors.Wrap(err, errors.CategoryAuth, msg).
		WithTextCode(identity.ErrUntrustedToken.TextCode)
}

// ensureJWKS returns the cached key set, re-initializing it when the
// construction-time fetch failed.
func (v *TokenVerifier) ensureJWKS() (*keyfunc.JWKS, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil {
		return v.jwks, nil
	}

	jwks, err := v.fetchJWKS()
	if err != nil {
		return nil, err
	}

	v.jwks = jwks
	return jwks, nil
}

// fetchJWKS uses a background context so the refresh goroutine outlives
// the request that triggered the lazy re-init.
func (v *TokenVerifier) fetchJWKS() (*keyfunc.JWKS, error) {
	return keyfunc.Get(v.config.JWKSURL, keyfunc.Options{
		Ctx: context.Background(),
		RefreshErrorHandler: func(err error) {
			v.logger.Error("google verifier background key refresh failed", "error", err)
		},
		RefreshInterval:   v.config.RefreshInterval,
		RefreshRateLimit:  v.config.RefreshRateLimit,
		RefreshTimeout:    v.config.RefreshTimeout,
		RefreshUnknownKID: true,
	})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
