package identity

import (
	"context"

	"github.com/exploresg/go-identity/middleware/authware"
)

// MiddlewareVerifier adapts a TokenValidator into the verifier consumed
// by the authware middleware. TokenService satisfies TokenValidator, so
// a single service passes directly; services accepting more than one
// token format hand in a NewMultiTokenValidator chain instead.
func MiddlewareVerifier(validator TokenValidator) authware.TokenVerifier {
	return middlewareVerifier{validator: validator}
}

type middlewareVerifier struct {
	validator TokenValidator
}

func (m middlewareVerifier) Validate(tokenString string) (authware.AuthClaims, error) {
	claims, err := m.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter adapts authware.AuthClaims to identity.AuthClaims
// and stores them in the standard context for downstream usage.
func ContextEnricherAdapter(c context.Context, claims authware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}
