// Package google verifies Google-issued OAuth ID tokens against the
// published JWKS endpoint.
//
// Use TokenVerifier as the identity.ProviderVerifier for the token
// exchange flow to accept Google sign-in while keeping issuance and
// session behavior in the identity package.
package google
