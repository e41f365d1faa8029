// Package identity implements the shared authentication layer for the
// service fleet: exchanging a provider-issued OAuth ID token for a
// first-party HS256 token, mirroring the provider account into local
// storage, and verifying issued tokens on every subsequent request.
//
// Token exchange:
//   - Exchanger drives the flow: verify the provider token, find or
//     provision the local User, then mint a first-party token whose
//     subject is the user's stable external ID. Concurrent signups for
//     the same (email, provider) pair are resolved at the storage
//     uniqueness constraint and fall back to lookup plus reconcile.
//
// Token issuance and verification:
//   - TokenService signs and validates first-party tokens using a shared
//     base64-encoded secret. Every service that holds the secret can
//     verify tokens minted by the exchange service.
//
// Request authorization:
//   - middleware/authware applies bearer-token verification with a
//     per-service allow-list of public paths, and optional role checks
//     layered on top of authentication.
package identity
