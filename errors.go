package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Token and exchange failures carry a text code so HTTP handlers and
// middleware can map them to responses without parsing messages.
var (
	// ErrUntrustedToken rejects a provider token that failed signature,
	// issuer, expiry, or structural checks
	ErrUntrustedToken = errors.New("provider token rejected", errors.CategoryAuth).
				WithTextCode("UNTRUSTED_TOKEN").
				WithCode(errors.CodeUnauthorized)

	// ErrBadSignature is a first party token whose MAC does not match
	ErrBadSignature = errors.New("token signature mismatch", errors.CategoryAuth).
			WithTextCode("BAD_SIGNATURE").
			WithCode(errors.CodeUnauthorized)

	// ErrTokenExpired is a first party token past its expiry
	ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(errors.CodeUnauthorized)

	// ErrTokenMalformed is a token that does not parse into three segments
	ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(errors.CodeUnauthorized)

	// ErrDuplicateIdentity surfaces a uniqueness race during provisioning
	// that could not be resolved by the fallback lookup
	ErrDuplicateIdentity = errors.New("identity already exists", errors.CategoryConflict).
				WithTextCode("DUPLICATE_IDENTITY")

	// ErrStorageUnavailable wraps persistence failures that are not
	// not-found or conflict conditions
	ErrStorageUnavailable = errors.New("identity storage unavailable", errors.CategoryOperation).
				WithTextCode("STORAGE_UNAVAILABLE")

	// ErrIdentityNotFound is returned for identities we cannot resolve
	ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
				WithTextCode("IDENTITY_NOT_FOUND")
)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == ErrTokenExpired.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateKeyError detects a storage uniqueness violation. Matched by
// message since drivers surface these without a shared sentinel.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
