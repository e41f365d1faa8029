package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ExchangeResult is the response payload of a successful token exchange
type ExchangeResult struct {
	Token                string          `json:"token"`
	RequiresProfileSetup bool            `json:"requiresProfileSetup"`
	Identity             IdentitySummary `json:"identity"`
}

// IdentitySummary is the sanitized identity returned to clients. It
// never carries the storage key or the provider subject.
type IdentitySummary struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	AvatarURL  string `json:"avatarUrl"`
}

// Exchanger implements the token exchange flow: verify the provider
// token, resolve or provision the local user, mint a first party token.
// It is stateless across requests.
type Exchanger struct {
	provider Provider
	verifier ProviderVerifier
	repo     RepositoryManager
	tokens   TokenService
	logger   Logger
}

var _ TokenExchanger = (*Exchanger)(nil)

type ExchangerOption func(*Exchanger)

// WithExchangerLogger overrides the default logger
func WithExchangerLogger(logger Logger) ExchangerOption {
	return func(e *Exchanger) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExchanger creates the exchange orchestrator for one provider.
func NewExchanger(provider Provider, verifier ProviderVerifier, repo RepositoryManager, tokens TokenService, opts ...ExchangerOption) *Exchanger {
	if !ValidProvider(provider) {
		panic("Missing valid Provider in exchanger...")
	}
	if verifier == nil {
		panic("Missing ProviderVerifier in exchanger...")
	}
	if repo == nil {
		panic("Missing RepositoryManager in exchanger...")
	}
	if tokens == nil {
		panic("Missing TokenService in exchanger...")
	}

	e := &Exchanger{
		provider: provider,
		verifier: verifier,
		repo:     repo,
		tokens:   tokens,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// Exchange verifies the provider token, resolves the local user, and
// mints a fresh first party token. Presenting the same provider token
// twice resolves the same user but issues a new token each time.
func (e *Exchanger) Exchange(ctx context.Context, providerToken string) (*ExchangeResult, error) {
	claims, err := e.verifier.Verify(ctx, providerToken)
	if err != nil {
		e.logger.Debug("exchange rejected provider token", "error", err)
		return nil, goerrors.Wrap(err, ErrUntrustedToken.Category, ErrUntrustedToken.Message).
			WithTextCode(ErrUntrustedToken.TextCode)
	}

	user, err := e.resolve(ctx, claims)
	if err != nil {
		return nil, e.storageError(err)
	}

	hasProfile, err := e.repo.Profiles().ExistsForUser(ctx, user.ID)
	if err != nil {
		return nil, e.storageError(err)
	}

	token, err := e.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		return nil, err
	}

	return &ExchangeResult{
		Token:                token,
		RequiresProfileSetup: !hasProfile,
		Identity: IdentitySummary{
			ExternalID: user.ExternalID.String(),
			Email:      user.Email,
			GivenName:  user.GivenName,
			FamilyName: user.FamilyName,
			AvatarURL:  user.AvatarURL,
		},
	}, nil
}

// resolve finds the mirrored account for the verified claims, creating
// it on first sign in. A concurrent create for the same (email,
// provider) pair loses at the uniqueness constraint and falls back to
// lookup plus reconcile; it is never blindly retried.
func (e *Exchanger) resolve(ctx context.Context, claims *ProviderClaims) (*User, error) {
	users := e.repo.Users()

	user, err := users.GetByEmailAndProvider(ctx, claims.Email, e.provider)
	if err == nil {
		return e.reconcile(ctx, user, claims)
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	record := &User{
		Email:           claims.Email,
		Provider:        e.provider,
		ProviderSubject: claims.Subject,
		GivenName:       claims.GivenName,
		FamilyName:      claims.FamilyName,
		AvatarURL:       claims.Picture,
	}

	err = e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, txErr := users.RegisterTx(ctx, tx, record)
		if txErr != nil {
			return txErr
		}
		record = created
		return nil
	})
	if err == nil {
		e.logger.Info("exchange provisioned new user", "email", claims.Email, "provider", e.provider)
		return record, nil
	}

	if !IsDuplicateKeyError(err) {
		return nil, err
	}

	// a concurrent signup won the insert, use the stored row
	user, lookupErr := users.GetByEmailAndProvider(ctx, claims.Email, e.provider)
	if lookupErr != nil {
		return nil, goerrors.Wrap(err, ErrDuplicateIdentity.Category, ErrDuplicateIdentity.Message).
			WithTextCode(ErrDuplicateIdentity.TextCode)
	}

	return e.reconcile(ctx, user, claims)
}

func (e *Exchanger) reconcile(ctx context.Context, user *User, claims *ProviderClaims) (*User, error) {
	updated, changed, err := e.repo.Users().Reconcile(ctx, user, claims.GivenName, claims.FamilyName, claims.Picture)
	if err != nil {
		return nil, err
	}
	if changed {
		e.logger.Debug("exchange reconciled provider fields", "external_id", updated.ExternalID.String())
	}
	return updated, nil
}

// storageError keeps categorized errors intact and folds everything else
// into the storage unavailable sentinel.
func (e *Exchanger) storageError(err error) error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	e.logger.Error("exchange storage failure", "error", err)
	return goerrors.Wrap(err, ErrStorageUnavailable.Category, ErrStorageUnavailable.Message).
		WithTextCode(ErrStorageUnavailable.TextCode)
}
