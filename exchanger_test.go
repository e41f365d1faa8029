package identity_test

import (
	"context"
	"testing"

	"github.com/exploresg/go-identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviderClaims() *identity.ProviderClaims {
	return &identity.ProviderClaims{
		Subject:    "google-sub-1",
		Email:      "driver@example.com",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Picture:    "https://cdn.example.com/v1.png",
	}
}

func newTestExchanger(t *testing.T, verifier identity.ProviderVerifier) (*identity.Exchanger, identity.RepositoryManager, identity.TokenService) {
	t.Helper()

	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	tokens := newTestTokenService(t)

	return identity.NewExchanger(identity.ProviderGoogle, verifier, repo, tokens), repo, tokens
}

func TestExchangeFirstSignIn(t *testing.T) {
	exchanger, repo, tokens := newTestExchanger(t, stubVerifier{claims: testProviderClaims()})
	ctx := context.Background()

	result, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	assert.True(t, result.RequiresProfileSetup, "a fresh account has no profile yet")
	assert.Equal(t, "driver@example.com", result.Identity.Email)
	assert.Equal(t, "Ada", result.Identity.GivenName)
	assert.Equal(t, "Lovelace", result.Identity.FamilyName)
	assert.NotEmpty(t, result.Identity.ExternalID)

	stored, err := repo.Users().GetByEmailAndProvider(ctx, "driver@example.com", identity.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleUser, stored.Role)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ExternalID.String(), claims.Subject(), "token subject is the external ID")
	assert.NotEqual(t, stored.ID.String(), claims.Subject(), "token subject must not be the storage key")
	assert.Equal(t, "driver@example.com", claims.Email())
	assert.Equal(t, "USER", claims.Role())
}

func TestExchangeRepeatSignIn(t *testing.T) {
	exchanger, _, _ := newTestExchanger(t, stubVerifier{claims: testProviderClaims()})
	ctx := context.Background()

	first, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	second, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	assert.Equal(t, first.Identity.ExternalID, second.Identity.ExternalID, "repeat sign in resolves the same account")
	assert.NotEqual(t, "", second.Token)
}

func TestExchangeReconcilesProviderFields(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	tokens := newTestTokenService(t)
	ctx := context.Background()

	exchanger := identity.NewExchanger(identity.ProviderGoogle,
		stubVerifier{claims: testProviderClaims()}, repo, tokens)

	_, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	updatedClaims := testProviderClaims()
	updatedClaims.Picture = "https://cdn.example.com/v2.png"
	updatedClaims.FamilyName = "Byron"

	exchanger = identity.NewExchanger(identity.ProviderGoogle,
		stubVerifier{claims: updatedClaims}, repo, tokens)

	result, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "Byron", result.Identity.FamilyName)
	assert.Equal(t, "https://cdn.example.com/v2.png", result.Identity.AvatarURL)

	stored, err := repo.Users().GetByEmailAndProvider(ctx, "driver@example.com", identity.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "Byron", stored.FamilyName)
	assert.Equal(t, "Ada Byron", stored.FullName)
	assert.Equal(t, "https://cdn.example.com/v2.png", stored.AvatarURL)
}

func TestExchangeEmptyProviderFieldsKeepStoredValues(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	tokens := newTestTokenService(t)
	ctx := context.Background()

	exchanger := identity.NewExchanger(identity.ProviderGoogle,
		stubVerifier{claims: testProviderClaims()}, repo, tokens)
	_, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	sparse := testProviderClaims()
	sparse.GivenName = ""
	sparse.FamilyName = ""
	sparse.Picture = ""

	exchanger = identity.NewExchanger(identity.ProviderGoogle,
		stubVerifier{claims: sparse}, repo, tokens)
	result, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	assert.Equal(t, "Ada", result.Identity.GivenName)
	assert.Equal(t, "Lovelace", result.Identity.FamilyName)
	assert.Equal(t, "https://cdn.example.com/v1.png", result.Identity.AvatarURL)
}

func TestExchangeRejectsUntrustedToken(t *testing.T) {
	verifyErr := goerrors.New("issuer mismatch", goerrors.CategoryAuth)
	exchanger, _, _ := newTestExchanger(t, stubVerifier{err: verifyErr})

	_, err := exchanger.Exchange(context.Background(), "forged-token")
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryAuth, rich.Category)
	assert.Equal(t, identity.ErrUntrustedToken.TextCode, rich.TextCode)
}

func TestExchangeProfileSetupFlag(t *testing.T) {
	exchanger, repo, _ := newTestExchanger(t, stubVerifier{claims: testProviderClaims()})
	ctx := context.Background()

	result, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)
	require.True(t, result.RequiresProfileSetup)

	attach := identity.AttachProfileHandler{Repo: repo}
	err = attach.Execute(ctx, identity.AttachProfileMessage{
		ExternalID: result.Identity.ExternalID,
		Phone:      "91234567",
	})
	require.NoError(t, err)

	result, err = exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)
	assert.False(t, result.RequiresProfileSetup, "attached profile turns the flag off")
}

// raceUsers reports lookups as misses, simulating the window where a
// concurrent signup inserts the row after our lookup but before our
// insert. With alwaysMiss the winning row stays invisible to lookups.
type raceUsers struct {
	identity.Users
	alwaysMiss bool
	misses     int
}

func (r *raceUsers) GetByEmailAndProvider(ctx context.Context, email string, provider identity.Provider) (*identity.User, error) {
	if r.alwaysMiss || r.misses == 0 {
		r.misses++
		return nil, repository.NewRecordNotFound()
	}
	return r.Users.GetByEmailAndProvider(ctx, email, provider)
}

type raceRepo struct {
	identity.RepositoryManager
	users identity.Users
}

func (r *raceRepo) Users() identity.Users { return r.users }

func rivalUser() *identity.User {
	return &identity.User{
		Email:           "driver@example.com",
		Provider:        identity.ProviderGoogle,
		ProviderSubject: "google-sub-1",
		GivenName:       "Ada",
		FamilyName:      "Byron",
	}
}

func TestExchangeDuplicateRaceFallsBackToLookup(t *testing.T) {
	db := setupTestDB(t)
	inner := identity.NewRepositoryManager(db)
	tokens := newTestTokenService(t)
	ctx := context.Background()

	rival, err := inner.Users().Register(ctx, rivalUser())
	require.NoError(t, err)

	repo := &raceRepo{
		RepositoryManager: inner,
		users:             &raceUsers{Users: inner.Users()},
	}

	exchanger := identity.NewExchanger(identity.ProviderGoogle,
		stubVerifier{claims: testProviderClaims()}, repo, tokens)

	result, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	assert.Equal(t, rival.ExternalID.String(), result.Identity.ExternalID,
		"the losing insert resolves the row the winner created")
	assert.Equal(t, "Lovelace", result.Identity.FamilyName,
		"display fields reconcile from the verified claims")

	stored, err := inner.Users().GetByEmailAndProvider(ctx, "driver@example.com", identity.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", stored.FamilyName)
	assert.Equal(t, "Ada Lovelace", stored.FullName)

	count, err := db.NewSelect().Model((*identity.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the lost insert leaves no extra row")
}

func TestExchangeDuplicateRaceLookupMissSurfacesConflict(t *testing.T) {
	db := setupTestDB(t)
	inner := identity.NewRepositoryManager(db)
	ctx := context.Background()

	_, err := inner.Users().Register(ctx, rivalUser())
	require.NoError(t, err)

	repo := &raceRepo{
		RepositoryManager: inner,
		users:             &raceUsers{Users: inner.Users(), alwaysMiss: true},
	}

	exchanger := identity.NewExchanger(identity.ProviderGoogle,
		stubVerifier{claims: testProviderClaims()}, repo, newTestTokenService(t))

	_, err = exchanger.Exchange(ctx, "provider-token")
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryConflict, rich.Category)
	assert.Equal(t, identity.ErrDuplicateIdentity.TextCode, rich.TextCode)
}

func TestNewExchangerRequiresKnownProvider(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	tokens := newTestTokenService(t)

	assert.Panics(t, func() {
		identity.NewExchanger(identity.Provider("MYSPACE"),
			stubVerifier{claims: testProviderClaims()}, repo, tokens)
	})
}

func TestExchangeIdentityOmitsInternalFields(t *testing.T) {
	exchanger, repo, _ := newTestExchanger(t, stubVerifier{claims: testProviderClaims()})
	ctx := context.Background()

	result, err := exchanger.Exchange(ctx, "provider-token")
	require.NoError(t, err)

	stored, err := repo.Users().GetByEmailAndProvider(ctx, "driver@example.com", identity.ProviderGoogle)
	require.NoError(t, err)

	parsed, err := uuid.Parse(result.Identity.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, stored.ExternalID, parsed)
	assert.NotEqual(t, stored.ID, parsed)
}
