package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users manages the locally mirrored provider accounts
type Users interface {
	repository.Repository[*User]

	GetByEmailAndProvider(ctx context.Context, email string, provider Provider) (*User, error)
	GetByEmailAndProviderTx(ctx context.Context, tx bun.IDB, email string, provider Provider) (*User, error)
	GetByProviderSubject(ctx context.Context, provider Provider, subject string) (*User, error)
	GetByProviderSubjectTx(ctx context.Context, tx bun.IDB, provider Provider, subject string) (*User, error)
	GetByExternalID(ctx context.Context, externalID uuid.UUID) (*User, error)
	GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID uuid.UUID) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	Reconcile(ctx context.Context, user *User, givenName, familyName, avatarURL string) (*User, bool, error)
	ReconcileTx(ctx context.Context, tx bun.IDB, user *User, givenName, familyName, avatarURL string) (*User, bool, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmailAndProvider(ctx context.Context, email string, provider Provider) (*User, error) {
	return a.GetByEmailAndProviderTx(ctx, a.db, email, provider)
}

func (a *users) GetByEmailAndProviderTx(ctx context.Context, tx bun.IDB, email string, provider Provider) (*User, error) {
	return a.getOne(ctx, tx, map[string]any{
		"email":    email,
		"provider": provider,
	})
}

func (a *users) GetByProviderSubject(ctx context.Context, provider Provider, subject string) (*User, error) {
	return a.GetByProviderSubjectTx(ctx, a.db, provider, subject)
}

func (a *users) GetByProviderSubjectTx(ctx context.Context, tx bun.IDB, provider Provider, subject string) (*User, error) {
	return a.getOne(ctx, tx, map[string]any{
		"provider":         provider,
		"provider_subject": subject,
	})
}

func (a *users) GetByExternalID(ctx context.Context, externalID uuid.UUID) (*User, error) {
	return a.GetByExternalIDTx(ctx, a.db, externalID)
}

func (a *users) GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID uuid.UUID) (*User, error) {
	return a.getOne(ctx, tx, map[string]any{
		"external_id": externalID.String(),
	})
}

func (a *users) getOne(ctx context.Context, tx bun.IDB, filters map[string]any) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	meta := map[string]any{}
	for column, value := range filters {
		q.Where("?TableAlias."+column+" = ?", value)
		meta[column] = value
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(meta)
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) Reconcile(ctx context.Context, user *User, givenName, familyName, avatarURL string) (*User, bool, error) {
	return a.ReconcileTx(ctx, a.db, user, givenName, familyName, avatarURL)
}

// ReconcileTx updates the mirrored display fields that differ from the
// provider supplied values. Empty incoming values never clear a stored
// field, and an unchanged record produces no write.
func (a *users) ReconcileTx(ctx context.Context, tx bun.IDB, user *User, givenName, familyName, avatarURL string) (*User, bool, error) {
	if user == nil {
		return nil, false, ErrIdentityNotFound
	}

	next := *user
	changed := false

	if givenName != "" && givenName != next.GivenName {
		next.GivenName = givenName
		changed = true
	}
	if familyName != "" && familyName != next.FamilyName {
		next.FamilyName = familyName
		changed = true
	}
	if avatarURL != "" && avatarURL != next.AvatarURL {
		next.AvatarURL = avatarURL
		changed = true
	}

	if !changed {
		return user, false, nil
	}

	next.FullName = JoinNameParts(next.GivenName, next.FamilyName)

	patch := &User{
		ID:         next.ID,
		GivenName:  next.GivenName,
		FamilyName: next.FamilyName,
		FullName:   next.FullName,
		AvatarURL:  next.AvatarURL,
	}

	_, err := a.Repository.UpdateTx(ctx, tx, patch,
		repository.UpdateByID(next.ID.String()),
	)
	if err != nil {
		return nil, false, err
	}

	return &next, true, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	// random external ID, collisions are not re-checked
	if record.ExternalID == uuid.Nil {
		record.ExternalID = uuid.New()
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.FullName == "" {
		record.FullName = record.DisplayName()
	}

	record.Active = true
}
