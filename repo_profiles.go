package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles manages the optional 1:1 onboarding record for a user.
// A user without a profile still requires profile setup.
type Profiles interface {
	repository.Repository[*Profile]

	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	ExistsForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (bool, error)

	Attach(ctx context.Context, profile *Profile) (*Profile, error)
	AttachTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return a.GetByUserIDTx(ctx, a.db, userID)
}

func (a *profiles) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID.String()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"user_id": userID.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *profiles) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	return a.ExistsForUserTx(ctx, a.db, userID)
}

func (a *profiles) ExistsForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*Profile)(nil)).
		Where("?TableAlias.user_id = ?", userID.String()).
		Exists(ctx)
}

func (a *profiles) Attach(ctx context.Context, profile *Profile) (*Profile, error) {
	return a.AttachTx(ctx, a.db, profile)
}

func (a *profiles) AttachTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error) {
	prepareProfileDefaults(profile)
	return a.Repository.CreateTx(ctx, tx, profile)
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
