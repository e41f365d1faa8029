package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DateOfBirthLayout is the wire format for the date of birth field
const DateOfBirthLayout = "2006-01-02"

// defaultPhoneRegion is used to parse national numbers without a country code
const defaultPhoneRegion = "SG"

// AttachProfileMessage carries the onboarding details for a user,
// addressed by external ID.
type AttachProfileMessage struct {
	ExternalID           string `json:"external_id"`
	Phone                string `json:"phone"`
	DateOfBirth          string `json:"date_of_birth"`
	DrivingLicenseNumber string `json:"driving_license_number"`
	PassportNumber       string `json:"passport_number"`
	PreferredLanguage    string `json:"preferred_language"`
	CountryOfResidence   string `json:"country_of_residence"`
	PhoneRegion          string `json:"phone_region"`
	OnResponse           func(*Profile)
}

func (e AttachProfileMessage) Type() string { return "profile.attach" }

// AttachProfileHandler persists the profile that completes onboarding.
// Attaching a profile flips the user's requiresProfileSetup signal off.
type AttachProfileHandler struct {
	Repo RepositoryManager
}

func (h *AttachProfileHandler) Execute(ctx context.Context, event AttachProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile attach",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *AttachProfileHandler) execute(ctx context.Context, event AttachProfileMessage) error {
	externalID, err := uuid.Parse(event.ExternalID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid external ID")
	}

	phone, err := normalizePhone(event.Phone, event.PhoneRegion)
	if err != nil {
		return err
	}

	var dob *time.Time
	if event.DateOfBirth != "" {
		parsed, err := time.Parse(DateOfBirthLayout, event.DateOfBirth)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid date of birth")
		}
		dob = &parsed
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var record *Profile

	err = h.Repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, txErr := h.Repo.Users().GetByExternalIDTx(ctx, tx, externalID)
		if txErr != nil {
			if repository.IsRecordNotFound(txErr) {
				return ErrIdentityNotFound.Clone().WithMetadata(map[string]any{
					"external_id": event.ExternalID,
				})
			}
			return txErr
		}

		existing, txErr := h.Repo.Profiles().GetByUserIDTx(ctx, tx, user.ID)
		if txErr != nil && !repository.IsRecordNotFound(txErr) {
			return txErr
		}

		record = &Profile{
			UserID:               user.ID,
			Phone:                phone,
			DateOfBirth:          dob,
			DrivingLicenseNumber: event.DrivingLicenseNumber,
			PassportNumber:       event.PassportNumber,
			PreferredLanguage:    event.PreferredLanguage,
			CountryOfResidence:   event.CountryOfResidence,
		}

		if existing != nil {
			record.ID = existing.ID
			record, txErr = h.Repo.Profiles().UpdateTx(ctx, tx, record,
				repository.UpdateByID(existing.ID.String()),
			)
			return txErr
		}

		record, txErr = h.Repo.Profiles().AttachTx(ctx, tx, record)
		return txErr
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile attach transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(record)
	}

	return nil
}

// normalizePhone stores numbers in E.164 so lookups are format agnostic
func normalizePhone(raw, region string) (string, error) {
	if raw == "" {
		return "", nil
	}

	if region == "" {
		region = defaultPhoneRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
