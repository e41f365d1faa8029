package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Provider identifies the external account system a user signed in with
type Provider string

const (
	// ProviderGoogle is Google OAuth sign in
	ProviderGoogle Provider = "GOOGLE"
	// ProviderGithub is GitHub OAuth sign in
	ProviderGithub Provider = "GITHUB"
	// ProviderMicrosoft is Microsoft OAuth sign in
	ProviderMicrosoft Provider = "MICROSOFT"
	// ProviderApple is Apple OAuth sign in
	ProviderApple Provider = "APPLE"
	// ProviderLocal is a locally managed account
	ProviderLocal Provider = "LOCAL"
)

// ValidProvider checks the provider is one of the supported values
func ValidProvider(p Provider) bool {
	switch p {
	case ProviderGoogle, ProviderGithub, ProviderMicrosoft, ProviderApple, ProviderLocal:
		return true
	default:
		return false
	}
}

// User is the locally mirrored account for a provider identity.
// ID is the storage key and never leaves this package; ExternalID is the
// stable identifier exposed to clients and used as the token subject.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"-"`
	ExternalID      uuid.UUID  `bun:"external_id,notnull,type:uuid" json:"external_id,omitempty"`
	Email           string     `bun:"email,notnull" json:"email,omitempty"`
	Provider        Provider   `bun:"provider,notnull" json:"provider,omitempty"`
	ProviderSubject string     `bun:"provider_subject,notnull" json:"-"`
	GivenName       string     `bun:"given_name" json:"given_name,omitempty"`
	FamilyName      string     `bun:"family_name" json:"family_name,omitempty"`
	FullName        string     `bun:"full_name" json:"full_name,omitempty"`
	AvatarURL       string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Role            UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Active          bool       `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DisplayName joins the name parts, skipping whichever is empty
func (u *User) DisplayName() string {
	return JoinNameParts(u.GivenName, u.FamilyName)
}

// JoinNameParts builds a full name from given and family name
func JoinNameParts(given, family string) string {
	return strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(family))
}

// Profile holds the onboarding details a user supplies after their first
// sign in. Its absence for a user drives the requiresProfileSetup flag.
type Profile struct {
	bun.BaseModel        `bun:"table:profiles,alias:prf"`
	ID                   uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID               uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User                 *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Phone                string     `bun:"phone_number" json:"phone_number,omitempty"`
	DateOfBirth          *time.Time `bun:"date_of_birth,nullzero" json:"date_of_birth,omitempty"`
	DrivingLicenseNumber string     `bun:"driving_license_number" json:"driving_license_number,omitempty"`
	PassportNumber       string     `bun:"passport_number" json:"passport_number,omitempty"`
	PreferredLanguage    string     `bun:"preferred_language" json:"preferred_language,omitempty"`
	CountryOfResidence   string     `bun:"country_of_residence" json:"country_of_residence,omitempty"`
	CreatedAt            *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
