package identity

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's external ID, never the storage key.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ExternalID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's role as a string.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return string(u.user.Role)
}

// GivenName returns the user's given name.
func (u UserIdentity) GivenName() string {
	if u.user == nil {
		return ""
	}
	return u.user.GivenName
}

// FamilyName returns the user's family name.
func (u UserIdentity) FamilyName() string {
	if u.user == nil {
		return ""
	}
	return u.user.FamilyName
}

// Picture returns the user's avatar URL.
func (u UserIdentity) Picture() string {
	if u.user == nil {
		return ""
	}
	return u.user.AvatarURL
}
