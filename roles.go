package identity

// UserRole is the user's access level
type UserRole string

const (
	// RoleUser is the default role assigned on first sign in
	RoleUser UserRole = "USER"
	// RoleSupport handles customer facing escalations
	RoleSupport UserRole = "SUPPORT"
	// RoleManager manages day to day operations
	RoleManager UserRole = "MANAGER"
	// RoleFleetManager administers the vehicle fleet
	RoleFleetManager UserRole = "FLEET_MANAGER"
	// RoleAdmin has full access
	RoleAdmin UserRole = "ADMIN"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleSupport, RoleManager, RoleFleetManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleUser:         0,
		RoleSupport:      1,
		RoleManager:      2,
		RoleFleetManager: 3,
		RoleAdmin:        4,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleSupport,
		RoleManager,
		RoleFleetManager,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
