package enums

import "fmt"

// ProfileRole gates administrative capability. It is only trusted when read
// from the profiles table.
type ProfileRole string

const (
	ProfileRoleAdmin    ProfileRole = "admin"
	ProfileRoleCustomer ProfileRole = "customer"
)

var validProfileRoles = []ProfileRole{
	ProfileRoleAdmin,
	ProfileRoleCustomer,
}

// String implements fmt.Stringer.
func (r ProfileRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ProfileRole.
func (r ProfileRole) IsValid() bool {
	for _, candidate := range validProfileRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role grants admin access.
func (r ProfileRole) IsAdmin() bool {
	return r == ProfileRoleAdmin
}

// ParseProfileRole converts raw input into a ProfileRole.
func ParseProfileRole(value string) (ProfileRole, error) {
	for _, candidate := range validProfileRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid profile role %q", value)
}
