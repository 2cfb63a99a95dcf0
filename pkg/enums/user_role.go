package enums

import (
	"fmt"
	"strings"
)

// UserRole identifies the marketplace actor type. It is fixed at
// registration time and drives route gating and profile resolution.
type UserRole string

const (
	UserRoleCustomer      UserRole = "CUSTOMER"
	UserRoleSeller        UserRole = "SELLER"
	UserRoleBusinessOwner UserRole = "BUSINESS_OWNER"
	UserRoleAdmin         UserRole = "ADMIN"
)

var validUserRoles = map[UserRole]struct{}{
	UserRoleCustomer:      {},
	UserRoleSeller:        {},
	UserRoleBusinessOwner: {},
	UserRoleAdmin:         {},
}

func (r UserRole) IsValid() bool {
	_, ok := validUserRoles[r]
	return ok
}

func (r UserRole) String() string {
	return string(r)
}

// HasProfile reports whether the role owns a role-specific profile record.
func (r UserRole) HasProfile() bool {
	return r == UserRoleSeller || r == UserRoleBusinessOwner
}

func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
