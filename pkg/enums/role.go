package enums

import (
	"fmt"
	"strings"
)

// Role is the single access tag resolved for a principal at authentication time.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMechanic Role = "mechanic"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

var validRoles = []Role{
	RoleCustomer,
	RoleMechanic,
	RoleSupplier,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// OneOf reports whether the role matches any of the candidates.
func (r Role) OneOf(candidates ...Role) bool {
	for _, candidate := range candidates {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
