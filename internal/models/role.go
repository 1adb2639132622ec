package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of authorisation tiers. Upper case is canonical.
type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// AllRoles lists every valid role, lowest privilege first.
var AllRoles = []Role{RoleStaff, RoleAdmin, RoleSuperAdmin}

var ErrInvalidRole = errors.New("invalid role")

func (r Role) Valid() bool {
	for _, v := range AllRoles {
		if r == v {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts canonical spellings only.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// ParseLegacyRole also accepts the lower-case spellings ("staff", "admin",
// "super_admin") written by older clients. Use it when reading stored
// records, not for request input.
func ParseLegacyRole(s string) (Role, error) {
	if r, err := ParseRole(s); err == nil {
		return r, nil
	}
	switch strings.ToLower(s) {
	case "staff":
		return RoleStaff, nil
	case "admin":
		return RoleAdmin, nil
	case "super_admin", "superadmin":
		return RoleSuperAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}
