package user

import (
	"strings"

	usererrors "go-leave/internal/user/errors"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

var roles = []Role{RoleEmployee, RoleManager, RoleHR, RoleAdmin}

// ParseRole accepts only the closed set of roles, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range roles {
		if r == known {
			return r, nil
		}
	}
	return "", usererrors.ErrInvalidRole
}

func (r Role) String() string {
	return string(r)
}

// CanManage reports whether users of this role may be assigned as someone's
// manager.
func (r Role) CanManage() bool {
	return r == RoleManager || r == RoleAdmin
}
