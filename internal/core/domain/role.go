package domain

import (
	"fmt"
	"strings"
)

// Role is a permission level. The zero value is not a valid role.
type Role int

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:      "user",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

// ParseRole maps the closed set of role names onto Role. Matching is
// case-insensitive; anything else, including padded input, is rejected.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "user":
		return RoleUser, nil
	case "moderator":
		return RoleModerator, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("invalid role: %q", s)
	}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Rank orders roles: user=0 < moderator=1 < admin=2. Invalid roles rank -1.
func (r Role) Rank() int {
	if !r.Valid() {
		return -1
	}
	return int(r) - 1
}

// AtLeast reports whether r grants every privilege of required.
func (r Role) AtLeast(required Role) bool {
	return r.Valid() && required.Valid() && r.Rank() >= required.Rank()
}

// CheckRole passes iff actual ranks at or above required.
func CheckRole(actual, required Role) error {
	if !actual.AtLeast(required) {
		return AuthorizationError(required)
	}
	return nil
}

// Roles returns every role in ascending order.
func Roles() []Role {
	return []Role{RoleUser, RoleModerator, RoleAdmin}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role: %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
