package entity

import "strings"

// Role is the single authorization role a user holds.
// The set is closed; capabilities per role live in the rbac policy table.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

// DefaultRole is assigned at registration.
const DefaultRole = RoleMember

// Roles returns every known role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleLibrarian, RoleMember}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts any casing ("admin", "Admin", "ADMIN").
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}
