package users

import "time"

// Role is the closed set of access levels a user can hold.
type Role string

const (
	RoleUser   Role = "USER"
	RoleEditor Role = "EDITOR"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// AdminEquivalent reports whether r grants full CMS access. EDITOR is
// admin-equivalent for content visibility and management; only the static
// allow-list decides who is promoted to ADMIN itself.
func (r Role) AdminEquivalent() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User is the durable identity record behind a wallet address.
// Address is stored in lowercase canonical form.
type User struct {
	ID        string
	Address   string
	Role      Role
	CreatedAt time.Time
}
