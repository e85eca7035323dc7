// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role values a user may hold.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a classroom member signed in through an OAuth provider. The
// access-token code only ever reads ID.
type User struct {
	ID        string
	Provider  string
	UID       string
	UserName  string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
