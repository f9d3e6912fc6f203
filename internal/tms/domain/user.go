package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u User) HasAnyRole(roles ...Role) bool {
	return HasAnyRole(u.Roles, roles...)
}
