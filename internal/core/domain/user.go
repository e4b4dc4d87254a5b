package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID           string
	Email        string
	Username     string
	DisplayName  string
	Bio          *string
	ProfileImage *string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	LastActiveAt *time.Time
}

// Sanitized returns a copy of the user safe to hand to transport layers.
// The password hash never leaves the usecase boundary.
func (u User) Sanitized() User {
	copied := u
	copied.PasswordHash = ""
	return copied
}
