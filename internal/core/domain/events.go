package domain

import "time"

// UserRegisteredEvent represents the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// UserLoggedInEvent represents the payload for auth.user.logged_in messages.
type UserLoggedInEvent struct {
	EventID    string
	UserID     string
	LoggedInAt time.Time
	IP         *string
	UserAgent  *string
	Metadata   map[string]any
}

// TokenRefreshedEvent represents the payload for auth.token.refreshed messages.
type TokenRefreshedEvent struct {
	EventID        string
	UserID         string
	RotatedFromID  string
	NewTokenID     string
	RefreshedAt    time.Time
	Metadata       map[string]any
}

// TokenRevokedEvent represents the payload for auth.token.revoked messages.
type TokenRevokedEvent struct {
	EventID       string
	UserID        string
	TokensRevoked int
	RevokedAt     time.Time
	Reason        string
	Metadata      map[string]any
}
