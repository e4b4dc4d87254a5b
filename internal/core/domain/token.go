package domain

import "time"

// RefreshToken represents a persisted refresh token (stored as a hash).
// Records are never deleted: revocation flags them so the audit trail survives
// rotation and logout.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsRevoked reports whether the token has been explicitly revoked.
func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsLive reports whether the token can still be presented for rotation.
func (t RefreshToken) IsLive(at time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(at)
}

// Revoke marks the token as revoked.
// Returns true if the token transitioned to the revoked state.
func (t *RefreshToken) Revoke(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	timeCopy := at
	t.RevokedAt = &timeCopy
	return true
}

// TokenPair bundles a freshly signed access and refresh token. Only the
// refresh half is persisted (hashed); the pair itself is ephemeral.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
