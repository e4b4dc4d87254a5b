package port

import (
	"context"
	"time"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
)

// TokenRepository manages refresh token records. Tokens are flagged revoked,
// never deleted.
type TokenRepository interface {
	Create(ctx context.Context, token domain.RefreshToken) error
	// FindActive returns the record matching owner and hash that is neither
	// revoked nor expired at the supplied moment. Misses of any kind return
	// repository.ErrNotFound.
	FindActive(ctx context.Context, userID, tokenHash string, at time.Time) (*domain.RefreshToken, error)
	// Revoke flags a single record. The update is conditional on the record
	// not yet being revoked; a lost race returns repository.ErrNotFound so
	// concurrent rotations of the same token resolve to exactly one winner.
	Revoke(ctx context.Context, id string, at time.Time) error
	// RevokeAllByHash flags every non-revoked record carrying the hash.
	// Returns the number of records flagged; zero matches is not an error.
	RevokeAllByHash(ctx context.Context, tokenHash string, at time.Time) (int, error)
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error)
	ListActiveByUser(ctx context.Context, userID string, at time.Time) ([]domain.RefreshToken, error)
}
