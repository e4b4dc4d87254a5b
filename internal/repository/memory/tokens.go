package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/repository"
)

// TokenRepository implements port.TokenRepository with a mutex-guarded map.
// The single mutex makes Revoke atomic, mirroring the conditional UPDATE of
// the PostgreSQL implementation.
type TokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
}

// NewTokenRepository constructs an empty in-memory token repository.
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]domain.RefreshToken)}
}

// Create stores a new refresh token record.
func (r *TokenRepository) Create(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.ID] = token
	return nil
}

// FindActive returns the live record matching owner and hash.
func (r *TokenRepository) FindActive(_ context.Context, userID, tokenHash string, at time.Time) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.tokens {
		if token.UserID == userID && token.TokenHash == tokenHash && token.IsLive(at) {
			copied := token
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Revoke flags a single record if it is not already revoked.
func (r *TokenRepository) Revoke(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok || token.IsRevoked() {
		return repository.ErrNotFound
	}
	token.Revoke(at.UTC())
	r.tokens[id] = token
	return nil
}

// RevokeAllByHash flags every non-revoked record carrying the hash.
func (r *TokenRepository) RevokeAllByHash(_ context.Context, tokenHash string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revoked := 0
	for id, token := range r.tokens {
		if token.TokenHash == tokenHash && token.Revoke(at.UTC()) {
			r.tokens[id] = token
			revoked++
		}
	}
	return revoked, nil
}

// RevokeAllForUser flags every live token owned by the user.
func (r *TokenRepository) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revoked := 0
	for id, token := range r.tokens {
		if token.UserID == userID && token.Revoke(at.UTC()) {
			r.tokens[id] = token
			revoked++
		}
	}
	return revoked, nil
}

// ListActiveByUser returns the user's live refresh token records.
func (r *TokenRepository) ListActiveByUser(_ context.Context, userID string, at time.Time) ([]domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := make([]domain.RefreshToken, 0)
	for _, token := range r.tokens {
		if token.UserID == userID && token.IsLive(at) {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
