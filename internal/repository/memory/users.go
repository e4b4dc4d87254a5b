// Package memory provides in-memory repository implementations. They satisfy
// the same port contracts as the PostgreSQL repositories, including the
// compare-and-swap semantics of token revocation, and back the usecase tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/repository"
)

// UserRepository implements port.UserRepository with a mutex-guarded map.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository constructs an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if user, ok := r.users[id]; ok {
		copied := user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetByEmailOrUsername returns the first user matching either field.
func (r *UserRepository) GetByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) || strings.EqualFold(user.Username, username) {
			copied := user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// UpdateLastActive stamps the user's last activity moment.
func (r *UserRepository) UpdateLastActive(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	stamped := at.UTC()
	user.LastActiveAt = &stamped
	r.users[id] = user
	return nil
}

// UpdateProfile modifies the user's presentational fields.
func (r *UserRepository) UpdateProfile(_ context.Context, id string, displayName string, bio, profileImage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.DisplayName = displayName
	user.Bio = bio
	user.ProfileImage = profileImage
	r.users[id] = user
	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
