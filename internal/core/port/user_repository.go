package port

import (
	"context"
	"time"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByEmailOrUsername performs the single disjunctive lookup used by
	// registration conflict checks.
	GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	UpdateLastActive(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, displayName string, bio, profileImage *string) error
}
