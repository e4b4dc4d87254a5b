package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/repository"
)

// UpdateProfileInput carries the mutable profile fields. Nil pointers leave
// the stored value untouched.
type UpdateProfileInput struct {
	DisplayName  string
	Bio          *string
	ProfileImage *string
}

// UserService exposes profile reads and edits for authenticated callers.
type UserService struct {
	users port.UserRepository
}

// NewUserService constructs a UserService instance.
func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetByID fetches a user with the password hash stripped.
func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// UpdateProfile applies profile edits and returns the updated user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, fmt.Errorf("display name is required")
	}

	if err := s.users.UpdateProfile(ctx, userID, displayName, input.Bio, input.ProfileImage); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.GetByID(ctx, userID)
}
