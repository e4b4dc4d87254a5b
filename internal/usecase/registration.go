package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/infra/security"
	"github.com/chirpnet/chirp-auth/internal/repository"
)

var (
	// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

// ConflictError reports a registration collision on a unique identity field.
type ConflictError struct {
	Field string
}

// Error implements error for ConflictError.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("user with this %s already exists", e.Field)
}

// RegisterInput carries the fields accepted at signup.
type RegisterInput struct {
	Email        string
	Username     string
	DisplayName  string
	Password     string
	Bio          *string
	ProfileImage *string
}

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	users     port.UserRepository
	publisher port.EventPublisher
	logger    *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(users port.UserRepository, publisher port.EventPublisher, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{users: users, publisher: publisher, logger: logger}
}

// Register creates a new account after uniqueness and password policy checks.
// The uniqueness probe is a single disjunctive lookup; when both fields
// collide the email conflict is reported.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)
	displayName := strings.TrimSpace(input.DisplayName)

	if email == "" {
		return domain.User{}, fmt.Errorf("email is required")
	}
	if username == "" {
		return domain.User{}, fmt.Errorf("username is required")
	}
	if displayName == "" {
		displayName = username
	}
	if input.Password == "" {
		return domain.User{}, fmt.Errorf("password is required")
	}

	existing, err := s.users.GetByEmailOrUsername(ctx, email, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup existing user: %w", err)
	}
	if existing != nil {
		if strings.EqualFold(existing.Email, email) {
			return domain.User{}, &ConflictError{Field: "email"}
		}
		return domain.User{}, &ConflictError{Field: "username"}
	}

	validator := security.NewPasswordValidatorWithContext(email, username)
	if err := validator.Validate(input.Password); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		DisplayName:  displayName,
		Bio:          input.Bio,
		ProfileImage: input.ProfileImage,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	if s.publisher != nil {
		event := domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Username:     user.Username,
			Email:        user.Email,
			RegisteredAt: now,
		}
		if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
			s.logger.Warn("publish user registered event failed",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return user.Sanitized(), nil
}
