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
	applogger "github.com/chirpnet/chirp-auth/internal/infra/logger"
	"github.com/chirpnet/chirp-auth/internal/infra/security"
	"github.com/chirpnet/chirp-auth/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	// Unknown accounts, inactive accounts, and wrong passwords all collapse to
	// this single outcome so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken indicates the presented refresh token is unknown,
	// expired, revoked, or already rotated.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidAccessToken indicates the provided access token is malformed or signature validation failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the provided access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// LoginResult bundles the issued tokens with the authenticated user.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
}

// AuthService coordinates authentication and token lifecycle flows.
type AuthService struct {
	users     port.UserRepository
	tokens    port.TokenRepository
	codec     *security.TokenCodec
	publisher port.EventPublisher
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	tokens port.TokenRepository,
	codec *security.TokenCodec,
	publisher port.EventPublisher,
	logger *zap.Logger,
) (*AuthService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		codec:     codec,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Authenticate validates credentials and returns the matched user. Updating
// last_active_at on success is part of the contract.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Debug("password mismatch",
			zap.String("email", applogger.MaskEmail(email)))
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastActive(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last active: %w", err)
	}
	user.LastActiveAt = &now

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Login authenticates and issues a fresh token pair, persisting the refresh
// half hashed.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	now := time.Now().UTC()
	pair, err := s.codec.IssuePair(user.ID, now)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token pair: %w", err)
	}

	if _, err := s.storeRefreshToken(ctx, user.ID, pair.RefreshToken, now); err != nil {
		return LoginResult{}, err
	}

	if s.publisher != nil {
		event := domain.UserLoggedInEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			LoggedInAt: now,
		}
		if err := s.publisher.PublishUserLoggedIn(ctx, event); err != nil {
			s.logger.Warn("publish user logged in event failed",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         *user,
	}, nil
}

// Refresh rotates a presented refresh token. The matched record is revoked
// with a conditional update before the replacement is stored, so of two
// concurrent rotations of the same token exactly one succeeds.
func (s *AuthService) Refresh(ctx context.Context, userID, presented string) (domain.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if userID == "" || presented == "" {
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	now := time.Now().UTC()
	hash := security.HashToken(presented)

	record, err := s.tokens.FindActive(ctx, userID, hash, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	if err := s.tokens.Revoke(ctx, record.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the rotation race: another request already consumed it.
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, fmt.Errorf("revoke rotated token: %w", err)
	}

	pair, err := s.codec.IssuePair(userID, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	newRecord, err := s.storeRefreshToken(ctx, userID, pair.RefreshToken, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if s.publisher != nil {
		event := domain.TokenRefreshedEvent{
			EventID:       uuid.NewString(),
			UserID:        userID,
			RotatedFromID: record.ID,
			NewTokenID:    newRecord.ID,
			RefreshedAt:   now,
		}
		if err := s.publisher.PublishTokenRefreshed(ctx, event); err != nil {
			s.logger.Warn("publish token refreshed event failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	return pair, nil
}

// Revoke flags every live record carrying the presented token. Unknown or
// already-revoked tokens are a silent no-op, so logout is idempotent.
func (s *AuthService) Revoke(ctx context.Context, presented string) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil
	}

	now := time.Now().UTC()
	hash := security.HashToken(presented)

	revoked, err := s.tokens.RevokeAllByHash(ctx, hash, now)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if revoked > 0 {
		s.publishTokenRevoked(ctx, s.ownerOf(presented), revoked, now, "logout")
	}

	return nil
}

// RevokeAllForUser flags every live refresh token owned by the user.
func (s *AuthService) RevokeAllForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	now := time.Now().UTC()
	revoked, err := s.tokens.RevokeAllForUser(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}

	if revoked > 0 {
		s.publishTokenRevoked(ctx, userID, revoked, now, "logout_all")
	}

	return nil
}

// ListSessions returns the live refresh token records for the user, one per
// logged-in device.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sessions, err := s.tokens.ListActiveByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	return sessions, nil
}

// VerifyAccessToken validates a bearer token and returns the subject user id.
func (s *AuthService) VerifyAccessToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidAccessToken
	}

	subject, err := s.codec.Verify(token, security.TokenKindAccess)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return "", ErrExpiredAccessToken
		}
		return "", ErrInvalidAccessToken
	}

	return subject, nil
}

// VerifyRefreshToken validates the signature and expiry of a presented
// refresh token and returns the subject. It does not consult storage; Refresh
// does the one-shot check.
func (s *AuthService) VerifyRefreshToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidRefreshToken
	}

	subject, err := s.codec.Verify(token, security.TokenKindRefresh)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	return subject, nil
}

// GetProfile fetches a user by id with the password hash stripped.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
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

// RefreshTokenTTL exposes the configured refresh lifetime for cookie max-age.
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.codec.RefreshTokenTTL()
}

func (s *AuthService) storeRefreshToken(ctx context.Context, userID, signed string, now time.Time) (*domain.RefreshToken, error) {
	// The stored expiry is computed from the configured TTL, not read back
	// from the JWT exp claim.
	record := domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: security.HashToken(signed),
		CreatedAt: now,
		ExpiresAt: now.Add(s.codec.RefreshTokenTTL()),
	}

	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &record, nil
}

func (s *AuthService) publishTokenRevoked(ctx context.Context, userID string, count int, at time.Time, reason string) {
	if s.publisher == nil {
		return
	}

	event := domain.TokenRevokedEvent{
		EventID:       uuid.NewString(),
		UserID:        userID,
		TokensRevoked: count,
		RevokedAt:     at,
		Reason:        reason,
	}
	if err := s.publisher.PublishTokenRevoked(ctx, event); err != nil {
		s.logger.Warn("publish token revoked event failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// ownerOf extracts the subject from a presented refresh token for audit
// events. Revocation itself does not depend on the claim being valid.
func (s *AuthService) ownerOf(presented string) string {
	subject, err := s.codec.Verify(presented, security.TokenKindRefresh)
	if err != nil {
		return ""
	}
	return subject
}
