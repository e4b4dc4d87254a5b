package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
)

// TokenKind distinguishes access tokens from refresh tokens. Each kind is
// signed with its own secret so one class of token can never pass for the
// other.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

var (
	// ErrInvalidToken indicates a token that failed signature or structural
	// verification.
	ErrInvalidToken = errors.New("security: invalid token")
	// ErrExpiredToken indicates a structurally valid token past its expiry.
	ErrExpiredToken = errors.New("security: token expired")
)

// TokenCodecConfig carries the signing material and lifetimes for both token
// kinds.
type TokenCodecConfig struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenCodec issues and verifies HS256-signed JWTs for the auth service.
type TokenCodec struct {
	cfg TokenCodecConfig
}

// NewTokenCodec validates the configuration and builds a codec.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("security: access token secret is required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("security: refresh token secret is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("security: access token ttl must be positive")
	}
	if cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("security: refresh token ttl must be positive")
	}
	return &TokenCodec{cfg: cfg}, nil
}

// AccessTokenTTL reports the configured access token lifetime.
func (c *TokenCodec) AccessTokenTTL() time.Duration { return c.cfg.AccessTokenTTL }

// RefreshTokenTTL reports the configured refresh token lifetime.
func (c *TokenCodec) RefreshTokenTTL() time.Duration { return c.cfg.RefreshTokenTTL }

// IssuePair signs a fresh access/refresh token pair for the given subject.
func (c *TokenCodec) IssuePair(subjectID string, now time.Time) (domain.TokenPair, error) {
	access, err := c.issue(subjectID, TokenKindAccess, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := c.issue(subjectID, TokenKindRefresh, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (c *TokenCodec) issue(subjectID string, kind TokenKind, now time.Time) (string, error) {
	secret, ttl, err := c.material(kind)
	if err != nil {
		return "", err
	}

	// The jti claim makes every signed token unique. Without it two tokens
	// issued within the same second would be byte-identical (iat/exp have
	// second precision), so a rotation could hand back the very string it
	// just consumed.
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry against the secret for the
// given kind and returns the subject claim.
func (c *TokenCodec) Verify(tokenString string, kind TokenKind) (string, error) {
	secret, _, err := c.material(kind)
	if err != nil {
		return "", err
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func (c *TokenCodec) material(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case TokenKindAccess:
		return c.cfg.AccessSecret, c.cfg.AccessTokenTTL, nil
	case TokenKindRefresh:
		return c.cfg.RefreshSecret, c.cfg.RefreshTokenTTL, nil
	default:
		return nil, 0, fmt.Errorf("security: unknown token kind %q", kind)
	}
}
