package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"username":      event.Username,
		"email":         event.Email,
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("auth.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishUserLoggedIn logs auth.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"logged_in_at": event.LoggedInAt,
		"ip":           event.IP,
		"user_agent":   event.UserAgent,
		"metadata":     event.Metadata,
	}
	p.logEvent("auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
	return nil
}

// PublishTokenRefreshed logs auth.token.refreshed events.
func (p *StubPublisher) PublishTokenRefreshed(_ context.Context, event domain.TokenRefreshedEvent) error {
	payload := map[string]any{
		"user_id":         event.UserID,
		"rotated_from_id": event.RotatedFromID,
		"new_token_id":    event.NewTokenID,
		"refreshed_at":    event.RefreshedAt,
		"metadata":        event.Metadata,
	}
	p.logEvent("auth.token.refreshed", event.UserID, event.RefreshedAt, payload)
	return nil
}

// PublishTokenRevoked logs auth.token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	payload := map[string]any{
		"user_id":        event.UserID,
		"tokens_revoked": event.TokensRevoked,
		"revoked_at":     event.RevokedAt,
		"reason":         event.Reason,
		"metadata":       event.Metadata,
	}
	p.logEvent("auth.token.revoked", event.UserID, event.RevokedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
