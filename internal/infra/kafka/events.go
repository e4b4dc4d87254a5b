package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes auth.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string         `json:"user_id"`
		Username     string         `json:"username"`
		Email        string         `json:"email"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishUserLoggedIn publishes auth.user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	payload := struct {
		UserID     string         `json:"user_id"`
		LoggedInAt time.Time      `json:"logged_in_at"`
		IP         *string        `json:"ip,omitempty"`
		UserAgent  *string        `json:"user_agent,omitempty"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		UserID:     event.UserID,
		LoggedInAt: event.LoggedInAt.UTC(),
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
}

// PublishTokenRefreshed publishes auth.token.refreshed events.
func (p *EventPublisher) PublishTokenRefreshed(ctx context.Context, event domain.TokenRefreshedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		RotatedFromID string         `json:"rotated_from_id"`
		NewTokenID    string         `json:"new_token_id"`
		RefreshedAt   time.Time      `json:"refreshed_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		RotatedFromID: event.RotatedFromID,
		NewTokenID:    event.NewTokenID,
		RefreshedAt:   event.RefreshedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.token.refreshed", event.UserID, event.RefreshedAt, payload)
}

// PublishTokenRevoked publishes auth.token.revoked events.
func (p *EventPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		TokensRevoked int            `json:"tokens_revoked"`
		RevokedAt     time.Time      `json:"revoked_at"`
		Reason        string         `json:"reason,omitempty"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		TokensRevoked: event.TokensRevoked,
		RevokedAt:     event.RevokedAt.UTC(),
		Reason:        event.Reason,
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.token.revoked", event.UserID, event.RevokedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
