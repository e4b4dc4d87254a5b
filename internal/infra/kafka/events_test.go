package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer *fakeAsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "auth",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "chirp-auth",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishTokenRefreshed(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	refreshedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	event := domain.TokenRefreshedEvent{
		EventID:       "event-123",
		UserID:        "user-789",
		RotatedFromID: "token-old",
		NewTokenID:    "token-new",
		RefreshedAt:   refreshedAt,
		Metadata:      map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishTokenRefreshed(context.Background(), event); err != nil {
		t.Fatalf("PublishTokenRefreshed returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "auth.token.refreshed" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "auth.token.refreshed" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		if got := envelope["user_id"]; got != event.UserID {
			t.Fatalf("unexpected user_id: %v", got)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}

		if timestamp != refreshedAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["rotated_from_id"]; got != event.RotatedFromID {
			t.Fatalf("unexpected rotated_from_id: %v", got)
		}

		if got := payload["new_token_id"]; got != event.NewTokenID {
			t.Fatalf("unexpected new_token_id: %v", got)
		}

		metadata, ok := payload["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("metadata not a map: %T", payload["metadata"])
		}

		if metadata["source"] != "unit-test" {
			t.Fatalf("metadata did not round-trip: %v", metadata)
		}

		envelopeMetadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}

		if envelopeMetadata["service"] != "chirp-auth" {
			t.Fatalf("unexpected metadata service: %v", envelopeMetadata["service"])
		}

		if envelopeMetadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", envelopeMetadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishTokenRevoked(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	revokedAt := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)
	event := domain.TokenRevokedEvent{
		EventID:       "evt-001",
		UserID:        "user-123",
		TokensRevoked: 3,
		RevokedAt:     revokedAt,
		Reason:        "logout_all",
		Metadata:      map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishTokenRevoked(context.Background(), event); err != nil {
		t.Fatalf("PublishTokenRevoked returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "auth.token.revoked" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "auth.token.revoked" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		tokensRevoked, ok := payload["tokens_revoked"].(float64)
		if !ok {
			t.Fatalf("tokens_revoked not numeric: %T", payload["tokens_revoked"])
		}
		if int(tokensRevoked) != event.TokensRevoked {
			t.Fatalf("unexpected tokens_revoked: %v", tokensRevoked)
		}

		reason, _ := payload["reason"].(string)
		if reason != event.Reason {
			t.Fatalf("unexpected reason: %s", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishUserRegistered(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	registeredAt := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)
	event := domain.UserRegisteredEvent{
		EventID:      "evt-reg-1",
		UserID:       "user-1",
		Username:     "janedoe",
		Email:        "jane.doe@example.com",
		RegisteredAt: registeredAt,
	}

	if err := publisher.PublishUserRegistered(context.Background(), event); err != nil {
		t.Fatalf("PublishUserRegistered returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "auth.user.registered" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["username"]; got != event.Username {
			t.Fatalf("unexpected username: %v", got)
		}
		if got := payload["email"]; got != event.Email {
			t.Fatalf("unexpected email: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}
