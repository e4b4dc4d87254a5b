package port

import (
	"context"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
)

// EventPublisher publishes authentication events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishTokenRefreshed(ctx context.Context, event domain.TokenRefreshedEvent) error
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
}
