package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// UserProfile describes the public view of a user returned by the API.
type UserProfile struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"displayName"`
	Bio          *string    `json:"bio,omitempty"`
	ProfileImage *string    `json:"profileImage,omitempty"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActiveAt *time.Time `json:"lastActiveAt,omitempty"`
}

func newUserProfile(user domain.User) UserProfile {
	return UserProfile{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		Bio:          user.Bio,
		ProfileImage: user.ProfileImage,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		LastActiveAt: user.LastActiveAt,
	}
}

// RegisterRequest defines the payload for the registration endpoint.
type RegisterRequest struct {
	Email        string  `json:"email" binding:"required"`
	Username     string  `json:"username" binding:"required"`
	DisplayName  string  `json:"displayName"`
	Password     string  `json:"password" binding:"required"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the access token and user; the refresh token travels
// in an HTTP-only cookie, never in the body.
type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        UserProfile `json:"user"`
}

// RefreshResponse carries the replacement access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// LogoutResponse acknowledges a logout regardless of whether a live token was
// presented.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// UpdateProfileRequest defines the payload for profile edits.
type UpdateProfileRequest struct {
	DisplayName  string  `json:"displayName" binding:"required"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

// SessionSummary provides a compact view of a live refresh-token session.
type SessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newSessionSummary(token domain.RefreshToken) SessionSummary {
	return SessionSummary{
		ID:        token.ID,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
