package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chirpnet/chirp-auth/internal/core/domain"
	"github.com/chirpnet/chirp-auth/internal/repository/memory"
)

func TestUserServiceUpdateProfile(t *testing.T) {
	users := memory.NewUserRepository()
	service := NewUserService(users)

	seed := domain.User{
		ID:           "user-1",
		Email:        "jane@example.com",
		Username:     "janedoe",
		DisplayName:  "Jane",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	bio := "gopher"
	updated, err := service.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{
		DisplayName: "Jane D.",
		Bio:         &bio,
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	if updated.DisplayName != "Jane D." {
		t.Fatalf("unexpected display name: %s", updated.DisplayName)
	}
	if updated.Bio == nil || *updated.Bio != "gopher" {
		t.Fatalf("unexpected bio: %v", updated.Bio)
	}
	if updated.PasswordHash != "" {
		t.Fatal("password hash leaked through UpdateProfile")
	}
}

func TestUserServiceUpdateProfileMissingUser(t *testing.T) {
	service := NewUserService(memory.NewUserRepository())

	_, err := service.UpdateProfile(context.Background(), "missing", UpdateProfileInput{DisplayName: "X"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserServiceGetByID(t *testing.T) {
	users := memory.NewUserRepository()
	service := NewUserService(users)

	if _, err := service.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	seed := domain.User{ID: "user-1", Email: "a@b.c", Username: "abc", PasswordHash: "hash", IsActive: true}
	if err := users.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	user, err := service.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked")
	}
}
