package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/chirpnet/chirp-auth/internal/transport/http/middleware"
)

var _ middleware.RateLimitStore = (*RateLimitRepository)(nil)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func newTestRepository(t *testing.T) (*RateLimitRepository, *miniredis.Miniredis) {
	t.Helper()

	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "chirp:rate-limit",
		TTL:       2 * time.Minute,
	})
	return repo, server
}

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	repo, server := newTestRepository(t)

	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "203.0.113.7", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "203.0.113.7", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}

	remaining := server.TTL("chirp:rate-limit:203.0.113.7")
	if remaining <= 0 || remaining > 2*time.Minute {
		t.Fatalf("expected ttl within (0, 2m], got %v", remaining)
	}
}

func TestRateLimitRepository_CountExcludesAttemptsOutsideWindow(t *testing.T) {
	repo, _ := newTestRepository(t)

	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "client", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now.Add(-10*time.Second)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "client", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt inside window, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	repo, _ := newTestRepository(t)

	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "client", now.Add(-5*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "client", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "client", 10*time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected trimmed set to hold 1 attempt, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	repo, _ := newTestRepository(t)

	ctx := context.Background()
	now := time.Now()
	oldest := now.Add(-30 * time.Second)

	if err := repo.RecordAttempt(ctx, "client", oldest); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	got, ok, err := repo.OldestAttempt(ctx, "client", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected an attempt inside the window")
	}
	if !got.Equal(oldest) {
		t.Fatalf("expected oldest %v, got %v", oldest, got)
	}
}

func TestRateLimitRepository_OldestAttemptEmpty(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, ok, err := repo.OldestAttempt(context.Background(), "missing", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected no attempts for missing identifier")
	}
}

func TestRateLimitRepository_RejectsNonPositiveWindow(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CountAttempts(ctx, "client", 0, time.Now()); err == nil {
		t.Fatalf("expected error for zero window")
	}
	if err := repo.TrimWindow(ctx, "client", -time.Second, time.Now()); err == nil {
		t.Fatalf("expected error for negative window")
	}
	if _, _, err := repo.OldestAttempt(ctx, "client", 0, time.Now()); err == nil {
		t.Fatalf("expected error for zero window")
	}
}
