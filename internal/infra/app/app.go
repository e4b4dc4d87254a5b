package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chirpnet/chirp-auth/internal/core/port"
	"github.com/chirpnet/chirp-auth/internal/infra/config"
	"github.com/chirpnet/chirp-auth/internal/infra/database"
	kafkainfra "github.com/chirpnet/chirp-auth/internal/infra/kafka"
	"github.com/chirpnet/chirp-auth/internal/infra/logger"
	redisinfra "github.com/chirpnet/chirp-auth/internal/infra/redis"
	"github.com/chirpnet/chirp-auth/internal/infra/security"
	"github.com/chirpnet/chirp-auth/internal/infra/telemetry"
	postgresrepo "github.com/chirpnet/chirp-auth/internal/repository/postgres"
	redisrepo "github.com/chirpnet/chirp-auth/internal/repository/redis"
	"github.com/chirpnet/chirp-auth/internal/transport/http/middleware"
	"github.com/chirpnet/chirp-auth/internal/transport/http/routes"
	"github.com/chirpnet/chirp-auth/internal/usecase"
)

// Application owns the wired service graph and the resources that need an
// orderly shutdown.
type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	telemetry *telemetry.Provider
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	producer  *kafkainfra.Producer
}

// New wires configuration into a runnable application: storage, token codec,
// event publishing, services, and the HTTP router.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tel, err := telemetry.Attach(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	if err := security.ConfigurePasswordPolicy(security.PasswordPolicy{
		MinLength:           cfg.Password.MinLength,
		MinCharacterClasses: cfg.Password.MinCharacterClasses,
		MinStrengthScore:    cfg.Password.MinStrengthScore,
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("configure password policy: %w", err)
	}

	codec, err := security.NewTokenCodec(security.TokenCodecConfig{
		AccessSecret:    []byte(cfg.JWT.AccessSecret),
		RefreshSecret:   []byte(cfg.JWT.RefreshSecret),
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "chirp:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	authService, err := usecase.NewAuthService(repos.Users, repos.Tokens, codec, eventPublisher, log)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	registrationService := usecase.NewRegistrationService(repos.Users, eventPublisher, log)
	userService := usecase.NewUserService(repos.Users)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Users:        userService,
		},
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		telemetry: tel,
		pool:      pool,
		redis:     redisClient,
		producer:  producer,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("close kafka producer", zap.Error(err))
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown telemetry", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
