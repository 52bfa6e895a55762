package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/automaxprocs/maxprocs"

	"resumify/internal/api"
	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/config"
	"resumify/internal/database"
	"resumify/internal/drafts"
	"resumify/internal/ratelimit"
	"resumify/internal/storage"
)

const (
	loginAttemptsPerHour = 10
	exportLockPrefix     = "lock:export:"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Info(fmt.Sprintf(format, args...))
	})); err != nil {
		logger.Warn("set GOMAXPROCS failed", slog.Any("error", err))
	}

	cfg := config.MustLoad()
	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	store, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	authService, err := loadAuthService(cfg.Auth)
	if err != nil {
		return err
	}

	var scanner api.Scanner
	if cfg.Clamd.Address != "" {
		scanner = api.NewClamdScanner(cfg.Clamd.Address)
	} else {
		logger.Warn("clamd address not configured, uploads are not scanned")
	}

	router := api.NewRouter(logger, cfg.API.Origins())
	api.RegisterRoutes(router, api.Deps{
		DB:             db,
		Catalog:        catalog.Default(),
		Drafts:         drafts.NewStore(db, logger),
		Store:          store,
		Queue:          asynqClient,
		Auth:           authService,
		Redis:          redisClient,
		Revoker:        api.NewRedisRevoker(redisClient),
		LoginLimiter:   ratelimit.NewRedis(redisClient, "rate:login:", loginAttemptsPerHour, time.Hour),
		ExportLimiter:  ratelimit.NewRedis(redisClient, "rate:export:", cfg.Export.RateLimitPerHour, time.Hour),
		ExportLock:     ratelimit.NewKeyLock(redisClient, exportLockPrefix, cfg.Export.LockTTL),
		Scanner:        scanner,
		Logger:         logger,
		Origins:        cfg.API.Origins(),
		InternalSecret: cfg.API.InternalSecret,
		PresignTTL:     cfg.MinIO.PresignTTL,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadAuthService(cfg config.AuthConfig) (*auth.AuthService, error) {
	privateKey, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read jwt private key: %w", err)
	}
	publicKey, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read jwt public key: %w", err)
	}
	svc, err := auth.NewAuthService(privateKey, publicKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	return svc, nil
}
