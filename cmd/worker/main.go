package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/automaxprocs/maxprocs"

	"resumify/internal/catalog"
	"resumify/internal/config"
	"resumify/internal/database"
	"resumify/internal/export"
	"resumify/internal/metrics"
	"resumify/internal/ratelimit"
	"resumify/internal/storage"
	"resumify/internal/tasks"
	"resumify/internal/worker"
)

// 与 API 使用同一前缀，worker 在导出结束时释放 API 加的锁。
const exportLockPrefix = "lock:export:"

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
		logger.Error("worker stopped", slog.Any("error", err))
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
	logger.Info("database connection ready for worker")

	store, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	capturer := export.NewCapturer(cfg.Export.Backend, cfg.Export.BrowserBin, cfg.Export.Timeout, logger)
	if closer, ok := capturer.(io.Closer); ok {
		defer closer.Close()
	}
	pipeline := export.NewPipeline(capturer, export.Options{
		DeviceScale: cfg.Export.DeviceScale,
		SettleDelay: cfg.Export.SettleDelay,
		Logger:      logger,
	})
	cat := catalog.Default()

	exportHandler := worker.NewExportHandler(
		db,
		store,
		pipeline,
		cat,
		redisClient,
		ratelimit.NewKeyLock(redisClient, exportLockPrefix, cfg.Export.LockTTL),
		logger,
	)
	thumbnailHandler := worker.NewThumbnailHandler(db, store, capturer, cat, cfg.Worker.ThumbnailConcurrency, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMiddleware())
	mux.Handle(tasks.TypeExportGenerate, exportHandler)
	mux.Handle(tasks.TypeThumbnailGenerate, thumbnailHandler)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues:      map[string]int{"default": 6, "low": 1},
		Logger:      asynqLogger{logger},
	})

	if cfg.Worker.MetricsPort > 0 {
		metricsSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
		defer metricsSrv.Close()
	}

	if err := server.Start(mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))

	<-ctx.Done()
	logger.Info("shutting down worker")
	server.Shutdown()
	return nil
}

// asynqLogger 把 asynq 的日志转到 slog。
type asynqLogger struct {
	l *slog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) {
	a.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
