package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Export   ExportConfig   `mapstructure:"export"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
	// FrontendOrigins is a comma separated allow-list for CORS and WebSocket origin checks.
	FrontendOrigins string `mapstructure:"frontend_origins"`
	InternalSecret  string `mapstructure:"internal_secret"`
}

// Origins splits FrontendOrigins into trimmed, non-empty entries.
func (a APIConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(a.FrontendOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.TrimRight(o, "/"))
		}
	}
	return out
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	PublicEndpoint   string        `mapstructure:"public_endpoint"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	UseSSL           bool          `mapstructure:"use_ssl"`
	Bucket           string        `mapstructure:"bucket"`
	Region           string        `mapstructure:"region"`
	BucketLookup     string        `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool          `mapstructure:"auto_create_bucket"`
	PresignTTL       time.Duration `mapstructure:"presign_ttl"`
}

// AuthConfig points at the RS256 key pair and token lifetimes.
type AuthConfig struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// ExportConfig tunes the capture backend and export quotas.
type ExportConfig struct {
	// Backend selects the capturer: "rod" (default) or "chromedp".
	Backend          string        `mapstructure:"backend"`
	BrowserBin       string        `mapstructure:"browser_bin"`
	DeviceScale      float64       `mapstructure:"device_scale"`
	SettleDelay      time.Duration `mapstructure:"settle_delay"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimitPerHour int           `mapstructure:"rate_limit_per_hour"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

// WorkerConfig controls asynq concurrency.
type WorkerConfig struct {
	Concurrency          int `mapstructure:"concurrency"`
	ThumbnailConcurrency int `mapstructure:"thumbnail_concurrency"`
	// MetricsPort serves /metrics from the worker; 0 disables it.
	MetricsPort          int `mapstructure:"metrics_port"`
}

// ClamdConfig holds the clamd address; an empty address disables scanning.
type ClamdConfig struct {
	Address string `mapstructure:"address"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.frontend_origins", "http://localhost:3000")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resumify")
	v.SetDefault("database.user", "resumify")
	v.SetDefault("database.password", "resumify")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumify")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("minio.presign_ttl", "15m")
	v.SetDefault("auth.private_key_path", "keys/private.pem")
	v.SetDefault("auth.public_key_path", "keys/public.pem")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("export.backend", "rod")
	v.SetDefault("export.device_scale", 2.0)
	v.SetDefault("export.settle_delay", "100ms")
	v.SetDefault("export.timeout", "90s")
	v.SetDefault("export.rate_limit_per_hour", 20)
	v.SetDefault("export.lock_ttl", "3m")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.thumbnail_concurrency", 4)
	v.SetDefault("worker.metrics_port", 9091)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                     "API_PORT",
		"api.frontend_origins":         "FRONTEND_ORIGINS",
		"api.internal_secret":          "INTERNAL_API_SECRET",
		"database.host":                "DATABASE_HOST",
		"database.port":                "DATABASE_PORT",
		"database.name":                "POSTGRES_DB",
		"database.user":                "POSTGRES_USER",
		"database.password":            "POSTGRES_PASSWORD",
		"database.sslmode":             "DATABASE_SSLMODE",
		"redis.host":                   "REDIS_HOST",
		"redis.port":                   "REDIS_PORT",
		"redis.password":               "REDIS_PASSWORD",
		"redis.db":                     "REDIS_DB",
		"minio.endpoint":               "MINIO_ENDPOINT",
		"minio.public_endpoint":        "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":          "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":      "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                "MINIO_USE_SSL",
		"minio.bucket":                 "MINIO_BUCKET",
		"minio.region":                 "MINIO_REGION",
		"minio.bucket_lookup":          "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":     "MINIO_AUTO_CREATE_BUCKET",
		"minio.presign_ttl":            "MINIO_PRESIGN_TTL",
		"auth.private_key_path":        "JWT_PRIVATE_KEY_PATH",
		"auth.public_key_path":         "JWT_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":        "JWT_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":       "JWT_REFRESH_TOKEN_TTL",
		"export.backend":               "EXPORT_BACKEND",
		"export.browser_bin":           "EXPORT_BROWSER_BIN",
		"export.device_scale":          "EXPORT_DEVICE_SCALE",
		"export.settle_delay":          "EXPORT_SETTLE_DELAY",
		"export.timeout":               "EXPORT_TIMEOUT",
		"export.rate_limit_per_hour":   "EXPORT_RATE_LIMIT_PER_HOUR",
		"export.lock_ttl":              "EXPORT_LOCK_TTL",
		"worker.concurrency":           "WORKER_CONCURRENCY",
		"worker.thumbnail_concurrency": "WORKER_THUMBNAIL_CONCURRENCY",
		"worker.metrics_port":          "WORKER_METRICS_PORT",
		"clamd.address":                "CLAMD_ADDRESS",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.PublicEndpoint == "" {
		return errors.New("minio public endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.MinIO.PresignTTL <= 0 {
		return errors.New("minio presign ttl must be positive")
	}
	if cfg.Auth.PrivateKeyPath == "" || cfg.Auth.PublicKeyPath == "" {
		return errors.New("jwt key paths are required")
	}
	if cfg.Auth.AccessTokenTTL <= 0 || cfg.Auth.RefreshTokenTTL <= 0 {
		return errors.New("jwt token ttls must be positive")
	}
	switch cfg.Export.Backend {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("unknown export backend %q", cfg.Export.Backend)
	}
	if cfg.Export.DeviceScale < 2 {
		return errors.New("export device scale must be at least 2")
	}
	if cfg.Export.SettleDelay < 0 {
		return errors.New("export settle delay must not be negative")
	}
	if cfg.Export.Timeout <= 0 {
		return errors.New("export timeout must be positive")
	}
	if cfg.Export.RateLimitPerHour <= 0 {
		return errors.New("export rate limit must be positive")
	}
	if cfg.Export.LockTTL <= 0 {
		return errors.New("export lock ttl must be positive")
	}
	if cfg.Worker.Concurrency <= 0 || cfg.Worker.ThumbnailConcurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}
