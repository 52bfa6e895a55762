package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "rod", cfg.Export.Backend)
	assert.Equal(t, 2.0, cfg.Export.DeviceScale)
	assert.Equal(t, 100*time.Millisecond, cfg.Export.SettleDelay)
	assert.Equal(t, 90*time.Second, cfg.Export.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.Origins())
	assert.Empty(t, cfg.Clamd.Address)
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXPORT_BACKEND", "chromedp")
	t.Setenv("EXPORT_SETTLE_DELAY", "250ms")
	t.Setenv("EXPORT_DEVICE_SCALE", "3")
	t.Setenv("FRONTEND_ORIGINS", "https://app.example.com/, https://www.example.com ,")
	t.Setenv("CLAMD_ADDRESS", "tcp://clamav:3310")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chromedp", cfg.Export.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Export.SettleDelay)
	assert.Equal(t, 3.0, cfg.Export.DeviceScale)
	assert.Equal(t, []string{"https://app.example.com", "https://www.example.com"}, cfg.API.Origins())
	assert.Equal(t, "tcp://clamav:3310", cfg.Clamd.Address)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing minio key":   {"MINIO_ACCESS_KEY_ID": ""},
		"unknown backend":     {"EXPORT_BACKEND": "wkhtmltopdf"},
		"low device scale":    {"EXPORT_DEVICE_SCALE": "1"},
		"non-positive quota":  {"EXPORT_RATE_LIMIT_PER_HOUR": "0"},
		"negative settle":     {"EXPORT_SETTLE_DELAY": "-1s"},
		"zero worker threads": {"WORKER_CONCURRENCY": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "resumify", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=resumify sslmode=disable", d.DSN())
}
