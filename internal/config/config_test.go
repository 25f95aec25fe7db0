package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/karma-compass/internal/errors"
)

// inEmptyDir runs the test from a directory without a config file.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inEmptyDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, 60, cfg.RateLimitPerMin)
	assert.Equal(t, 0, cfg.RateLimitBurst)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("KARMA_PORT", "9090")
	t.Setenv("KARMA_LOG_LEVEL", "debug")
	t.Setenv("KARMA_CACHE_TTL", "5m")
	t.Setenv("KARMA_RATE_LIMIT_PER_MIN", "120")
	t.Setenv("KARMA_REDIS_ADDR", "localhost:6379")
	t.Setenv("KARMA_REDIS_DB", "2")
	t.Setenv("KARMA_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadFromFile(t *testing.T) {
	dir := inEmptyDir(t)
	doc := []byte("port: \"7000\"\ncache_size: 16\ncors_origins:\n  - https://karma.example\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "karma-config.yaml"), doc, 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, []string{"https://karma.example"}, cfg.CORSOrigins)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "karma-config.yaml"), []byte("port: \"7000\"\n"), 0o600))
	t.Setenv("KARMA_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := inEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "karma-config.yaml"), []byte("port: [unclosed\n"), 0o600))

	_, err := Load()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CategoryConfiguration, appErr.Category)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:            "8080",
			CacheTTL:        time.Minute,
			CacheSize:       1,
			RateLimitPerMin: 1,
			RequestTimeout:  time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty port", mutate: func(c *Config) { c.Port = " " }, wantErr: "port"},
		{name: "zero cache ttl", mutate: func(c *Config) { c.CacheTTL = 0 }, wantErr: "cache_ttl"},
		{name: "zero cache size", mutate: func(c *Config) { c.CacheSize = 0 }, wantErr: "cache_size"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMin = 0 }, wantErr: "rate_limit_per_min"},
		{name: "negative burst", mutate: func(c *Config) { c.RateLimitBurst = -1 }, wantErr: "rate_limit_burst"},
		{name: "negative redis db", mutate: func(c *Config) { c.RedisDB = -1 }, wantErr: "redis_db"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "request_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Details["config_details"], tt.wantErr)
		})
	}
}
