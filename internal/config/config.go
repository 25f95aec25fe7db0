package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/ZanzyTHEbar/karma-compass/internal/errors"
)

const (
	envPrefix  = "KARMA"
	configName = "karma-config"
)

// Config holds the service settings.
type Config struct {
	Port            string        `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheSize       int           `mapstructure:"cache_size"`
	RateLimitPerMin int           `mapstructure:"rate_limit_per_min"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("cache_size", 1024)
	v.SetDefault("rate_limit_per_min", 60)
	v.SetDefault("rate_limit_burst", 0)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("cors_origins", []string{"*"})
}

// New returns a viper instance reading KARMA_* env vars and an optional
// karma-config.yaml from the working directory or $HOME.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads configuration with New and validates it.
func Load() (*Config, error) {
	return FromViper(New())
}

// FromViper reads the config file if one exists, decodes and validates.
func FromViper(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigurationError("failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to decode configuration", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

// Validate checks ranges that would otherwise fail at runtime.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Port) == "":
		return apperrors.NewConfigurationError("port must not be empty", nil)
	case c.CacheTTL <= 0:
		return apperrors.NewConfigurationError(fmt.Sprintf("cache_ttl must be positive, got %s", c.CacheTTL), nil)
	case c.CacheSize <= 0:
		return apperrors.NewConfigurationError(fmt.Sprintf("cache_size must be positive, got %d", c.CacheSize), nil)
	case c.RateLimitPerMin <= 0:
		return apperrors.NewConfigurationError(fmt.Sprintf("rate_limit_per_min must be positive, got %d", c.RateLimitPerMin), nil)
	case c.RateLimitBurst < 0:
		return apperrors.NewConfigurationError(fmt.Sprintf("rate_limit_burst must not be negative, got %d", c.RateLimitBurst), nil)
	case c.RedisDB < 0:
		return apperrors.NewConfigurationError(fmt.Sprintf("redis_db must not be negative, got %d", c.RedisDB), nil)
	case c.RequestTimeout <= 0:
		return apperrors.NewConfigurationError(fmt.Sprintf("request_timeout must be positive, got %s", c.RequestTimeout), nil)
	}
	return nil
}
