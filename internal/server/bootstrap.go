package server

import (
	"context"

	"github.com/ZanzyTHEbar/karma-compass/internal/analysis"
	"github.com/ZanzyTHEbar/karma-compass/internal/cache"
	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
	"github.com/ZanzyTHEbar/karma-compass/internal/config"
	apperrors "github.com/ZanzyTHEbar/karma-compass/internal/errors"
	"github.com/ZanzyTHEbar/karma-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/karma-compass/internal/ratelimit"
)

// Bootstrap builds a Server from configuration. The cleanup func stops the
// limiter and closes Redis; call it after Run returns.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*Server, func(), error) {
	cat, err := catalog.LoadEmbedded()
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError("failed to load embedded catalogs", err)
	}

	metrics := monitoring.NewMetrics()

	redisClient, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.WarningLogger("redis_connect", err, "addr", cfg.RedisAddr)
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.IPLimit = cfg.RateLimitPerMin
	limiterCfg.Burst = cfg.RateLimitBurst
	limiter := ratelimit.NewRateLimiter(redisClient, limiterCfg, metrics)

	srv := New(Deps{
		Config:   cfg,
		Analyzer: analysis.NewAnalyzer(cat, analysis.DefaultConfig()),
		Metrics:  metrics,
		Logger:   logger,
		Limiter:  limiter,
		Cache:    cache.NewCache(cfg.CacheSize, cfg.CacheTTL),
		Redis:    redisClient,
	})

	cleanup := func() {
		limiter.Close()
		apperrors.SafeClose(redisClient, "redis")
	}
	return srv, cleanup, nil
}

// ListenAndServe bootstraps and runs the service until ctx is cancelled.
func ListenAndServe(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) error {
	srv, cleanup, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.Run(ctx)
}
