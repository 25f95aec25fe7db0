// Package server exposes the analysis engine and the catalogs over HTTP.
//
//	@title			Karma Compass API
//	@version		1.0.0
//	@description	Karma type analysis across astrology, psychology, chakras, numerology and tarot.
//	@BasePath		/
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/karma-compass/docs"
	"github.com/ZanzyTHEbar/karma-compass/internal/analysis"
	"github.com/ZanzyTHEbar/karma-compass/internal/cache"
	"github.com/ZanzyTHEbar/karma-compass/internal/config"
	apperrors "github.com/ZanzyTHEbar/karma-compass/internal/errors"
	"github.com/ZanzyTHEbar/karma-compass/internal/middleware"
	"github.com/ZanzyTHEbar/karma-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/karma-compass/internal/ratelimit"
	"github.com/ZanzyTHEbar/karma-compass/internal/security"
)

// Version is reported by /health.
const Version = "1.0.0"

const shutdownTimeout = 30 * time.Second

// Deps are the collaborators the server routes requests to. Redis may be nil.
type Deps struct {
	Config   *config.Config
	Analyzer *analysis.Analyzer
	Metrics  *monitoring.Metrics
	Logger   *monitoring.Logger
	Limiter  *ratelimit.RateLimiter
	Cache    *cache.Cache
	Redis    *ratelimit.RedisClient
}

// Server owns the gin engine and the http.Server around it.
type Server struct {
	deps        Deps
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware
	router      *gin.Engine
}

// New wires middleware and routes.
func New(deps Deps) *Server {
	s := &Server{
		deps: deps,
		security: security.NewSecurityMiddleware(security.SecurityConfig{
			RequestTimeout: deps.Config.RequestTimeout,
		}),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.deps.Metrics, s.deps.Logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(cors.New(corsConfig(s.deps.Config.CORSOrigins)))
	r.Use(s.security.SecurityHeaders)
	r.Use(s.security.RequestTimeout)
	r.Use(s.deps.Limiter.IPRateLimitMiddleware())

	r.POST("/analyze",
		s.security.ValidateContentType,
		s.security.LimitBody,
		s.deps.Cache.Middleware(s.deps.Metrics, s.deps.Logger),
		s.handleAnalyze,
	)

	catalogGroup := r.Group("/catalog", s.compression.Handler())
	catalogGroup.GET("/karma-types", s.handleListKarmaTypes)
	catalogGroup.GET("/karma-types/:id", s.security.ValidateParam("id"), s.handleGetKarmaType)
	catalogGroup.GET("/questionnaires", s.handleListQuestionnaires)
	catalogGroup.GET("/questionnaires/:system", s.security.ValidateParam("system"), s.handleGetQuestionnaire)

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	r.GET("/metrics/summary", s.handleMetricsSummary)
	r.GET("/cache/stats", s.handleCacheStats)
	r.GET("/ratelimit/stats", s.handleRateLimitStats)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders: []string{monitoring.RequestIDHeader, "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run serves on the configured port until ctx is done, then drains
// in-flight requests for up to 30 seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.deps.Config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.deps.Logger.SystemLogger("server_start", fmt.Sprintf("listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.deps.Logger.SystemLogger("server_shutdown", "draining in-flight requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
