package monitoring

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace          = "karma"
	responseSampleSize = 1000
)

// Metrics holds application metrics. Counters are exported to Prometheus
// through a private registry; the atomic totals back the JSON stats view.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	analyses        *prometheus.CounterVec
	confidence      prometheus.Histogram
	rateLimitBlocks *prometheus.CounterVec
	rateLimitErrors prometheus.Counter

	RequestCount           int64
	ErrorCount             int64
	CacheHits              int64
	CacheMisses            int64
	AnalysisCount          int64
	AnalysisFailures       int64
	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64
	StartTime              time.Time

	responseTimes      []time.Duration
	responseTimesMutex sync.RWMutex

	primaryTypes      map[string]int64
	primaryTypesMutex sync.RWMutex
}

// NewMetrics creates a metrics instance with its own registry, so tests can
// build as many as they like.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "results_total",
			Help:      "Completed analyses by primary karma type, or failures by reason.",
		}, []string{"primary", "outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "confidence",
			Help:      "Distribution of reported confidence values.",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}),
		rateLimitBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "blocked_total",
			Help:      "Requests rejected by the rate limiter, by backend.",
		}, []string{"backend"}),
		rateLimitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "redis_errors_total",
			Help:      "Redis failures that forced the in-memory fallback.",
		}),
		StartTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, responseSampleSize),
		primaryTypes:  make(map[string]int64),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.cacheLookups,
		m.analyses,
		m.confidence,
		m.rateLimitBlocks,
		m.rateLimitErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.RecordResponseTime(duration)
}

// RecordResponseTime keeps the last samples for percentile reporting
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseTimesMutex.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > responseSampleSize {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMutex.Unlock()
}

// RecordAnalysis counts a successful analysis.
func (m *Metrics) RecordAnalysis(primary string, confidence int) {
	atomic.AddInt64(&m.AnalysisCount, 1)
	m.analyses.WithLabelValues(primary, "ok").Inc()
	m.confidence.Observe(float64(confidence))

	m.primaryTypesMutex.Lock()
	m.primaryTypes[primary]++
	m.primaryTypesMutex.Unlock()
}

// RecordAnalysisFailure counts an analysis that produced no result.
func (m *Metrics) RecordAnalysisFailure(reason string) {
	atomic.AddInt64(&m.AnalysisFailures, 1)
	m.analyses.WithLabelValues("", reason).Inc()
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock(backend string) {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
	m.rateLimitBlocks.WithLabelValues(backend).Inc()
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
	m.rateLimitErrors.Inc()
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesMutex.RLock()
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	m.responseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// PrimaryTypeDistribution returns how often each karma type came out on top.
func (m *Metrics) PrimaryTypeDistribution() map[string]int64 {
	m.primaryTypesMutex.RLock()
	defer m.primaryTypesMutex.RUnlock()

	out := make(map[string]int64, len(m.primaryTypes))
	for k, v := range m.primaryTypes {
		out[k] = v
	}
	return out
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"analyses":               atomic.LoadInt64(&m.AnalysisCount),
		"analysis_failures":      atomic.LoadInt64(&m.AnalysisFailures),
		"primary_types":          m.PrimaryTypeDistribution(),
		"p50_response_time_ms":   float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":   float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":   float64(m.GetPercentileResponseTime(99)) / 1e6,
		"start_time":             m.StartTime.Format(time.RFC3339),
		"rate_limit": map[string]interface{}{
			"ip_blocks":      atomic.LoadInt64(&m.RateLimitIPBlocks),
			"redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
			"fallback_count": atomic.LoadInt64(&m.RateLimitFallbackCount),
		},
	}
}
