package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/karma-compass/internal/monitoring"
)

func bootstrapTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.RateLimitPerMin = 100000
	srv, cleanup, err := Bootstrap(context.Background(), cfg, monitoring.NewLoggerWithWriter(io.Discard, "error"))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return srv
}

// fullRequest answers one question per embedded questionnaire.
func fullRequest(birthYear int) string {
	return fmt.Sprintf(`{
		"beliefSystems": ["astrology", "psychology", "chakras", "numerology", "tarot"],
		"answers": {
			"astrology": {"astro-sun-element": "water", "astro-life-areas": ["relationships", "spirit"]},
			"psychology": {"psy-empathy": 9, "psy-values": ["compassion", "knowledge"]},
			"chakras": {"chakra-strongest": "heart"},
			"numerology": {"num-repeating": "study"},
			"tarot": {"tarot-major": "lovers"}
		},
		"profile": {"name": "Load Test", "birthDate": "%d-03-14"}
	}`, birthYear)
}

func TestBootstrap_RedisUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	srv, cleanup, err := Bootstrap(context.Background(), cfg, monitoring.NewLoggerWithWriter(io.Discard, "error"))
	require.NoError(t, err, "an unreachable Redis degrades to in-memory limiting")
	defer cleanup()

	w := do(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "disabled", body["services"].(map[string]any)["redis"])
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	srv := bootstrapTestServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := do(srv, method, "/health", "")
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestAnalyzeEndpoint_LoadTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping load test in short mode")
	}

	srv := bootstrapTestServer(t)

	const numRequests = 200
	const numConcurrent = 20

	type outcome struct {
		duration time.Duration
		status   int
	}
	results := make(chan outcome, numRequests)

	// distinct birth years defeat the response cache
	for i := 0; i < numConcurrent; i++ {
		go func(worker int) {
			for j := 0; j < numRequests/numConcurrent; j++ {
				body := fullRequest(1950 + (worker*numRequests/numConcurrent+j)%70)
				start := time.Now()
				w := do(srv, http.MethodPost, "/analyze", body)
				results <- outcome{time.Since(start), w.Code}
			}
		}(i)
	}

	var totalDuration, maxDuration time.Duration
	successCount := 0
	for i := 0; i < numRequests; i++ {
		result := <-results
		totalDuration += result.duration
		if result.status == http.StatusOK {
			successCount++
		}
		if result.duration > maxDuration {
			maxDuration = result.duration
		}
	}

	averageDuration := totalDuration / numRequests
	t.Logf("Load test results:")
	t.Logf("  Total requests: %d", numRequests)
	t.Logf("  Successful responses: %d", successCount)
	t.Logf("  Average response time: %v", averageDuration)
	t.Logf("  Max response time: %v", maxDuration)

	assert.Equal(t, numRequests, successCount, "All requests should succeed")
	assert.Less(t, averageDuration, 250*time.Millisecond)
	assert.Less(t, maxDuration, 2*time.Second)
}

func TestEndpoint_ResponseTimeDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping response time distribution test in short mode")
	}

	srv := bootstrapTestServer(t)

	const numRequests = 100
	durations := make([]time.Duration, numRequests)

	for i := 0; i < numRequests; i++ {
		start := time.Now()
		w := do(srv, http.MethodPost, "/analyze", fullRequest(1950+i%70))
		durations[i] = time.Since(start)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	percentiles := calculatePercentiles(durations, 0.5, 0.95, 0.99)
	t.Logf("Response time distribution: P50 %v, P95 %v, P99 %v", percentiles[0], percentiles[1], percentiles[2])

	assert.Less(t, percentiles[1], 500*time.Millisecond, "95th percentile should be under 500ms")
	assert.Less(t, percentiles[2], time.Second, "99th percentile should be under 1 second")
}

func TestAnalyzeEndpoint_AgeBandsThroughHTTP(t *testing.T) {
	srv := bootstrapTestServer(t)

	tests := []struct {
		name      string
		birthYear int
		wantLine  string
	}{
		{name: "young", birthYear: 2005, wantLine: "experiment"},
		{name: "elder", birthYear: 1960, wantLine: "experience"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv, http.MethodPost, "/analyze", fullRequest(tt.birthYear))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var body struct {
				DetailedAnalysis struct {
					Recommendations []string `json:"recommendations"`
				} `json:"detailedAnalysis"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

			found := false
			for _, rec := range body.DetailedAnalysis.Recommendations {
				if strings.Contains(strings.ToLower(rec), tt.wantLine) {
					found = true
				}
			}
			assert.True(t, found, "recommendations: %v", body.DetailedAnalysis.Recommendations)
		})
	}
}

func calculatePercentiles(durations []time.Duration, percentiles ...float64) []time.Duration {
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	results := make([]time.Duration, len(percentiles))
	for i, p := range percentiles {
		index := int(float64(len(sorted)-1) * p)
		results[i] = sorted[index]
	}
	return results
}
