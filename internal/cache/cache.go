package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ZanzyTHEbar/karma-compass/internal/monitoring"
)

const (
	defaultMaxEntries = 1024
	defaultTTL        = 10 * time.Minute
)

// Metrics is the subset of monitoring.Metrics the cache reports to.
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

var _ Metrics = (*monitoring.Metrics)(nil)

type entry struct {
	data     []byte
	storedAt time.Time
}

// Cache is a bounded LRU of rendered responses with a per-entry TTL.
type Cache struct {
	items     *lru.Cache[string, entry]
	ttl       time.Duration
	maxSize   int
	now       func() time.Time
	evictions atomic.Int64
}

// NewCache creates a cache. Non-positive arguments fall back to defaults.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &Cache{ttl: ttl, maxSize: maxEntries, now: time.Now}

	items, err := lru.NewWithEvict[string, entry](maxEntries, func(string, entry) {
		c.evictions.Add(1)
	})
	if err != nil {
		// only fails for a non-positive size, which is guarded above
		panic(err)
	}
	c.items = items
	return c
}

// Key derives a cache key from the route and the canonical form of a JSON
// body, so formatting and map key order do not split entries.
func Key(route string, body []byte) string {
	canonical := body
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		if normalized, err := json.Marshal(decoded); err == nil {
			canonical = normalized
		}
	}

	h := sha256.New()
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves an unexpired item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	e, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.items.Remove(key)
		return nil, false
	}
	return e.data, true
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	c.items.Add(key, entry{data: append([]byte(nil), data...), storedAt: c.now()})
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.items.Remove(key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.items.Purge()
}

// Size returns the number of items in the cache, expired ones included
func (c *Cache) Size() int {
	return c.items.Len()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	total, expired := 0, 0
	now := c.now()
	for _, key := range c.items.Keys() {
		e, ok := c.items.Peek(key)
		if !ok {
			continue
		}
		total++
		if now.Sub(e.storedAt) >= c.ttl {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   total,
		"expired_items": expired,
		"active_items":  total - expired,
		"max_items":     c.maxSize,
		"evictions":     c.evictions.Load(),
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware caches successful JSON responses of POST requests keyed by body.
func (c *Cache) Middleware(metrics Metrics, logger *monitoring.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := Key(ctx.FullPath(), body)

		if cached, found := c.Get(key); found {
			logger.CacheLogger("get", key, true, c.Size())
			metrics.IncrementCacheHit()
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			ctx.Abort()
			return
		}

		logger.CacheLogger("get", key, false, c.Size())
		metrics.IncrementCacheMiss()
		ctx.Header("X-Cache", "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		// errors recorded with c.Error are rendered later by the error handler
		if len(ctx.Errors) == 0 && wrapper.Written() && wrapper.Status() == http.StatusOK {
			c.Set(key, wrapper.body.Bytes())
			logger.CacheLogger("set", key, false, c.Size())
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
