// Package middleware holds gin middleware shared by the HTTP routes.
package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // smallest body worth compressing, in bytes
	CompressionLevel int      // gzip level, 1 (fastest) to 9 (smallest)
	ContentTypes     []string // compressed content type prefixes
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes:     []string{"application/json", "text/plain"},
	}
}

// CompressionMiddleware gzips buffered responses for clients that accept it
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	if config.MinSize <= 0 {
		config.MinSize = DefaultCompressionConfig().MinSize
	}
	if config.CompressionLevel == 0 || config.CompressionLevel < gzip.DefaultCompression || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = gzip.DefaultCompression
	}
	if len(config.ContentTypes) == 0 {
		config.ContentTypes = DefaultCompressionConfig().ContentTypes
	}

	cm := &CompressionMiddleware{
		config: config,
		stats:  &CompressionStats{},
	}
	cm.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(nil, cm.config.CompressionLevel)
		return gz
	}
	return cm
}

// Handler buffers the downstream response and writes it compressed when
// the client accepts gzip and the body is large enough. Handlers that only
// record an error with c.Error write nothing here, so the error handler
// renders them uncompressed.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !clientAcceptsGzip(c.Request) {
			c.Next()
			return
		}

		original := c.Writer
		buffered := &bufferedWriter{ResponseWriter: original}
		c.Writer = buffered
		c.Next()
		c.Writer = original

		if !buffered.Written() || original.Written() {
			return
		}

		body := buffered.body.Bytes()
		if len(body) < cm.config.MinSize || !cm.shouldCompress(original.Header().Get("Content-Type")) {
			cm.stats.record(len(body), len(body), false)
			original.WriteHeader(buffered.Status())
			_, _ = original.Write(body)
			return
		}

		var compressed bytes.Buffer
		gz := cm.pool.Get().(*gzip.Writer)
		gz.Reset(&compressed)
		_, err := gz.Write(body)
		if err == nil {
			err = gz.Close()
		}
		cm.pool.Put(gz)
		if err != nil {
			cm.stats.record(len(body), len(body), false)
			original.WriteHeader(buffered.Status())
			_, _ = original.Write(body)
			return
		}

		header := original.Header()
		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")
		original.WriteHeader(buffered.Status())
		_, _ = original.Write(compressed.Bytes())
		cm.stats.record(len(body), compressed.Len(), true)
	}
}

func clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.HasPrefix(contentType, ct) {
			return true
		}
	}
	return false
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

// bufferedWriter holds the status and body until the middleware decides
// how to encode them.
type bufferedWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && w.status == 0 {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.WriteHeaderNow()
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.WriteHeaderNow()
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *bufferedWriter) Size() int {
	if w.status == 0 {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.status != 0
}

// Flush is a no-op; the body is written once the handler chain returns.
func (w *bufferedWriter) Flush() {}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	totalResponses      int64
	compressedResponses int64
	totalBytes          int64
	compressedBytes     int64
}

func (cs *CompressionStats) record(originalSize, writtenSize int, compressed bool) {
	atomic.AddInt64(&cs.totalResponses, 1)
	atomic.AddInt64(&cs.totalBytes, int64(originalSize))
	atomic.AddInt64(&cs.compressedBytes, int64(writtenSize))
	if compressed {
		atomic.AddInt64(&cs.compressedResponses, 1)
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	total := atomic.LoadInt64(&cs.totalBytes)
	written := atomic.LoadInt64(&cs.compressedBytes)

	ratio := float64(1)
	if total > 0 {
		ratio = float64(written) / float64(total)
	}

	return map[string]interface{}{
		"total_responses":      atomic.LoadInt64(&cs.totalResponses),
		"compressed_responses": atomic.LoadInt64(&cs.compressedResponses),
		"total_bytes":          total,
		"written_bytes":        written,
		"compression_ratio":    ratio,
	}
}
