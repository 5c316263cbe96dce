package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// Compressor gzips large calculation responses, typically ROI evolution
// curves, for clients that accept it
type Compressor struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressor creates a compressor. An invalid level falls back to the
// gzip default
func NewCompressor(config CompressionConfig) *Compressor {
	if config.CompressionLevel < gzip.HuffmanOnly || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = gzip.DefaultCompression
	}
	level := config.CompressionLevel
	return &Compressor{
		config: config,
		stats:  &CompressionStats{},
		pool: sync.Pool{
			New: func() any {
				gz, _ := gzip.NewWriterLevel(io.Discard, level)
				return gz
			},
		},
	}
}

// Handler buffers the response of downstream handlers and writes it
// compressed once they return. Errors rendered by outer middleware are
// written uncompressed
func (cm *Compressor) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsGzip(c.Request) {
			c.Next()
			return
		}

		original := c.Writer
		buffered := &bufferedWriter{ResponseWriter: original}
		c.Writer = buffered

		defer func() {
			c.Writer = original
			cm.flush(original, buffered.buf.Bytes())
		}()

		c.Next()
	}
}

func (cm *Compressor) flush(w gin.ResponseWriter, body []byte) {
	if len(body) == 0 {
		return
	}
	size := int64(len(body))

	if len(body) < cm.config.MinSize || !cm.shouldCompress(w.Header().Get("Content-Type")) {
		cm.stats.RecordRequest(size, size, false)
		_, _ = w.Write(body)
		return
	}

	var out bytes.Buffer
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(&out)
	_, err := gz.Write(body)
	if err == nil {
		err = gz.Close()
	}
	cm.pool.Put(gz)
	if err != nil {
		cm.stats.RecordRequest(size, size, false)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Del("Content-Length")
	cm.stats.RecordRequest(size, int64(out.Len()), true)
	_, _ = w.Write(out.Bytes())
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func (cm *Compressor) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// Stats returns compression statistics
func (cm *Compressor) Stats() map[string]any {
	return cm.stats.GetStats()
}

// bufferedWriter holds the body until the compressor decides how to send it
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) Written() bool {
	return w.buf.Len() > 0 || w.ResponseWriter.Written()
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      atomic.Int64
	CompressedRequests atomic.Int64
	TotalBytes         atomic.Int64
	CompressedBytes    atomic.Int64
}

// RecordRequest records a response's sizes before and after compression
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.TotalRequests.Add(1)
	if compressed {
		cs.CompressedRequests.Add(1)
		cs.TotalBytes.Add(originalSize)
		cs.CompressedBytes.Add(compressedSize)
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]any {
	total := cs.TotalBytes.Load()
	compressedBytes := cs.CompressedBytes.Load()

	ratio := float64(0)
	if total > 0 {
		ratio = float64(compressedBytes) / float64(total)
	}

	return map[string]any{
		"total_responses":      cs.TotalRequests.Load(),
		"compressed_responses": cs.CompressedRequests.Load(),
		"original_bytes":       total,
		"compressed_bytes":     compressedBytes,
		"compression_ratio":    ratio,
	}
}
