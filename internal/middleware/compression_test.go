package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressedRouter(cm *Compressor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": c.Errors.Last().Error()})
		}
	})
	r.Use(cm.Handler())
	r.GET("/large", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"points": strings.Repeat("0,", 2000)})
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/text", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", []byte(strings.Repeat("x", 4096)))
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("infinite horizon"))
	})
	return r
}

func get(r http.Handler, path string, gzipped bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if gzipped {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCompressor_CompressesLargeJSON(t *testing.T) {
	cm := NewCompressor(DefaultCompressionConfig())
	r := newCompressedRouter(cm)

	w := get(r, "/large", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"points":"0,0,`)

	stats := cm.Stats()
	assert.Equal(t, int64(1), stats["compressed_responses"])
	assert.Less(t, stats["compression_ratio"].(float64), 1.0)
}

func TestCompressor_PassThrough(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		gzipped bool
		status  int
	}{
		{name: "client without gzip", path: "/large", gzipped: false, status: http.StatusOK},
		{name: "below minimum size", path: "/small", gzipped: true, status: http.StatusOK},
		{name: "content type not listed", path: "/text", gzipped: true, status: http.StatusOK},
		{name: "error rendered outside", path: "/fail", gzipped: true, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCompressedRouter(NewCompressor(DefaultCompressionConfig()))

			w := get(r, tt.path, tt.gzipped)
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.NotEmpty(t, w.Body.String())
		})
	}
}

func TestNewCompressor_InvalidLevel(t *testing.T) {
	cm := NewCompressor(CompressionConfig{MinSize: 1, CompressionLevel: 42, ContentTypes: []string{"application/json"}})
	assert.Equal(t, gzip.DefaultCompression, cm.config.CompressionLevel)

	w := get(newCompressedRouter(cm), "/small", true)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
