package cache

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	hits, misses atomic.Int64
}

func (r *countingRecorder) IncrementCacheHit()  { r.hits.Add(1) }
func (r *countingRecorder) IncrementCacheMiss() { r.misses.Add(1) }

func TestCache_SetGet(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Close()

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("k", []byte("v"))
	data, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), data)
	assert.Equal(t, 1, c.Size())

	c.Delete("k")
	assert.Equal(t, 0, c.Size())

	c.Set("a", nil)
	c.Set("b", nil)
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCache_Expiry(t *testing.T) {
	// no sweeper, so expired items stay visible to Stats
	c := &Cache{items: make(map[string]*CacheItem), ttl: time.Millisecond}

	c.Set("k", []byte("v"))
	time.Sleep(5 * time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 1, stats["expired_items"])

	_, found := c.Get("k")
	assert.False(t, found)
	assert.Equal(t, 0, c.Size())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("/v1/roi", []byte(`{}`)), Key("/v1/roi", []byte(`{}`)))
	assert.NotEqual(t, Key("/v1/roi", []byte(`{}`)), Key("/v1/ratings", []byte(`{}`)))
	assert.NotEqual(t, Key("/v1/roi", []byte(`{"a":1}`)), Key("/v1/roi", []byte(`{"a":2}`)))
	assert.Len(t, Key("", nil), 32)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	defer c.Close()
	recorder := &countingRecorder{}

	var calls atomic.Int64
	r := gin.New()
	r.Use(c.Middleware("/v1/", recorder))
	r.POST("/v1/roi", func(ctx *gin.Context) {
		calls.Add(1)
		var body map[string]any
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"echo": body})
	})
	r.POST("/v1/fail", func(ctx *gin.Context) {
		calls.Add(1)
		_ = ctx.Error(errors.New("computation failed"))
	})
	r.POST("/other", func(ctx *gin.Context) {
		calls.Add(1)
		ctx.Status(http.StatusNoContent)
	})

	do := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	first := do("/v1/roi", `{"n":1}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))

	second := do("/v1/roi", `{"n":1}`)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(1), calls.Load())

	bad := do("/v1/roi", `{`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	bad = do("/v1/roi", `{`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, int64(3), calls.Load())

	do("/other", `{}`)
	do("/other", `{}`)
	assert.Equal(t, int64(5), calls.Load())

	do("/v1/fail", `{}`)
	do("/v1/fail", `{}`)
	assert.Equal(t, int64(7), calls.Load(), "errors are never cached")

	assert.Equal(t, int64(1), recorder.hits.Load())
	assert.Equal(t, int64(5), recorder.misses.Load())
	assert.Equal(t, 1, c.Size())
}
