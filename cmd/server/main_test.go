package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/effilabel/internal/config"
	"github.com/ZanzyTHEbar/effilabel/internal/monitoring"
)

func testConfig(dataDir string) *config.ServerConfig {
	return &config.ServerConfig{
		Port:            "0",
		DataDir:         dataDir,
		CacheTTL:        time.Minute,
		RateLimitPerMin: 1000,
		AllowedOrigins:  []string{"*"},
		RequestTimeout:  5 * time.Second,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewApp_LoadsReferenceData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "carbon_intensity.yaml"), `
intensities:
  - {country: FR, year: 2023, kg_per_kwh: 0.056}
  - {country: DE, year: 2023, kg_per_kwh: 0.381}
`)
	writeFile(t, filepath.Join(dir, "reductions.yaml"), `
reductions:
  - {architecture: resnet50, tactic_option: pruning, metric: energy_consumption, fraction: 0.35}
`)

	a, err := newApp(context.Background(), testConfig(dir), monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError))
	require.NoError(t, err)
	defer a.Close()

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"carbon_intensities":2`)
	assert.Contains(t, w.Body.String(), `"reductions":1`)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/ratings", strings.NewReader(`{"values": {"energy_consumption": 1000}}`))
	req.Header.Set("Content-Type", "application/json")
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"compound_grade":"C"`)
}

func TestNewApp_EmptyDataDir(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a, err := newApp(context.Background(), testConfig(t.TempDir()), monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError))
	require.NoError(t, err)
	defer a.Close()

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"carbon_intensities":0`)
}

func TestNewApp_InvalidReferenceData(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "reduction out of range", file: "reductions.yaml", body: "reductions:\n  - {architecture: a, tactic_option: b, metric: c, fraction: 1.5}\n"},
		{name: "malformed carbon table", file: "carbon_intensity.yaml", body: "intensities: [\n"},
		{name: "invalid default profile", file: "profiles/default.yaml", body: "grades: [A]\nmetrics: {}\nweights: {x: -1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, tt.file), tt.body)

			_, err := newApp(context.Background(), testConfig(dir), monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError))
			assert.Error(t, err)
		})
	}
}

func TestNewApp_InvalidOrigins(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.AllowedOrigins = []string{"not-an-origin"}

	_, err := newApp(context.Background(), cfg, monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError))
	assert.Error(t, err)
}
