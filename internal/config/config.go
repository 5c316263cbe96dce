package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds the effilabel server settings read from the environment
type ServerConfig struct {
	Port            string
	DataDir         string
	LogLevel        slog.Level
	GinMode         string
	CacheTTL        time.Duration
	RateLimitPerMin int
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	EnableHSTS      bool
	RedisURL        string
}

// Load reads the server configuration from the environment, applying
// defaults for anything unset
func Load() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		DataDir:        getEnvOrDefault("DATA_DIR", "./data"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	level, err := ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.CacheTTL, err = time.ParseDuration(getEnvOrDefault("CACHE_TTL", "15m")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnvOrDefault("REQUEST_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	if cfg.RateLimitPerMin, err = strconv.Atoi(getEnvOrDefault("RATE_LIMIT_PER_MIN", "120")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MIN: %w", err)
	}
	if cfg.RateLimitPerMin < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MIN: %d is negative", cfg.RateLimitPerMin)
	}
	if cfg.EnableHSTS, err = strconv.ParseBool(getEnvOrDefault("ENABLE_HSTS", "false")); err != nil {
		return nil, fmt.Errorf("invalid ENABLE_HSTS: %w", err)
	}

	return cfg, nil
}

// ProfilesDir is where named rating profiles are stored
func (c *ServerConfig) ProfilesDir() string {
	return filepath.Join(c.DataDir, "profiles")
}

// CarbonIntensityFile is the carbon intensity table
func (c *ServerConfig) CarbonIntensityFile() string {
	return filepath.Join(c.DataDir, "carbon_intensity.yaml")
}

// ReductionsFile is the expected-reduction table
func (c *ServerConfig) ReductionsFile() string {
	return filepath.Join(c.DataDir, "reductions.yaml")
}

// ParseLogLevel accepts debug, info, warn/warning and error
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
