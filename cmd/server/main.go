package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/effilabel/internal/api"
	"github.com/ZanzyTHEbar/effilabel/internal/cache"
	"github.com/ZanzyTHEbar/effilabel/internal/config"
	"github.com/ZanzyTHEbar/effilabel/internal/middleware"
	"github.com/ZanzyTHEbar/effilabel/internal/monitoring"
	"github.com/ZanzyTHEbar/effilabel/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.GinMode)

	app, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// app owns the long-lived services behind the router
type app struct {
	router  *gin.Engine
	cache   *cache.Cache
	limiter *ratelimit.RateLimiter
	redis   *ratelimit.RedisClient
}

// newApp loads the reference data under cfg.DataDir and builds the router.
// An unreachable Redis is logged and rate limiting stays in process
func newApp(ctx context.Context, cfg *config.ServerConfig, logger *monitoring.Logger) (*app, error) {
	intensities, err := config.LoadCarbonIntensities(cfg.CarbonIntensityFile())
	if err != nil {
		return nil, err
	}
	reductions, err := config.LoadReductions(cfg.ReductionsFile())
	if err != nil {
		return nil, err
	}

	profiles := config.NewProfileStore(cfg.ProfilesDir())
	if _, err := profiles.LoadProfile(config.DefaultProfileName); err != nil {
		return nil, fmt.Errorf("default rating profile: %w", err)
	}

	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.SystemLogger("redis_unavailable", err.Error())
	}

	metrics := monitoring.NewMetrics()
	a := &app{
		cache:   cache.NewCache(cfg.CacheTTL),
		limiter: ratelimit.NewRateLimiter(redisClient, ratelimit.Config{PerMinute: cfg.RateLimitPerMin, BurstMultiplier: 2}, metrics),
		redis:   redisClient,
	}

	a.router, err = api.NewRouter(api.Dependencies{
		Config:      cfg,
		Profiles:    profiles,
		Intensities: intensities,
		Reductions:  reductions,
		Metrics:     metrics,
		Logger:      logger,
		Cache:       a.cache,
		Limiter:     a.limiter,
		Redis:       redisClient,
		Compressor:  middleware.NewCompressor(middleware.DefaultCompressionConfig()),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.SystemLogger("reference_data_loaded", fmt.Sprintf("%d carbon intensities, %d reductions",
		intensities.Len(), len(reductions)))
	return a, nil
}

// Close stops background workers and releases the Redis connection
func (a *app) Close() {
	a.cache.Close()
	a.limiter.Close()
	if err := a.redis.Close(); err != nil {
		slog.Error("Failed to close redis client", "error", err)
	}
}
