package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/effilabel/internal/config"
	apperrors "github.com/ZanzyTHEbar/effilabel/internal/errors"
	"github.com/ZanzyTHEbar/effilabel/internal/monitoring"
	"github.com/ZanzyTHEbar/effilabel/internal/security"
)

// NewRouter builds the gin engine with the full middleware chain. A nil
// Config uses the defaults of an empty environment
func NewRouter(d Dependencies) (*gin.Engine, error) {
	if d.Config == nil {
		d.Config = &config.ServerConfig{
			AllowedOrigins: []string{"*"},
			RequestTimeout: 30 * time.Second,
		}
	}
	h := NewHandler(d)

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to configure trusted proxies: %w", err)
	}

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(h.metrics, h.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(h.logger))

	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	sm := security.NewSecurityMiddleware(security.SecurityConfig{
		AllowedOrigins: d.Config.AllowedOrigins,
		RequestTimeout: d.Config.RequestTimeout,
		MaxBodyBytes:   security.DefaultSecurityConfig().MaxBodyBytes,
		EnableHSTS:     d.Config.EnableHSTS,
	})
	corsHandler, err := sm.CORS()
	if err != nil {
		return nil, err
	}

	r.Use(sm.SecurityHeaders)
	r.Use(corsHandler)
	r.Use(sm.RequestTimeout)
	r.Use(sm.LimitBody)
	r.Use(sm.ValidateContentType)

	if d.Limiter != nil {
		r.Use(d.Limiter.IPRateLimitMiddleware())
	}
	if d.Compressor != nil {
		r.Use(d.Compressor.Handler())
	}
	if d.Cache != nil {
		r.Use(d.Cache.Middleware("/v1/", h.metrics))
	}

	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics)
	r.GET("/cache/stats", h.CacheStats)

	v1 := r.Group("/v1")
	{
		v1.GET("/profiles", h.ListProfiles)
		v1.GET("/profiles/:name", h.GetProfile)
		v1.POST("/ratings", h.RateModel)
		v1.POST("/roi", h.CalculateROI)
		v1.POST("/roi/analyses", h.AnalyzeROI)
		v1.POST("/roi/evolution", h.ROIEvolution)
	}

	return r, nil
}
