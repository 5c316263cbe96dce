package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/effilabel/internal/cache"
	"github.com/ZanzyTHEbar/effilabel/internal/config"
	apperrors "github.com/ZanzyTHEbar/effilabel/internal/errors"
	"github.com/ZanzyTHEbar/effilabel/internal/middleware"
	"github.com/ZanzyTHEbar/effilabel/internal/monitoring"
	"github.com/ZanzyTHEbar/effilabel/internal/ratelimit"
	"github.com/ZanzyTHEbar/effilabel/internal/rating"
	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// evolutionCheckEvery is how many curve points are computed between
// deadline checks
const evolutionCheckEvery = 1024

// Dependencies are the services the HTTP surface is built from. Only
// Profiles is required; nil tables behave as empty ones
type Dependencies struct {
	Config      *config.ServerConfig
	Profiles    *config.ProfileStore
	Intensities *roi.IntensityTable
	Reductions  roi.ReductionTable
	Metrics     *monitoring.Metrics
	Logger      *monitoring.Logger
	Cache       *cache.Cache
	Limiter     *ratelimit.RateLimiter
	Redis       *ratelimit.RedisClient
	Compressor  *middleware.Compressor
}

// Handler serves the rating and ROI calculation endpoints. It keeps no
// per-request state
type Handler struct {
	profiles    *config.ProfileStore
	calculator  *roi.MetricsCalculator
	intensities *roi.IntensityTable
	reductions  roi.ReductionTable
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	cache       *cache.Cache
	limiter     *ratelimit.RateLimiter
	redis       *ratelimit.RedisClient
	compressor  *middleware.Compressor
}

// NewHandler wires a Handler from its dependencies
func NewHandler(d Dependencies) *Handler {
	if d.Metrics == nil {
		d.Metrics = monitoring.NewMetrics()
	}
	if d.Logger == nil {
		d.Logger = monitoring.NewLogger(slog.LevelInfo)
	}

	return &Handler{
		profiles:    d.Profiles,
		calculator:  roi.NewMetricsCalculator(d.Reductions, d.Intensities, roi.WithLogger(d.Logger.Logger)),
		intensities: d.Intensities,
		reductions:  d.Reductions,
		metrics:     d.Metrics,
		logger:      d.Logger,
		cache:       d.Cache,
		limiter:     d.Limiter,
		redis:       d.Redis,
		compressor:  d.Compressor,
	}
}

// bindJSON decodes the request body into out, reporting malformed and
// oversized bodies as validation errors
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		appErr := apperrors.NewValidationError("Invalid JSON body", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			appErr = apperrors.NewValidationError("Request body too large", err)
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		}
		_ = c.Error(appErr)
		return false
	}
	return true
}

func abortOnFields(c *gin.Context, fields map[string]string) bool {
	if len(fields) == 0 {
		return false
	}
	_ = c.Error(apperrors.NewValidationErrorWithMap(fields))
	return true
}

// Health reports liveness, loaded reference data and the Redis status
func (h *Handler) Health(c *gin.Context) {
	status := "ok"
	redisStatus := "disabled"
	if h.redis.IsEnabled() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		redisStatus = "ok"
		if err := h.redis.HealthCheck(ctx); err != nil {
			h.logger.Warn("Redis health check failed", "error", err)
			redisStatus = "unavailable"
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
		"reference_data": gin.H{
			"carbon_intensities": h.intensities.Len(),
			"reductions":         len(h.reductions),
		},
		"redis": redisStatus,
	})
}

// Metrics returns the in-process counters
func (h *Handler) Metrics(c *gin.Context) {
	stats := h.metrics.GetStats()
	if h.limiter != nil {
		stats["rate_limit"] = h.limiter.GetStats()
	}
	if h.compressor != nil {
		stats["compression"] = h.compressor.Stats()
	}
	c.JSON(http.StatusOK, stats)
}

// CacheStats returns response cache statistics
func (h *Handler) CacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	stats := h.cache.Stats()
	stats["enabled"] = true
	c.JSON(http.StatusOK, stats)
}

// ListProfiles names the rating profiles that can be requested
func (h *Handler) ListProfiles(c *gin.Context) {
	names, err := h.profiles.ListProfiles()
	if err != nil {
		_ = c.Error(apperrors.NewConfigurationError("Failed to list rating profiles", err))
		return
	}
	c.JSON(http.StatusOK, ProfileListResponse{Profiles: names})
}

// GetProfile returns one rating profile
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profiles.LoadProfile(c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RateModel grades a model's measurements against a rating profile
func (h *Handler) RateModel(c *gin.Context) {
	start := time.Now()

	var req RatingRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profiles.LoadProfile(req.Profile)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if abortOnFields(c, validateRatingValues(req.Values, *profile)) {
		return
	}

	result := rating.RateModel(req.Values, *profile)

	h.metrics.IncrementRatings()
	h.logger.CalculationLogger("rating", profile.Name, len(result.Metrics), time.Since(start), false)
	c.JSON(http.StatusOK, result)
}

// AnalyzeROI projects an analysis' metrics and prices its energy savings
func (h *Handler) AnalyzeROI(c *gin.Context) {
	start := time.Now()

	var req AnalysisRequest
	if !bindJSON(c, &req) {
		return
	}
	if abortOnFields(c, req.validate()) {
		return
	}

	result, err := h.calculator.CalculateMetricsForAnalysis(req.Analysis, *req.InferenceCount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.metrics.IncrementAnalyses()
	h.logger.CalculationLogger("analysis", req.Analysis.ID, len(result.Metrics), time.Since(start), false)
	c.JSON(http.StatusOK, result)
}

// CalculateROI returns the ROI of a tactic at one horizon
func (h *Handler) CalculateROI(c *gin.Context) {
	start := time.Now()

	var req ROIRequest
	if !bindJSON(c, &req) {
		return
	}
	if abortOnFields(c, req.validate()) {
		return
	}

	c0, cOld, cNew := req.costs()
	value, err := roi.CalculateROI(c0, cNew, cOld, *req.InferenceCount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := ROIResponse{
		ROI:                 value,
		InferenceCount:      *req.InferenceCount,
		BreakEvenInferences: roi.CalculateBreakEvenPoint(c0, cNew, cOld),
	}
	if inf, err := roi.CalculateROI(c0, cNew, cOld, roi.Infinite()); err == nil {
		resp.InfiniteROI = &inf
	}

	h.metrics.IncrementAnalyses()
	h.logger.CalculationLogger("roi", req.InferenceCount.String(), 1, time.Since(start), false)
	c.JSON(http.StatusOK, resp)
}

// ROIEvolution returns the ROI curve of a tactic
func (h *Handler) ROIEvolution(c *gin.Context) {
	start := time.Now()

	var req EvolutionRequest
	if !bindJSON(c, &req) {
		return
	}
	if abortOnFields(c, req.validate()) {
		return
	}

	c0, cOld, cNew := req.costs()
	if cNew == 0 {
		_ = c.Error(fmt.Errorf("evolution with zero new cost per inference: %w", roi.ErrDegenerateCost))
		return
	}
	ctx := c.Request.Context()

	points := make([]roi.EvolutionPoint, 0, len(req.SamplePoints))
	for n, value := range roi.CalculateROIEvolution(c0, cOld, cNew, req.SamplePoints) {
		if len(points)%evolutionCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				_ = c.Error(err)
				return
			}
		}
		points = append(points, roi.EvolutionPoint{Inferences: n, ROI: value})
	}

	h.metrics.IncrementEvolutions()
	h.logger.CalculationLogger("evolution", "", len(points), time.Since(start), false)
	c.JSON(http.StatusOK, EvolutionResponse{
		BreakEvenInferences: roi.CalculateBreakEvenPoint(c0, cNew, cOld),
		Points:              points,
	})
}
