package api

import (
	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

// RatingRequest asks for the label grades of one model's measurements.
// A null value marks a metric that was not measured
type RatingRequest struct {
	Profile string              `json:"profile"`
	Values  map[string]*float64 `json:"values"`
}

// AnalysisRequest evaluates one tactic analysis over an inference count
type AnalysisRequest struct {
	Analysis       roi.Analysis `json:"analysis"`
	InferenceCount *int64       `json:"inference_count"`
}

// CostRequest carries the three costs every ROI calculation needs
type CostRequest struct {
	ImplementationCost       *decimal.Decimal `json:"implementation_cost"`
	BaselineCostPerInference *decimal.Decimal `json:"baseline_cost_per_inference"`
	NewCostPerInference      *decimal.Decimal `json:"new_cost_per_inference"`
}

func (r CostRequest) costs() (c0, cOld, cNew float64) {
	return r.ImplementationCost.InexactFloat64(),
		r.BaselineCostPerInference.InexactFloat64(),
		r.NewCostPerInference.InexactFloat64()
}

// ROIRequest computes the ROI at a finite or infinite horizon
type ROIRequest struct {
	CostRequest
	InferenceCount *roi.Horizon `json:"inference_count"`
}

// ROIResponse reports the ROI at the requested horizon. InfiniteROI is
// omitted when the new per-inference cost is zero
type ROIResponse struct {
	ROI                 float64       `json:"roi"`
	InferenceCount      roi.Horizon   `json:"inference_count"`
	InfiniteROI         *float64      `json:"infinite_roi,omitempty"`
	BreakEvenInferences roi.BreakEven `json:"break_even_inferences"`
}

// EvolutionRequest asks for an ROI curve. Without sample points the range
// is derived from the break-even point
type EvolutionRequest struct {
	CostRequest
	SamplePoints []int64 `json:"sample_points,omitempty"`
}

// EvolutionResponse is a chartable ROI curve
type EvolutionResponse struct {
	BreakEvenInferences roi.BreakEven        `json:"break_even_inferences"`
	Points              []roi.EvolutionPoint `json:"points"`
}

// ProfileListResponse names the available rating profiles
type ProfileListResponse struct {
	Profiles []string `json:"profiles"`
}
