package roi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/effilabel/internal/rating"
)

// ErrInvalidCostModel rejects negative prices or implementation costs
var ErrInvalidCostModel = errors.New("invalid cost model")

// CostModel carries the money side of an energy metric
type CostModel struct {
	EnergyCostRate     decimal.Decimal `json:"energy_cost_rate" yaml:"energy_cost_rate"`
	ImplementationCost decimal.Decimal `json:"implementation_cost" yaml:"implementation_cost"`
}

func (c CostModel) Validate() error {
	if c.EnergyCostRate.IsNegative() {
		return fmt.Errorf("%w: energy cost rate %s is negative", ErrInvalidCostModel, c.EnergyCostRate)
	}
	if c.ImplementationCost.IsNegative() {
		return fmt.Errorf("%w: implementation cost %s is negative", ErrInvalidCostModel, c.ImplementationCost)
	}
	return nil
}

// MetricValue is a metric's measured baseline as attached to an analysis
type MetricValue struct {
	Metric   rating.Metric `json:"metric" yaml:"metric"`
	Baseline *float64      `json:"baseline_value" yaml:"baseline_value"`
}

// Analysis is one tactic applied to one model architecture, with everything
// the calculator needs already fetched by the caller
type Analysis struct {
	ID           string               `json:"id" yaml:"id"`
	Architecture string               `json:"architecture" yaml:"architecture"`
	TacticOption string               `json:"tactic_option" yaml:"tactic_option"`
	Country      string               `json:"country,omitempty" yaml:"country,omitempty"`
	Year         int                  `json:"year,omitempty" yaml:"year,omitempty"`
	Metrics      []MetricValue        `json:"metrics" yaml:"metrics"`
	CostModels   map[string]CostModel `json:"cost_models,omitempty" yaml:"cost_models,omitempty"`
}

// CarbonEmissions compares emissions before and after a tactic over the
// analysed number of inferences
type CarbonEmissions struct {
	BaselineKg        float64 `json:"baseline_kg"`
	NewKg             float64 `json:"new_kg"`
	SavedKg           float64 `json:"saved_kg"`
	SavedGrams        float64 `json:"saved_grams"`
	IntensityKgPerKWh float64 `json:"intensity_kg_per_kwh"`
	IntensitySource   string  `json:"intensity_source"`
	IntensityCountry  string  `json:"intensity_country,omitempty"`
	IntensityYear     int     `json:"intensity_year,omitempty"`
}

// CostSavings is the financial and energy breakdown of an energy metric
type CostSavings struct {
	BaselineEnergyKWh        float64          `json:"baseline_energy_kwh"`
	NewEnergyKWh             float64          `json:"new_energy_kwh"`
	BaselineCostPerInference float64          `json:"baseline_cost_per_inference"`
	NewCostPerInference      float64          `json:"new_cost_per_inference"`
	ImplementationCost       float64          `json:"implementation_cost"`
	TotalBaselineCost        float64          `json:"total_baseline_cost"`
	TotalNewCost             float64          `json:"total_new_cost"`
	TotalSavings             float64          `json:"total_savings"`
	ROI                      float64          `json:"roi"`
	InfiniteROI              float64          `json:"infinite_roi"`
	BreakEvenInferences      BreakEven        `json:"break_even_inferences"`
	NumInferences            int64            `json:"num_inferences"`
	CarbonEmissions          *CarbonEmissions `json:"carbon_emissions,omitempty"`
	Evolution                []EvolutionPoint `json:"evolution,omitempty"`
}

// MetricResult is the per-metric outcome of an analysis. Error is set when
// the cost sub-calculation failed; the projection is still reported
type MetricResult struct {
	MetricID          string       `json:"metric_id"`
	MetricName        string       `json:"metric_name"`
	Unit              string       `json:"unit"`
	EnergyRelated     bool         `json:"energy_related"`
	BaselineValue     float64      `json:"baseline_value"`
	ReductionFraction float64      `json:"reduction_fraction"`
	ProjectedValue    float64      `json:"projected_value"`
	CostSavings       *CostSavings `json:"cost_savings,omitempty"`
	Error             string       `json:"error,omitempty"`
}

// SkippedMetric records why a metric produced no result
type SkippedMetric struct {
	MetricID string `json:"metric_id"`
	Reason   string `json:"reason"`
}

// AnalysisResult collects the metric results of one analysis
type AnalysisResult struct {
	AnalysisID     string          `json:"analysis_id"`
	InferenceCount int64           `json:"inference_count"`
	Metrics        []MetricResult  `json:"metrics"`
	Skipped        []SkippedMetric `json:"skipped,omitempty"`
}
