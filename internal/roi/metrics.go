package roi

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

// JoulesPerKWh converts measured energy to billing units
const JoulesPerKWh = 3_600_000

// Skip reasons reported in AnalysisResult.Skipped
const (
	ReasonMissingBaseline  = "missing baseline value"
	ReasonMissingReduction = "no expected reduction for architecture/tactic/metric"
)

// MetricsCalculator projects an analysis' metrics after its tactic and, for
// energy metrics, prices the change. It holds no per-call state
type MetricsCalculator struct {
	reductions  ReductionLookup
	intensities *IntensityTable
	samples     []int64
	logger      *slog.Logger
}

// Option customizes a MetricsCalculator
type Option func(*MetricsCalculator)

// WithEvolutionSamples pins the inference counts of every ROI curve
func WithEvolutionSamples(samples []int64) Option {
	return func(mc *MetricsCalculator) { mc.samples = append([]int64(nil), samples...) }
}

// WithLogger sets the logger diagnostics are written to
func WithLogger(logger *slog.Logger) Option {
	return func(mc *MetricsCalculator) {
		if logger != nil {
			mc.logger = logger
		}
	}
}

// NewMetricsCalculator creates a calculator. A nil intensity table always
// uses the global carbon intensity
func NewMetricsCalculator(reductions ReductionLookup, intensities *IntensityTable, opts ...Option) *MetricsCalculator {
	mc := &MetricsCalculator{
		reductions:  reductions,
		intensities: intensities,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

// CalculateMetricsForAnalysis produces one MetricResult per computable metric
// of a. Metrics without a baseline or an expected reduction are skipped with a
// diagnostic; a failing cost calculation is reported on its own metric only
func (mc *MetricsCalculator) CalculateMetricsForAnalysis(a Analysis, inferenceCount int64) (AnalysisResult, error) {
	if inferenceCount < 0 {
		return AnalysisResult{}, fmt.Errorf("analysis %s: %d: %w", a.ID, inferenceCount, ErrInvalidInferenceCount)
	}

	result := AnalysisResult{
		AnalysisID:     a.ID,
		InferenceCount: inferenceCount,
		Metrics:        make([]MetricResult, 0, len(a.Metrics)),
	}
	log := mc.logger.With("analysis_id", a.ID, "architecture", a.Architecture, "tactic_option", a.TacticOption)

	var intensity *CarbonIntensity
	for _, mv := range a.Metrics {
		m := mv.Metric
		if mv.Baseline == nil {
			log.Warn("Skipping metric without baseline", "metric", m.ID)
			result.Skipped = append(result.Skipped, SkippedMetric{MetricID: m.ID, Reason: ReasonMissingBaseline})
			continue
		}

		fraction, ok := mc.lookupReduction(a, m.ID)
		if !ok {
			log.Warn("Skipping metric without expected reduction", "metric", m.ID)
			result.Skipped = append(result.Skipped, SkippedMetric{MetricID: m.ID, Reason: ReasonMissingReduction})
			continue
		}

		mr := MetricResult{
			MetricID:          m.ID,
			MetricName:        m.Name,
			Unit:              m.Unit,
			EnergyRelated:     m.EnergyRelated,
			BaselineValue:     *mv.Baseline,
			ReductionFraction: fraction,
			ProjectedValue:    ProjectedValue(*mv.Baseline, fraction),
		}

		switch {
		case fraction < 0 || fraction > 1:
			mr.Error = fmt.Sprintf("reduction %v: %v", fraction, ErrInvalidReduction)
		case m.EnergyRelated:
			cm, ok := a.CostModels[m.ID]
			if !ok {
				log.Warn("Energy metric has no cost model, reporting projection only", "metric", m.ID)
				break
			}
			if intensity == nil {
				ci := mc.intensities.Lookup(a.Country, a.Year)
				intensity = &ci
			}
			savings, err := CalculateCostSavings(mr.BaselineValue, mr.ProjectedValue, cm, inferenceCount, *intensity, mc.samples)
			if err != nil {
				log.Error("Cost calculation failed", "metric", m.ID, "error", err)
				mr.Error = err.Error()
				break
			}
			mr.CostSavings = savings
		}

		result.Metrics = append(result.Metrics, mr)
	}

	log.Debug("Analysis calculated",
		"inference_count", inferenceCount,
		"metrics", len(result.Metrics),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (mc *MetricsCalculator) lookupReduction(a Analysis, metricID string) (float64, bool) {
	if mc.reductions == nil {
		return 0, false
	}
	return mc.reductions.ExpectedReduction(a.Architecture, a.TacticOption, metricID)
}

// ProjectedValue applies a fractional reduction to a baseline value
func ProjectedValue(baseline, fraction float64) float64 {
	return baseline * (1 - fraction)
}

// CalculateCostSavings prices the energy change of one metric whose values
// are in joules per inference
func CalculateCostSavings(baselineJ, newJ float64, cm CostModel, inferenceCount int64, ci CarbonIntensity, samples []int64) (*CostSavings, error) {
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	if inferenceCount < 0 {
		return nil, ErrInvalidInferenceCount
	}

	if math.IsNaN(baselineJ) || math.IsInf(baselineJ, 0) || math.IsNaN(newJ) || math.IsInf(newJ, 0) {
		return nil, fmt.Errorf("energy values %v -> %v are not finite: %w", baselineJ, newJ, ErrDegenerateCost)
	}

	baselineKWh := baselineJ / JoulesPerKWh
	newKWh := newJ / JoulesPerKWh

	// money stays in decimal; only the ROI ratios are computed in float
	count := decimal.NewFromInt(inferenceCount)
	costOld := decimal.NewFromFloat(baselineKWh).Mul(cm.EnergyCostRate)
	costNew := decimal.NewFromFloat(newKWh).Mul(cm.EnergyCostRate)
	totalBaseline := costOld.Mul(count)
	totalNew := costNew.Mul(count).Add(cm.ImplementationCost)

	c0 := cm.ImplementationCost.InexactFloat64()
	cOld := costOld.InexactFloat64()
	cNew := costNew.InexactFloat64()

	roi, err := CalculateROI(c0, cNew, cOld, Finite(inferenceCount))
	if err != nil {
		return nil, fmt.Errorf("roi at %d inferences: %w", inferenceCount, err)
	}
	infiniteROI, err := CalculateROI(c0, cNew, cOld, Infinite())
	if err != nil {
		return nil, fmt.Errorf("infinite-horizon roi: %w", err)
	}

	n := float64(inferenceCount)
	baselineKg := baselineKWh * ci.KgPerKWh * n
	newKg := newKWh * ci.KgPerKWh * n

	savings := &CostSavings{
		BaselineEnergyKWh:        baselineKWh,
		NewEnergyKWh:             newKWh,
		BaselineCostPerInference: cOld,
		NewCostPerInference:      cNew,
		ImplementationCost:       c0,
		TotalBaselineCost:        totalBaseline.InexactFloat64(),
		TotalNewCost:             totalNew.InexactFloat64(),
		TotalSavings:             totalBaseline.Sub(totalNew).InexactFloat64(),
		ROI:                      roi,
		InfiniteROI:              infiniteROI,
		BreakEvenInferences:      CalculateBreakEvenPoint(c0, cNew, cOld),
		NumInferences:            inferenceCount,
		CarbonEmissions: &CarbonEmissions{
			BaselineKg:        baselineKg,
			NewKg:             newKg,
			SavedKg:           baselineKg - newKg,
			SavedGrams:        (baselineKg - newKg) * 1000,
			IntensityKgPerKWh: ci.KgPerKWh,
			IntensitySource:   ci.Source,
			IntensityCountry:  ci.Country,
			IntensityYear:     ci.Year,
		},
		Evolution: CollectEvolution(CalculateROIEvolution(c0, cOld, cNew, samples)),
	}

	for name, v := range map[string]float64{"total savings": savings.TotalSavings, "saved emissions": savings.CarbonEmissions.SavedKg} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s is not finite: %w", name, ErrDegenerateCost)
		}
	}
	return savings, nil
}
