package api

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/effilabel/internal/rating"
)

// maxSamplePoints bounds the size of a requested ROI curve
const maxSamplePoints = 10_000

// validateRatingValues checks the submitted values against the profile's
// metric catalogue. Values outside a metric's declared range and unknown
// metric IDs are rejected
func validateRatingValues(values map[string]*float64, p rating.Profile) map[string]string {
	fields := make(map[string]string)
	if len(values) == 0 {
		fields["values"] = "at least one metric value is required"
		return fields
	}

	for id, v := range values {
		spec, ok := p.Metrics[id]
		if !ok {
			fields["values."+id] = fmt.Sprintf("unknown metric for profile %q", p.Name)
			continue
		}
		if v != nil && !spec.Metric.InRange(*v) {
			fields["values."+id] = rangeMessage(spec.Metric)
		}
	}
	return fields
}

func (r AnalysisRequest) validate() map[string]string {
	fields := make(map[string]string)

	switch {
	case r.InferenceCount == nil:
		fields["inference_count"] = "is required"
	case *r.InferenceCount < 0:
		fields["inference_count"] = "must be non-negative"
	}

	if len(r.Analysis.Metrics) == 0 {
		fields["analysis.metrics"] = "at least one metric is required"
	}
	for i, mv := range r.Analysis.Metrics {
		key := fmt.Sprintf("analysis.metrics[%d]", i)
		if mv.Metric.ID == "" {
			fields[key+".metric.id"] = "is required"
			continue
		}
		if mv.Baseline != nil && !mv.Metric.InRange(*mv.Baseline) {
			fields[key+".baseline_value"] = rangeMessage(mv.Metric)
		}
	}

	for id, cm := range r.Analysis.CostModels {
		if err := cm.Validate(); err != nil {
			fields["analysis.cost_models."+id] = err.Error()
		}
	}
	return fields
}

func (r CostRequest) validate(fields map[string]string) {
	checkCost(fields, "implementation_cost", r.ImplementationCost)
	checkCost(fields, "baseline_cost_per_inference", r.BaselineCostPerInference)
	checkCost(fields, "new_cost_per_inference", r.NewCostPerInference)
}

func checkCost(fields map[string]string, name string, d *decimal.Decimal) {
	switch {
	case d == nil:
		fields[name] = "is required"
	case d.IsNegative():
		fields[name] = "must be non-negative"
	}
}

func (r ROIRequest) validate() map[string]string {
	fields := make(map[string]string)
	r.CostRequest.validate(fields)
	if r.InferenceCount == nil {
		fields["inference_count"] = "is required"
	}
	return fields
}

func (r EvolutionRequest) validate() map[string]string {
	fields := make(map[string]string)
	r.CostRequest.validate(fields)

	if len(r.SamplePoints) > maxSamplePoints {
		fields["sample_points"] = fmt.Sprintf("at most %d points are allowed", maxSamplePoints)
	}
	for i, n := range r.SamplePoints {
		if n < 0 {
			fields[fmt.Sprintf("sample_points[%d]", i)] = "must be non-negative"
		}
	}
	return fields
}

func rangeMessage(m rating.Metric) string {
	var msg string
	switch {
	case m.Min != nil && m.Max != nil:
		msg = fmt.Sprintf("must be between %g and %g %s", *m.Min, *m.Max, m.Unit)
	case m.Min != nil:
		msg = fmt.Sprintf("must be at least %g %s", *m.Min, m.Unit)
	default:
		msg = fmt.Sprintf("must be at most %g %s", *m.Max, m.Unit)
	}
	return strings.TrimSpace(msg)
}
