package rating

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidProfile marks a profile that cannot be used for grading
var ErrInvalidProfile = errors.New("invalid rating profile")

// Built-in metric identifiers
const (
	MetricEnergyConsumption = "energy_consumption"
	MetricInferenceTime     = "inference_time"
	MetricAccuracy          = "accuracy"
	MetricModelSize         = "model_size"
	MetricThroughput        = "throughput"
)

// Profile is the grading configuration handed to RateModel: the grade
// alphabet, the metrics to grade and the weights of the compound score
type Profile struct {
	Name    string                `json:"name" yaml:"name"`
	Grades  Grades                `json:"grades" yaml:"grades"`
	Metrics map[string]MetricSpec `json:"metrics" yaml:"metrics"`
	Weights Weights               `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// MetricIDs returns the profile's metric identifiers in sorted order
func (p Profile) MetricIDs() []string {
	ids := make([]string, 0, len(p.Metrics))
	for id := range p.Metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks the structural invariants grading relies on
func (p Profile) Validate() error {
	if len(p.Grades) == 0 {
		return fmt.Errorf("%w: profile %q has no grades", ErrInvalidProfile, p.Name)
	}
	if len(p.Metrics) == 0 {
		return fmt.Errorf("%w: profile %q has no metrics", ErrInvalidProfile, p.Name)
	}
	for _, id := range p.MetricIDs() {
		spec := p.Metrics[id]
		if len(spec.Boundaries) == 0 {
			return fmt.Errorf("%w: metric %q has no boundaries", ErrInvalidProfile, id)
		}
		if len(spec.Boundaries) > len(p.Grades) {
			return fmt.Errorf("%w: metric %q has %d boundaries for %d grades",
				ErrInvalidProfile, id, len(spec.Boundaries), len(p.Grades))
		}
		if spec.Reference != nil && *spec.Reference == 0 {
			return fmt.Errorf("%w: metric %q has a zero reference value", ErrInvalidProfile, id)
		}
	}
	for id, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("%w: negative weight %v for metric %q", ErrInvalidProfile, w, id)
		}
	}
	return nil
}

func ref(v float64) *float64 { return &v }

// DefaultProfile grades the built-in metric catalogue on an A..E scale.
// Indices are relative to the reference value, so 1.0 means "as good as the
// reference" for every metric regardless of orientation
func DefaultProfile() Profile {
	relative := BoundarySet{
		{1e11, 1.5},
		{1.5, 1.1},
		{1.1, 0.9},
		{0.9, 0.6},
		{0.6, -1e11},
	}
	return Profile{
		Name:   "default",
		Grades: append(Grades(nil), DefaultGrades...),
		Metrics: map[string]MetricSpec{
			MetricEnergyConsumption: {
				Metric:     Metric{ID: MetricEnergyConsumption, Name: "Energy Consumption", Unit: "J", EnergyRelated: true, Min: ref(0)},
				Reference:  ref(1000),
				Boundaries: relative,
			},
			MetricInferenceTime: {
				Metric:     Metric{ID: MetricInferenceTime, Name: "Inference Time", Unit: "ms", Min: ref(0)},
				Reference:  ref(100),
				Boundaries: relative,
			},
			MetricAccuracy: {
				Metric:    Metric{ID: MetricAccuracy, Name: "Accuracy", Unit: "%", HigherIsBetter: true, Min: ref(0), Max: ref(100)},
				Reference: ref(90),
				Boundaries: BoundarySet{
					{1e11, 1.05},
					{1.05, 1.0},
					{1.0, 0.95},
					{0.95, 0.85},
					{0.85, -1e11},
				},
			},
			MetricModelSize: {
				Metric:     Metric{ID: MetricModelSize, Name: "Model Size", Unit: "MB", Min: ref(0)},
				Reference:  ref(500),
				Boundaries: relative,
			},
			MetricThroughput: {
				Metric:     Metric{ID: MetricThroughput, Name: "Throughput", Unit: "inferences/s", HigherIsBetter: true, Min: ref(0)},
				Reference:  ref(50),
				Boundaries: relative,
			},
		},
		Weights: Weights{
			MetricEnergyConsumption: 0.35,
			MetricInferenceTime:     0.20,
			MetricAccuracy:          0.25,
			MetricModelSize:         0.10,
			MetricThroughput:        0.10,
		},
	}
}
