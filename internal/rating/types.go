package rating

// Metric is immutable reference data describing one measured quantity
type Metric struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Unit           string   `json:"unit" yaml:"unit"`
	HigherIsBetter bool     `json:"higher_is_better" yaml:"higher_is_better"`
	EnergyRelated  bool     `json:"energy_related" yaml:"energy_related"`
	Min            *float64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	Max            *float64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
}

// InRange reports whether v lies inside the metric's declared validity range.
// Metrics without a range accept any value
func (m Metric) InRange(v float64) bool {
	if m.Min != nil && v < *m.Min {
		return false
	}
	if m.Max != nil && v > *m.Max {
		return false
	}
	return true
}

// Boundary is one grade interval encoded as [upper, lower]. The interval is
// half-open: lower < index <= upper
type Boundary [2]float64

func (b Boundary) Upper() float64 { return b[0] }
func (b Boundary) Lower() float64 { return b[1] }

// Contains reports whether index falls in (lower, upper]
func (b Boundary) Contains(index float64) bool {
	return b.Lower() < index && index <= b.Upper()
}

// BoundarySet lists a metric's intervals ordered from best grade to worst
type BoundarySet []Boundary

// Grades is an ordered alphabet, best first
type Grades []string

// DefaultGrades is the A..E scale used by the built-in profile
var DefaultGrades = Grades{"A", "B", "C", "D", "E"}

// Weights maps metric IDs to non-negative weights. They need not sum to 1
type Weights map[string]float64

// MetricSpec binds a metric to the reference value and boundaries used to
// grade it
type MetricSpec struct {
	Metric     Metric      `json:"metric" yaml:"metric"`
	Reference  *float64    `json:"reference,omitempty" yaml:"reference,omitempty"`
	Boundaries BoundarySet `json:"boundaries" yaml:"boundaries"`
}

// MetricRating is the per-metric part of a RatingResult
type MetricRating struct {
	Value   *float64 `json:"value"`
	Index   *float64 `json:"index"`
	Ordinal *int     `json:"ordinal"`
	Grade   *string  `json:"grade"`
}

// RatingResult is what RateModel hands back to callers for display or storage
type RatingResult struct {
	Profile       string                  `json:"profile"`
	CompoundGrade *string                 `json:"compound_grade"`
	Metrics       map[string]MetricRating `json:"metrics"`
}
