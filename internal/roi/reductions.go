package roi

import (
	"errors"
	"fmt"
)

// ErrInvalidReduction rejects reduction fractions outside [0, 1]
var ErrInvalidReduction = errors.New("expected reduction must be within [0, 1]")

// ExpectedReduction is the anticipated relative decrease of a metric after a
// tactic option is applied to an architecture
type ExpectedReduction struct {
	Architecture string  `json:"architecture" yaml:"architecture"`
	TacticOption string  `json:"tactic_option" yaml:"tactic_option"`
	Metric       string  `json:"metric" yaml:"metric"`
	Fraction     float64 `json:"fraction" yaml:"fraction"`
}

// ReductionLookup resolves expected reductions
type ReductionLookup interface {
	ExpectedReduction(architecture, tacticOption, metricID string) (float64, bool)
}

type reductionKey struct {
	architecture, tacticOption, metric string
}

// ReductionTable is an in-memory ReductionLookup
type ReductionTable map[reductionKey]float64

// NewReductionTable indexes entries. Fractions outside [0, 1] are rejected
func NewReductionTable(entries []ExpectedReduction) (ReductionTable, error) {
	t := make(ReductionTable, len(entries))
	for _, e := range entries {
		if err := t.Set(e); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set stores e, replacing any earlier fraction for the same key
func (t ReductionTable) Set(e ExpectedReduction) error {
	if e.Fraction < 0 || e.Fraction > 1 {
		return fmt.Errorf("%s/%s/%s = %v: %w", e.Architecture, e.TacticOption, e.Metric, e.Fraction, ErrInvalidReduction)
	}
	t[reductionKey{e.Architecture, e.TacticOption, e.Metric}] = e.Fraction
	return nil
}

func (t ReductionTable) ExpectedReduction(architecture, tacticOption, metricID string) (float64, bool) {
	f, ok := t[reductionKey{architecture, tacticOption, metricID}]
	return f, ok
}
