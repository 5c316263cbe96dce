package roi

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDegenerateCost is returned when an ROI would divide by a zero cost
	ErrDegenerateCost = errors.New("degenerate cost: division by zero")
	// ErrInvalidInferenceCount rejects negative inference counts
	ErrInvalidInferenceCount = errors.New("inference count must be non-negative")
)

// CalculateROI returns (saved cost) / (new cost) over the horizon. For a
// finite horizon the one-time cost c0 is added to the new cost; for the
// infinite horizon it amortizes away and only the per-inference costs count.
// A zero new cost per inference is degenerate on either horizon
func CalculateROI(c0, cNew, cOld float64, n Horizon) (float64, error) {
	if n.IsInfinite() {
		if cNew == 0 {
			return 0, fmt.Errorf("infinite-horizon roi with zero new cost per inference: %w", ErrDegenerateCost)
		}
		return (cOld - cNew) / cNew, nil
	}

	if cNew == 0 {
		return 0, fmt.Errorf("roi over %d inferences with zero new cost per inference: %w", n.Count(), ErrDegenerateCost)
	}

	count := float64(n.Count())
	totalBaseline := cOld * count
	totalNew := cNew*count + c0
	if totalNew == 0 {
		return 0, fmt.Errorf("roi over %d inferences with zero total new cost: %w", n.Count(), ErrDegenerateCost)
	}

	roi := (totalBaseline - totalNew) / totalNew
	if math.IsNaN(roi) || math.IsInf(roi, 0) {
		return 0, fmt.Errorf("roi over %d inferences is not finite: %w", n.Count(), ErrDegenerateCost)
	}
	return roi, nil
}

// CalculateBreakEvenPoint returns c0 / (cOld - cNew) truncated toward zero,
// or Never when the tactic does not lower the per-inference cost
func CalculateBreakEvenPoint(c0, cNew, cOld float64) BreakEven {
	if cNew >= cOld {
		return BreakEven{Never: true}
	}

	point := math.Trunc(c0 / (cOld - cNew))
	// not representable as a count; unreachable in practice
	if point >= math.MaxInt64 || math.IsNaN(point) {
		return BreakEven{Never: true}
	}
	return BreakEven{Inferences: int64(point)}
}
