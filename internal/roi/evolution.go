package roi

import (
	"errors"
	"iter"
)

const (
	evolutionHorizonFactor = 20
	evolutionSteps         = 200

	defaultEvolutionMax  = 2_000_000
	defaultEvolutionStep = 10_000
)

// EvolutionPoint is one sample of an ROI-vs-inferences curve
type EvolutionPoint struct {
	Inferences int64   `json:"inferences"`
	ROI        float64 `json:"roi"`
}

// CalculateROIEvolution yields (inference count, roi) pairs for charting.
// Explicit sample points are used as given. Without them the range spans
// twenty times the break-even point in 200 even steps, or 0..2,000,000 in
// steps of 10,000 when the tactic never breaks even. Samples whose ROI is
// undefined are skipped. The sequence can be ranged over repeatedly
func CalculateROIEvolution(c0, cOld, cNew float64, samples []int64) iter.Seq2[int64, float64] {
	points := samples
	if len(points) == 0 {
		points = defaultSamples(c0, cOld, cNew)
	}

	return func(yield func(int64, float64) bool) {
		for _, n := range points {
			if n < 0 {
				continue
			}
			roi, err := CalculateROI(c0, cNew, cOld, Finite(n))
			if errors.Is(err, ErrDegenerateCost) {
				continue
			}
			if !yield(n, roi) {
				return
			}
		}
	}
}

// CollectEvolution materializes an evolution sequence
func CollectEvolution(seq iter.Seq2[int64, float64]) []EvolutionPoint {
	var points []EvolutionPoint
	for n, roi := range seq {
		points = append(points, EvolutionPoint{Inferences: n, ROI: roi})
	}
	return points
}

func defaultSamples(c0, cOld, cNew float64) []int64 {
	be := CalculateBreakEvenPoint(c0, cNew, cOld)

	limit, step := int64(defaultEvolutionMax), int64(defaultEvolutionStep)
	if !be.Never && be.Inferences > 0 && be.Inferences <= (1<<62)/evolutionHorizonFactor {
		limit = be.Inferences * evolutionHorizonFactor
		step = limit / evolutionSteps
		if step < 1 {
			step = 1
		}
	}

	samples := make([]int64, 0, limit/step+1)
	for n := int64(0); n <= limit; n += step {
		samples = append(samples, n)
	}
	return samples
}
