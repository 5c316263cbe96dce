package rating

import (
	"math"
	"sort"
)

// WeightedMean averages the finite values with their weights renormalized to
// sum to 1, rounding half to even. Pairs with a nil or non-finite value, or a
// non-positive weight, are dropped. ok is false when nothing is left
func WeightedMean(values []*float64, weights []float64) (mean int, ok bool) {
	var total float64
	kept := make([]int, 0, len(values))
	for i, v := range values {
		if i >= len(weights) {
			break
		}
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		if w := weights[i]; w > 0 && !math.IsInf(w, 0) {
			total += w
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 || total == 0 {
		return 0, false
	}

	sum := 0.0
	for _, i := range kept {
		sum += *values[i] * (weights[i] / total)
	}
	return int(math.RoundToEven(sum)), true
}

// Compound folds per-metric ordinals into one grade. A nil weight map weighs
// every rating equally; otherwise metrics with a zero or absent weight are
// left out. When the weights leave out every rated metric the ratings are
// weighed equally instead, so the result is nil only when nothing is rated
func Compound(ratings map[string]*int, weights Weights, grades Grades) *string {
	if len(grades) == 0 {
		return nil
	}

	// fixed key order keeps the floating point sum reproducible
	ids := make([]string, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	values := make([]*float64, 0, len(ids))
	ws := make([]float64, 0, len(ids))
	equal := make([]float64, 0, len(ids))
	for _, id := range ids {
		var v *float64
		if r := ratings[id]; r != nil {
			f := float64(*r)
			v = &f
		}
		values = append(values, v)
		equal = append(equal, 1/float64(len(ids)))
		if weights == nil {
			ws = append(ws, 1/float64(len(ids)))
		} else {
			ws = append(ws, weights[id])
		}
	}

	mean, ok := WeightedMean(values, ws)
	if !ok {
		mean, ok = WeightedMean(values, equal)
	}
	if !ok {
		return nil
	}

	grade := grades[clampIndex(mean, len(grades))]
	return &grade
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
