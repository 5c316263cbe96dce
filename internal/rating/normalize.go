package rating

// Normalize converts an absolute metric value into a baseline-relative index.
// A nil value stays nil. A zero divisor clamps the index to 0 instead of
// producing Inf or NaN
func Normalize(value *float64, baseline float64, higherIsBetter bool) *float64 {
	if value == nil {
		return nil
	}

	num, den := *value, baseline
	if !higherIsBetter {
		num, den = baseline, *value
	}

	index := 0.0
	if den != 0 {
		index = num / den
	}
	return &index
}
