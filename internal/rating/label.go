package rating

// RateModel grades every metric of the profile and combines the ordinals into
// the compound grade. Metrics missing from values are reported unrated.
// Values for metrics the profile does not know are ignored
func RateModel(values map[string]*float64, p Profile) RatingResult {
	result := RatingResult{
		Profile: p.Name,
		Metrics: make(map[string]MetricRating, len(p.Metrics)),
	}
	ordinals := make(map[string]*int, len(p.Metrics))

	for _, id := range p.MetricIDs() {
		spec := p.Metrics[id]
		value := values[id]

		index := value
		if spec.Reference != nil {
			index = Normalize(value, *spec.Reference, spec.Metric.HigherIsBetter)
		}

		ordinal := AssignRating(index, spec.Boundaries)
		ordinals[id] = ordinal

		mr := MetricRating{Value: value, Index: index, Ordinal: ordinal}
		if ordinal != nil && len(p.Grades) > 0 {
			g := p.Grades[clampIndex(*ordinal, len(p.Grades))]
			mr.Grade = &g
		}
		result.Metrics[id] = mr
	}

	result.CompoundGrade = Compound(ordinals, p.Weights, p.Grades)
	return result
}
