package rating

// AssignRating returns the ordinal of the first boundary containing index.
// Boundaries are evaluated in the given order, so overlapping intervals
// resolve to the better grade. An index that matches nothing gets the worst
// ordinal for this set; a nil index or an empty set is unrated
func AssignRating(index *float64, boundaries BoundarySet) *int {
	if index == nil || len(boundaries) == 0 {
		return nil
	}

	for i, b := range boundaries {
		if b.Contains(*index) {
			return &i
		}
	}

	worst := len(boundaries) - 1
	return &worst
}
