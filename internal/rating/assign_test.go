package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignRating(t *testing.T) {
	fiveGrades := BoundarySet{
		{1e11, 1.5},
		{1.5, 1.1},
		{1.1, 0.9},
		{0.9, 0.6},
		{0.6, 0},
	}

	tests := []struct {
		name       string
		index      *float64
		boundaries BoundarySet
		expected   *int
	}{
		{
			name:       "nil index is unrated",
			index:      nil,
			boundaries: fiveGrades,
			expected:   nil,
		},
		{
			name:       "empty boundary set is unrated",
			index:      f64(1),
			boundaries: BoundarySet{},
			expected:   nil,
		},
		{
			name:       "index in first interval",
			index:      f64(2),
			boundaries: fiveGrades,
			expected:   intPtr(0),
		},
		{
			name:       "upper bound is inclusive",
			index:      f64(1.5),
			boundaries: fiveGrades,
			expected:   intPtr(1),
		},
		{
			name:       "lower bound is exclusive",
			index:      f64(0.9),
			boundaries: fiveGrades,
			expected:   intPtr(3),
		},
		{
			name:       "index below every interval falls to the worst grade",
			index:      f64(-3),
			boundaries: fiveGrades,
			expected:   intPtr(4),
		},
		{
			name:       "worst grade follows the boundary count",
			index:      f64(-3),
			boundaries: fiveGrades[:3],
			expected:   intPtr(2),
		},
		{
			name:       "degenerate trailing intervals",
			index:      f64(2),
			boundaries: BoundarySet{{100000000000, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
			expected:   intPtr(0),
		},
		{
			name:       "overlapping intervals resolve to the first match",
			index:      f64(5),
			boundaries: BoundarySet{{10, 0}, {10, 0}},
			expected:   intPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AssignRating(tt.index, tt.boundaries)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, *tt.expected, *result)
		})
	}
}

func TestAssignRating_AlwaysInRange(t *testing.T) {
	boundaries := BoundarySet{
		{1e11, 100},
		{100, 10},
		{10, 1},
		{1, -1e11},
	}
	for _, idx := range []float64{-1e12, -5, 0, 0.5, 1, 9.99, 10, 99, 100, 1e5, 1e11, 1e12} {
		result := AssignRating(f64(idx), boundaries)
		require.NotNil(t, result, "index %v", idx)
		assert.GreaterOrEqual(t, *result, 0)
		assert.LessOrEqual(t, *result, len(boundaries)-1)
	}
}

func TestBoundary_Accessors(t *testing.T) {
	b := Boundary{3, 1}
	assert.Equal(t, 3.0, b.Upper())
	assert.Equal(t, 1.0, b.Lower())
	assert.True(t, b.Contains(3))
	assert.False(t, b.Contains(1))
}

func intPtr(v int) *int { return &v }
