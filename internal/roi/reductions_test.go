package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReductionTable(t *testing.T) {
	table, err := NewReductionTable([]ExpectedReduction{
		{Architecture: "resnet50", TacticOption: "pruning-50", Metric: "energy_consumption", Fraction: 0.35},
		{Architecture: "resnet50", TacticOption: "pruning-50", Metric: "accuracy", Fraction: 0.02},
		{Architecture: "resnet50", TacticOption: "pruning-50", Metric: "energy_consumption", Fraction: 0.4},
	})
	require.NoError(t, err)

	f, ok := table.ExpectedReduction("resnet50", "pruning-50", "energy_consumption")
	assert.True(t, ok)
	assert.Equal(t, 0.4, f)

	_, ok = table.ExpectedReduction("resnet50", "quantization", "energy_consumption")
	assert.False(t, ok)
}

func TestNewReductionTable_RejectsOutOfRange(t *testing.T) {
	for _, f := range []float64{-0.1, 1.01} {
		_, err := NewReductionTable([]ExpectedReduction{{Architecture: "a", TacticOption: "t", Metric: "m", Fraction: f}})
		assert.ErrorIs(t, err, ErrInvalidReduction)
	}

	table, err := NewReductionTable([]ExpectedReduction{
		{Architecture: "a", TacticOption: "t", Metric: "lo", Fraction: 0},
		{Architecture: "a", TacticOption: "t", Metric: "hi", Fraction: 1},
	})
	require.NoError(t, err)
	assert.Len(t, table, 2)
}
