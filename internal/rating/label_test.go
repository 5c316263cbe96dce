package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateModel_DefaultProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())

	values := map[string]*float64{
		MetricEnergyConsumption: f64(800),
		MetricInferenceTime:     f64(50),
		MetricAccuracy:          f64(92),
		MetricModelSize:         f64(250),
		MetricThroughput:        nil,
		"unknown_metric":        f64(1),
	}

	result := RateModel(values, p)

	assert.Equal(t, "default", result.Profile)
	assert.Len(t, result.Metrics, 5)
	assert.NotContains(t, result.Metrics, "unknown_metric")

	energy := result.Metrics[MetricEnergyConsumption]
	require.NotNil(t, energy.Index)
	assert.InDelta(t, 1.25, *energy.Index, 1e-12)
	require.NotNil(t, energy.Grade)
	assert.Equal(t, "B", *energy.Grade)

	accuracy := result.Metrics[MetricAccuracy]
	require.NotNil(t, accuracy.Grade)
	assert.Equal(t, "B", *accuracy.Grade)

	assert.Equal(t, "A", *result.Metrics[MetricInferenceTime].Grade)
	assert.Equal(t, "A", *result.Metrics[MetricModelSize].Grade)

	throughput := result.Metrics[MetricThroughput]
	assert.Nil(t, throughput.Value)
	assert.Nil(t, throughput.Index)
	assert.Nil(t, throughput.Ordinal)
	assert.Nil(t, throughput.Grade)

	// 0.35*1 + 0.20*0 + 0.25*1 + 0.10*0 over 0.9 total rounds to B
	require.NotNil(t, result.CompoundGrade)
	assert.Equal(t, "B", *result.CompoundGrade)
}

func TestRateModel_AllUnknown(t *testing.T) {
	result := RateModel(map[string]*float64{}, DefaultProfile())

	assert.Nil(t, result.CompoundGrade)
	for id, m := range result.Metrics {
		assert.Nil(t, m.Grade, id)
	}
}

func TestRateModel_WeightsOnUnmeasuredMetrics(t *testing.T) {
	p := DefaultProfile()
	p.Weights = Weights{MetricAccuracy: 1}

	result := RateModel(map[string]*float64{MetricEnergyConsumption: f64(800)}, p)

	require.NotNil(t, result.CompoundGrade)
	assert.Equal(t, "B", *result.CompoundGrade)
}

func TestRateModel_RawValuesWithoutReference(t *testing.T) {
	p := Profile{
		Name:   "raw",
		Grades: Grades{"A", "B", "C"},
		Metrics: map[string]MetricSpec{
			"score": {
				Metric:     Metric{ID: "score", HigherIsBetter: true},
				Boundaries: BoundarySet{{100, 80}, {80, 50}, {50, 0}},
			},
		},
	}

	result := RateModel(map[string]*float64{"score": f64(65)}, p)

	m := result.Metrics["score"]
	require.NotNil(t, m.Index)
	assert.Equal(t, 65.0, *m.Index)
	assert.Equal(t, "B", *m.Grade)
	assert.Equal(t, "B", *result.CompoundGrade)
}

func TestProfile_Validate(t *testing.T) {
	valid := func() Profile { return DefaultProfile() }

	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr bool
	}{
		{name: "default profile is valid", mutate: func(p *Profile) {}},
		{name: "no grades", mutate: func(p *Profile) { p.Grades = nil }, wantErr: true},
		{name: "no metrics", mutate: func(p *Profile) { p.Metrics = nil }, wantErr: true},
		{name: "negative weight", mutate: func(p *Profile) { p.Weights[MetricAccuracy] = -1 }, wantErr: true},
		{
			name: "more boundaries than grades",
			mutate: func(p *Profile) {
				p.Grades = Grades{"A", "B"}
			},
			wantErr: true,
		},
		{
			name: "zero reference",
			mutate: func(p *Profile) {
				spec := p.Metrics[MetricModelSize]
				spec.Reference = f64(0)
				p.Metrics[MetricModelSize] = spec
			},
			wantErr: true,
		},
		{
			name: "missing boundaries",
			mutate: func(p *Profile) {
				spec := p.Metrics[MetricModelSize]
				spec.Boundaries = nil
				p.Metrics[MetricModelSize] = spec
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProfile)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetric_InRange(t *testing.T) {
	m := Metric{ID: "accuracy", Min: f64(0), Max: f64(100)}
	assert.True(t, m.InRange(0))
	assert.True(t, m.InRange(100))
	assert.False(t, m.InRange(-0.1))
	assert.False(t, m.InRange(100.1))
	assert.True(t, Metric{}.InRange(-1e9))
}

func BenchmarkRateModel(b *testing.B) {
	p := DefaultProfile()
	values := map[string]*float64{
		MetricEnergyConsumption: f64(800),
		MetricInferenceTime:     f64(50),
		MetricAccuracy:          f64(92),
		MetricModelSize:         f64(250),
		MetricThroughput:        f64(75),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RateModel(values, p)
	}
}
