package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/effilabel/internal/config"
	"github.com/ZanzyTHEbar/effilabel/internal/rating"
	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const valuesYAML = `
values:
  energy_consumption: 800
  throughput: null
`

func TestRateCommand_Text(t *testing.T) {
	file := writeInput(t, "values.yaml", valuesYAML)

	out, err := runCLI(t, "rate", "-f", file, "--data-dir", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "Profile:        default")
	assert.Contains(t, out, "Compound grade: B")
	assert.Contains(t, out, "energy_consumption")
	assert.Contains(t, out, "1.250")
}

func TestRateCommand_JSON(t *testing.T) {
	file := writeInput(t, "values.json", `{"values": {"energy_consumption": 800, "accuracy": 99}}`)

	out, err := runCLI(t, "rate", "-f", file, "--data-dir", t.TempDir(), "-o", "json")
	require.NoError(t, err)

	var result rating.RatingResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Metrics[rating.MetricAccuracy].Grade)
	assert.Equal(t, "A", *result.Metrics[rating.MetricAccuracy].Grade)
	require.NotNil(t, result.CompoundGrade)
}

func TestRateCommand_ProfileFromDataDir(t *testing.T) {
	dataDir := t.TempDir()
	p := rating.Profile{
		Name:   "binary",
		Grades: rating.Grades{"PASS", "FAIL"},
		Metrics: map[string]rating.MetricSpec{
			rating.MetricEnergyConsumption: {
				Metric:     rating.Metric{ID: rating.MetricEnergyConsumption, Unit: "J"},
				Boundaries: rating.BoundarySet{{1e11, 500}, {500, -1e11}},
			},
		},
	}
	require.NoError(t, config.NewProfileStore(filepath.Join(dataDir, "profiles")).SaveProfile(&p))

	file := writeInput(t, "values.yaml", "profile: binary\nvalues:\n  energy_consumption: 800\n")
	out, err := runCLI(t, "rate", "-f", file, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Compound grade: PASS")

	_, err = runCLI(t, "rate", "-f", file, "--data-dir", dataDir, "--profile", "missing")
	assert.ErrorIs(t, err, config.ErrProfileNotFound)
}

func TestRateCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		wantErr string
	}{
		{name: "value out of range", content: "values:\n  accuracy: 150\n", wantErr: "outside the metric's valid range"},
		{name: "unknown metric", content: "values:\n  latency: 1\n", wantErr: "unknown metric"},
		{name: "no values", content: "values: {}\n", wantErr: "no metric values"},
		{name: "bad format", content: valuesYAML, args: []string{"-o", "xml"}, wantErr: "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := writeInput(t, "values.yaml", tt.content)
			args := append([]string{"rate", "-f", file, "--data-dir", t.TempDir()}, tt.args...)

			_, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := runCLI(t, "rate")
	assert.Error(t, err, "--file is required")
}

const scenarioYAML = `
id: a-1
architecture: resnet50
tactic_option: pruning
country: FR
metrics:
  - metric: {id: energy_consumption, name: Energy Consumption, unit: J, energy_related: true}
    baseline_value: 800
  - metric: {id: accuracy, name: Accuracy, unit: "%"}
    baseline_value: 91
cost_models:
  energy_consumption: {energy_cost_rate: "0.18", implementation_cost: "1800.00"}
reductions:
  - {architecture: resnet50, tactic_option: pruning, metric: energy_consumption, fraction: 0.35}
`

func TestROICommand_JSON(t *testing.T) {
	file := writeInput(t, "analysis.yaml", scenarioYAML)

	out, err := runCLI(t, "roi", "-f", file, "--inferences", "50000000", "--data-dir", t.TempDir(), "-o", "json")
	require.NoError(t, err)

	var result roi.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, "a-1", result.AnalysisID)
	require.Len(t, result.Metrics, 1)
	require.Len(t, result.Skipped, 1)

	cs := result.Metrics[0].CostSavings
	require.NotNil(t, cs)
	assert.InDelta(t, -1100.0/3100.0, cs.ROI, 1e-9)
	assert.Equal(t, roi.BreakEven{Inferences: 128571428}, cs.BreakEvenInferences)
	require.NotNil(t, cs.CarbonEmissions)
	assert.Equal(t, roi.SourceGlobalFallback, cs.CarbonEmissions.IntensitySource)
}

func TestROICommand_Text(t *testing.T) {
	file := writeInput(t, "analysis.yaml", scenarioYAML)

	out, err := runCLI(t, "roi", "-f", file, "--inferences", "50000000", "--data-dir", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "Inferences: 50,000,000")
	assert.Contains(t, out, "128,571,428 inferences")
	assert.Contains(t, out, "Skipped accuracy")
}

func TestROICommand_UsesDataDirTables(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "carbon_intensity.yaml"),
		[]byte("intensities:\n  - {country: FR, year: 2023, kg_per_kwh: 0.056}\n"), 0o644))
	file := writeInput(t, "analysis.yaml", scenarioYAML)

	out, err := runCLI(t, "roi", "-f", file, "--inferences", "1000", "--data-dir", dataDir, "-o", "json")
	require.NoError(t, err)

	var result roi.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Metrics, 1)
	assert.Equal(t, roi.SourceCountry, result.Metrics[0].CostSavings.CarbonEmissions.IntensitySource)
}

func TestROICommand_Errors(t *testing.T) {
	file := writeInput(t, "analysis.yaml", scenarioYAML)

	_, err := runCLI(t, "roi", "-f", file, "--inferences", "-1", "--data-dir", t.TempDir())
	assert.ErrorIs(t, err, roi.ErrInvalidInferenceCount)

	_, err = runCLI(t, "roi", "-f", file, "--data-dir", t.TempDir())
	assert.Error(t, err, "--inferences is required")

	bad := writeInput(t, "analysis.yaml", strings.Replace(scenarioYAML, `"0.18"`, `"-0.18"`, 1))
	_, err = runCLI(t, "roi", "-f", bad, "--inferences", "10", "--data-dir", t.TempDir())
	assert.ErrorIs(t, err, roi.ErrInvalidCostModel)
}

func TestEvolutionCommand(t *testing.T) {
	out, err := runCLI(t, "evolution",
		"--implementation-cost", "100", "--baseline-cost", "2", "--new-cost", "1",
		"--points", "0,100,200", "-o", "json")
	require.NoError(t, err)

	var got evolutionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, roi.BreakEven{Inferences: 100}, got.BreakEvenInferences)
	require.Len(t, got.Points, 3)
	assert.InDelta(t, -1.0, got.Points[0].ROI, 1e-12)
	assert.InDelta(t, 0.0, got.Points[1].ROI, 1e-12)

	out, err = runCLI(t, "evolution",
		"--implementation-cost", "100", "--baseline-cost", "2", "--new-cost", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Break-even: 100 inferences")
	assert.Contains(t, out, "2,000")
	// header, blank line, column titles and 201 samples
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 204)
}

func TestEvolutionCommand_NeverBreaksEven(t *testing.T) {
	out, err := runCLI(t, "evolution",
		"--implementation-cost", "10", "--baseline-cost", "1", "--new-cost", "1.5", "--points", "0,10")
	require.NoError(t, err)
	assert.Contains(t, out, "Break-even: never")
}

func TestEvolutionCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "not a number", args: []string{"--implementation-cost", "lots", "--baseline-cost", "2", "--new-cost", "1"}},
		{name: "negative cost", args: []string{"--implementation-cost", "100", "--baseline-cost", "-2", "--new-cost", "1"}},
		{name: "negative point", args: []string{"--implementation-cost", "100", "--baseline-cost", "2", "--new-cost", "1", "--points", "-5"}},
		{name: "missing cost", args: []string{"--implementation-cost", "100"}},
		{name: "zero new cost", args: []string{"--implementation-cost", "100", "--baseline-cost", "2", "--new-cost", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, append([]string{"evolution"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

const binaryProfileYAML = `
grades: [PASS, FAIL]
metrics:
  energy_consumption:
    metric: {id: energy_consumption, unit: J, min_value: 0}
    boundaries: [[1e11, 500], [500, -1e11]]
weights:
  energy_consumption: 1
`

func TestProfileCommand_ImportListShow(t *testing.T) {
	dataDir := t.TempDir()
	file := writeInput(t, "binary.yaml", binaryProfileYAML)

	out, err := runCLI(t, "profile", "import", "-f", file, "--name", "binary", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored profile binary (1 metrics, grades PASSFAIL)")

	stored, err := config.NewProfileStore(filepath.Join(dataDir, "profiles")).LoadProfile("binary")
	require.NoError(t, err)
	assert.Equal(t, rating.Grades{"PASS", "FAIL"}, stored.Grades)

	out, err = runCLI(t, "profile", "list", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Equal(t, "binary\ndefault\n", out)

	out, err = runCLI(t, "profile", "show", "binary", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Grades:  PASS FAIL")
	assert.Contains(t, out, "energy_consumption")

	out, err = runCLI(t, "profile", "show", "binary", "--data-dir", dataDir, "-o", "json")
	require.NoError(t, err)
	var p rating.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "binary", p.Name)

	values := writeInput(t, "values.yaml", "profile: binary\nvalues:\n  energy_consumption: 800\n")
	out, err = runCLI(t, "rate", "-f", values, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Compound grade: PASS")
}

func TestProfileCommand_ShowDefault(t *testing.T) {
	out, err := runCLI(t, "profile", "show", "default", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Grades:  A B C D E")
	assert.Contains(t, out, "accuracy")
}

func TestProfileCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		wantErr error
	}{
		{name: "missing name", content: binaryProfileYAML},
		{name: "path in name", content: binaryProfileYAML, args: []string{"--name", "../escape"}, wantErr: config.ErrInvalidProfileName},
		{name: "no boundaries", content: "name: empty\nmetrics:\n  accuracy:\n    metric: {id: accuracy}\n", wantErr: rating.ErrInvalidProfile},
		{name: "no metrics", content: "name: bare\ngrades: [A, B]\n", wantErr: rating.ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			file := writeInput(t, "profile.yaml", tt.content)
			args := append([]string{"profile", "import", "-f", file, "--data-dir", dataDir}, tt.args...)

			_, err := runCLI(t, args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			names, err := config.NewProfileStore(filepath.Join(dataDir, "profiles")).ListProfiles()
			require.NoError(t, err)
			assert.Equal(t, []string{"default"}, names)
		})
	}

	_, err := runCLI(t, "profile", "show", "missing", "--data-dir", t.TempDir())
	assert.ErrorIs(t, err, config.ErrProfileNotFound)
}
