package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

type carbonFile struct {
	Intensities []roi.CarbonIntensity `yaml:"intensities"`
}

type reductionsFile struct {
	Reductions []roi.ExpectedReduction `yaml:"reductions"`
}

// LoadCarbonIntensities reads a carbon intensity table. A missing file yields
// an empty table, so every lookup uses the global figure
func LoadCarbonIntensities(path string) (*roi.IntensityTable, error) {
	var f carbonFile
	found, err := readYAML(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to load carbon intensities: %w", err)
	}
	if !found {
		return roi.NewIntensityTable(nil), nil
	}
	return roi.NewIntensityTable(f.Intensities), nil
}

// LoadReductions reads the expected-reduction table. A missing file yields an
// empty table
func LoadReductions(path string) (roi.ReductionTable, error) {
	var f reductionsFile
	found, err := readYAML(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to load reductions: %w", err)
	}
	if !found {
		return roi.ReductionTable{}, nil
	}
	table, err := roi.NewReductionTable(f.Reductions)
	if err != nil {
		return nil, fmt.Errorf("failed to load reductions: %w", err)
	}
	return table, nil
}

func readYAML(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}
