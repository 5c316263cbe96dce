package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/effilabel/internal/config"
	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

type roiOptions struct {
	file       string
	inferences int64
	dataDir    string
	output     string
}

// scenarioFile is the input of `labelctl roi`: an analysis plus optional
// reductions that extend the data directory's table
type scenarioFile struct {
	roi.Analysis `yaml:",inline"`
	Reductions   []roi.ExpectedReduction `yaml:"reductions" json:"reductions"`
}

func newROICommand() *cobra.Command {
	opts := &roiOptions{}

	cmd := &cobra.Command{
		Use:   "roi",
		Short: "Project an analysis' metrics and price its energy savings",
		Long: `Apply a tactic's expected reductions to an analysis and compute, for every
energy metric with a cost model, the cost savings, ROI, break-even point and
carbon emissions over the given number of inferences.

  id: a-1
  architecture: resnet50
  tactic_option: pruning
  country: FR
  year: 2023
  metrics:
    - metric: {id: energy_consumption, name: Energy Consumption, unit: J, energy_related: true}
      baseline_value: 800
  cost_models:
    energy_consumption: {energy_cost_rate: "0.18", implementation_cost: "1800.00"}
  reductions:
    - {architecture: resnet50, tactic_option: pruning, metric: energy_consumption, fraction: 0.35}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runROI(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML or JSON analysis file")
	cmd.Flags().Int64Var(&opts.inferences, "inferences", 0, "Number of inferences to evaluate the ROI over")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", defaultDataDir(), "Directory holding reference tables")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatText, "Output format: text | json")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("inferences")

	return cmd
}

func runROI(w io.Writer, opts *roiOptions) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}

	var scenario scenarioFile
	if err := readInputFile(opts.file, &scenario); err != nil {
		return err
	}

	cfg := &config.ServerConfig{DataDir: opts.dataDir}
	intensities, err := config.LoadCarbonIntensities(cfg.CarbonIntensityFile())
	if err != nil {
		return err
	}
	reductions, err := config.LoadReductions(cfg.ReductionsFile())
	if err != nil {
		return err
	}
	for _, r := range scenario.Reductions {
		if err := reductions.Set(r); err != nil {
			return err
		}
	}

	for id, cm := range scenario.CostModels {
		if err := cm.Validate(); err != nil {
			return fmt.Errorf("cost model %s: %w", id, err)
		}
	}

	result, err := roi.NewMetricsCalculator(reductions, intensities).
		CalculateMetricsForAnalysis(scenario.Analysis, opts.inferences)
	if err != nil {
		return err
	}

	if opts.output == formatJSON {
		return writeJSON(w, result)
	}
	return printAnalysis(w, result)
}

func printAnalysis(w io.Writer, result roi.AnalysisResult) error {
	fmt.Fprintf(w, "Analysis:   %s\n", result.AnalysisID)
	fmt.Fprint(w, printer.Sprintf("Inferences: %d\n", result.InferenceCount))

	for _, mr := range result.Metrics {
		fmt.Fprintf(w, "\n%s (%s)\n", mr.MetricName, mr.MetricID)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprint(tw, printer.Sprintf("  Baseline\t%.4f %s\n", mr.BaselineValue, mr.Unit))
		fmt.Fprint(tw, printer.Sprintf("  Projected\t%.4f %s (-%s)\n", mr.ProjectedValue, mr.Unit, formatPercent(mr.ReductionFraction)))
		if mr.Error != "" {
			fmt.Fprintf(tw, "  Error\t%s\n", mr.Error)
		}
		if cs := mr.CostSavings; cs != nil {
			fmt.Fprint(tw, printer.Sprintf("  Total baseline cost\t%.2f\n", cs.TotalBaselineCost))
			fmt.Fprint(tw, printer.Sprintf("  Total new cost\t%.2f\n", cs.TotalNewCost))
			fmt.Fprint(tw, printer.Sprintf("  Savings\t%.2f\n", cs.TotalSavings))
			fmt.Fprintf(tw, "  ROI\t%s\n", formatPercent(cs.ROI))
			fmt.Fprintf(tw, "  ROI (unbounded)\t%s\n", formatPercent(cs.InfiniteROI))
			fmt.Fprintf(tw, "  Break-even\t%s\n", formatBreakEven(cs.BreakEvenInferences))
			if ce := cs.CarbonEmissions; ce != nil {
				fmt.Fprint(tw, printer.Sprintf("  CO2 saved\t%.2f kg (%.3f kg/kWh, %s)\n", ce.SavedKg, ce.IntensityKgPerKWh, ce.IntensitySource))
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, s := range result.Skipped {
		fmt.Fprintf(w, "\nSkipped %s: %s\n", s.MetricID, s.Reason)
	}
	return nil
}
