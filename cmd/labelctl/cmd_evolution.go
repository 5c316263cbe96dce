package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

type evolutionOptions struct {
	implementationCost string
	baselineCost       string
	newCost            string
	points             []int64
	output             string
}

type evolutionOutput struct {
	BreakEvenInferences roi.BreakEven        `json:"break_even_inferences"`
	Points              []roi.EvolutionPoint `json:"points"`
}

func newEvolutionCommand() *cobra.Command {
	opts := &evolutionOptions{}

	cmd := &cobra.Command{
		Use:   "evolution",
		Short: "Print the ROI of a tactic as the number of inferences grows",
		Long: `Print ROI-vs-inferences samples for charting.

Without --points the samples span twenty times the break-even point in 200
steps, or 0..2,000,000 in steps of 10,000 when the tactic never breaks even.
Costs are decimal amounts in the same currency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvolution(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.implementationCost, "implementation-cost", "", "One-time cost of applying the tactic")
	cmd.Flags().StringVar(&opts.baselineCost, "baseline-cost", "", "Cost per inference before the tactic")
	cmd.Flags().StringVar(&opts.newCost, "new-cost", "", "Cost per inference after the tactic")
	cmd.Flags().Int64SliceVar(&opts.points, "points", nil, "Explicit inference counts to sample (comma separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatText, "Output format: text | json")
	for _, name := range []string{"implementation-cost", "baseline-cost", "new-cost"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func parseCost(flag, value string) (float64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", flag, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("--%s: %s is negative", flag, value)
	}
	return d.InexactFloat64(), nil
}

func runEvolution(w io.Writer, opts *evolutionOptions) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}

	c0, err := parseCost("implementation-cost", opts.implementationCost)
	if err != nil {
		return err
	}
	cOld, err := parseCost("baseline-cost", opts.baselineCost)
	if err != nil {
		return err
	}
	cNew, err := parseCost("new-cost", opts.newCost)
	if err != nil {
		return err
	}
	if cNew == 0 {
		return fmt.Errorf("--new-cost: zero cost per inference: %w", roi.ErrDegenerateCost)
	}
	for _, n := range opts.points {
		if n < 0 {
			return fmt.Errorf("--points: %d: %w", n, roi.ErrInvalidInferenceCount)
		}
	}

	out := evolutionOutput{
		BreakEvenInferences: roi.CalculateBreakEvenPoint(c0, cNew, cOld),
		Points:              roi.CollectEvolution(roi.CalculateROIEvolution(c0, cOld, cNew, opts.points)),
	}

	if opts.output == formatJSON {
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Break-even: %s\n\n", formatBreakEven(out.BreakEvenInferences))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "INFERENCES\tROI\t")
	for _, p := range out.Points {
		fmt.Fprint(tw, printer.Sprintf("%d\t%s\t\n", p.Inferences, formatPercent(p.ROI)))
	}
	return tw.Flush()
}
