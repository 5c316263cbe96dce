package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/effilabel/internal/config"
	"github.com/ZanzyTHEbar/effilabel/internal/rating"
)

type rateOptions struct {
	file    string
	profile string
	dataDir string
	output  string
}

// valuesFile is the input of `labelctl rate`. A null value marks a metric
// that was not measured
type valuesFile struct {
	Profile string              `yaml:"profile" json:"profile"`
	Values  map[string]*float64 `yaml:"values" json:"values"`
}

func newRateCommand() *cobra.Command {
	opts := &rateOptions{}

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Grade measured metrics into an efficiency label",
		Long: `Grade a model's measured metrics against a rating profile.

The input file lists metric values by ID and may name the profile:

  profile: default
  values:
    energy_consumption: 800
    accuracy: 91.5
    throughput: null

The --profile flag overrides the profile named in the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRate(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML or JSON file with metric values")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Rating profile name (default from file, else \"default\")")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", defaultDataDir(), "Directory holding profiles/ and reference tables")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatText, "Output format: text | json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runRate(w io.Writer, opts *rateOptions) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}

	var input valuesFile
	if err := readInputFile(opts.file, &input); err != nil {
		return err
	}

	name := opts.profile
	if name == "" {
		name = input.Profile
	}
	cfg := &config.ServerConfig{DataDir: opts.dataDir}
	profile, err := config.NewProfileStore(cfg.ProfilesDir()).LoadProfile(name)
	if err != nil {
		return err
	}

	if err := checkValues(input.Values, *profile); err != nil {
		return err
	}

	result := rating.RateModel(input.Values, *profile)
	if opts.output == formatJSON {
		return writeJSON(w, result)
	}
	return printRating(w, result, *profile)
}

// checkValues rejects values the profile cannot grade
func checkValues(values map[string]*float64, p rating.Profile) error {
	if len(values) == 0 {
		return fmt.Errorf("no metric values given")
	}

	var problems []string
	for id, v := range values {
		spec, ok := p.Metrics[id]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s: unknown metric for profile %q", id, p.Name))
		case v != nil && !spec.Metric.InRange(*v):
			problems = append(problems, fmt.Sprintf("%s: %g is outside the metric's valid range", id, *v))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid values:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func printRating(w io.Writer, result rating.RatingResult, p rating.Profile) error {
	grade := "unrated"
	if result.CompoundGrade != nil {
		grade = *result.CompoundGrade
	}
	fmt.Fprintf(w, "Profile:        %s\n", result.Profile)
	fmt.Fprintf(w, "Compound grade: %s\n\n", grade)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE\tINDEX\tGRADE")
	for _, id := range p.MetricIDs() {
		mr := result.Metrics[id]
		value, index, g := "-", "-", "-"
		if mr.Value != nil {
			value = printer.Sprintf("%.2f %s", *mr.Value, p.Metrics[id].Metric.Unit)
		}
		if mr.Index != nil {
			index = printer.Sprintf("%.3f", *mr.Index)
		}
		if mr.Grade != nil {
			g = *mr.Grade
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, value, index, g)
	}
	return tw.Flush()
}
