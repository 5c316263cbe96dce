package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/effilabel/internal/config"
	"github.com/ZanzyTHEbar/effilabel/internal/rating"
)

type profileOptions struct {
	dataDir string
	output  string
	file    string
	name    string
}

func (o *profileOptions) store() *config.ProfileStore {
	cfg := &config.ServerConfig{DataDir: o.dataDir}
	return config.NewProfileStore(cfg.ProfilesDir())
}

func newProfileCommand() *cobra.Command {
	opts := &profileOptions{}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "List, inspect and import rating profiles",
		Long: `Manage the rating profiles stored under <data-dir>/profiles.

The built-in "default" profile is always listed. Importing a profile with
the same name as the default overrides it for both labelctl and the server.`,
	}
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", defaultDataDir(), "Directory holding profiles/ and reference tables")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored rating profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileList(cmd.OutOrStdout(), opts)
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a rating profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(cmd.OutOrStdout(), args[0], opts)
		},
	}
	show.Flags().StringVarP(&opts.output, "output", "o", formatText, "Output format: text | json")

	imp := &cobra.Command{
		Use:   "import",
		Short: "Validate a profile file and store it",
		Long: `Read a YAML or JSON rating profile, validate it and store it as
<data-dir>/profiles/<name>.yaml. The --name flag overrides the name in the
file. Missing grades default to A..E.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileImport(cmd.OutOrStdout(), opts)
		},
	}
	imp.Flags().StringVarP(&opts.file, "file", "f", "", "YAML or JSON profile file")
	imp.Flags().StringVar(&opts.name, "name", "", "Profile name (default from file)")
	_ = imp.MarkFlagRequired("file")

	cmd.AddCommand(list, show, imp)
	return cmd
}

func runProfileList(w io.Writer, opts *profileOptions) error {
	names, err := opts.store().ListProfiles()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func runProfileShow(w io.Writer, name string, opts *profileOptions) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}
	p, err := opts.store().LoadProfile(name)
	if err != nil {
		return err
	}
	if opts.output == formatJSON {
		return writeJSON(w, p)
	}
	return printProfile(w, *p)
}

func runProfileImport(w io.Writer, opts *profileOptions) error {
	var p rating.Profile
	if err := readInputFile(opts.file, &p); err != nil {
		return err
	}
	if opts.name != "" {
		p.Name = opts.name
	}
	if p.Name == "" {
		return fmt.Errorf("%s: profile has no name, use --name", opts.file)
	}
	if len(p.Grades) == 0 {
		p.Grades = rating.DefaultGrades
	}

	if err := opts.store().SaveProfile(&p); err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored profile %s (%d metrics, grades %s)\n", p.Name, len(p.Metrics), strings.Join(p.Grades, ""))
	return nil
}

func printProfile(w io.Writer, p rating.Profile) error {
	fmt.Fprintf(w, "Profile: %s\n", p.Name)
	fmt.Fprintf(w, "Grades:  %s\n\n", strings.Join(p.Grades, " "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tUNIT\tBETTER\tWEIGHT")
	for _, id := range p.MetricIDs() {
		m := p.Metrics[id].Metric
		better := "lower"
		if m.HigherIsBetter {
			better = "higher"
		}
		weight := "-"
		if wt, ok := p.Weights[id]; ok {
			weight = printer.Sprintf("%g", wt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, m.Unit, better, weight)
	}
	return tw.Flush()
}
