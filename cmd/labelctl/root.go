package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/effilabel/internal/monitoring"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labelctl",
		Short: "labelctl - efficiency labels and ROI for ML models",
		Long: `labelctl grades measured model metrics into an efficiency label and
estimates the return on investment of green AI tactics.

Reference data (rating profiles, carbon intensities and expected reductions)
is read from the data directory, the same layout the server uses.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if *debugLogging {
			level = slog.LevelDebug
		}
		slog.SetDefault(monitoring.NewLoggerWithWriter(cmd.ErrOrStderr(), level).Logger)
	}

	cmd.AddCommand(newRateCommand())
	cmd.AddCommand(newROICommand())
	cmd.AddCommand(newEvolutionCommand())
	cmd.AddCommand(newProfileCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

func defaultDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}
