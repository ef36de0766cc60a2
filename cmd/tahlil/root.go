package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagliklab/tahlil/internal/cli"
	"github.com/sagliklab/tahlil/version"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "tahlil",
	Short: "Lab report extraction pipeline powered by a vision model",
	Long: `Tahlil extracts structured test results from lab report PDFs.

Each page is classified as vector text or a full-page scan, rendered to
one or two image fragments, sent to a vision model for structured
extraction, and the per-fragment answers are merged into a single
deduplicated result set with one sample date.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tahlil/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cli.SetOutputFormat(outputFormat)

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(versionCmd)
}
