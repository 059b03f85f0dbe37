// Package cmd provides the keyword-tiers command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"keyword_tiers/config"
)

// =============================================================================
// Global State
// =============================================================================

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

// =============================================================================
// Root Command
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "keyword-tiers",
	Short: "Rank article keywords by TF-IDF into relevance tiers",
	Long: `keyword-tiers scores keywords across a selected set of articles with
TF-IDF and buckets them into prominent, average and low tiers for a
circle-packing chart.

Commands:
  rate     - Compute the tier tree and article-to-circle map
  matrix   - Fetch allow-listed articles and build the frequency matrix
  show     - Print a summary of previously written outputs`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds the logger shared by subcommands.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	level, err := config.ParseLevel(loaded.LogLevel)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}
