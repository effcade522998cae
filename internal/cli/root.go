// Package cli provides the command-line interface for LeapAccel.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapaccel/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapaccel",
		Short: "LeapAccel - Adaptive Query Acceleration",
		Long: `LeapAccel routes SQL between transactional and analytical engines and
serves repeated expensive queries from materialized views.

It maintains a per-tenant catalog of view definitions, rewrites matching
queries to read precomputed relations, refreshes views on demand or on a
schedule, and proposes new views from observed slow-query workload.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: leapaccel.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("catalog-path", "", "path to the catalog database (\":memory:\" for in-process)")

	rootCmd.AddCommand(
		newCatalogCmd(),
		newRefreshCmd(),
		newSchedulerCmd(),
		newStatsCmd(),
		newSuggestCmd(),
	)

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// loadConfig loads configuration honoring the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}

// newLogger builds the CLI logger.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
