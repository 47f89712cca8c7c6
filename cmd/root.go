// =============================================================================
// Scorecard Import - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// shares the configuration and logger set up here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (scorecard)
//   ├── parseCmd    (scorecard parse <file...>)
//   ├── processCmd  (scorecard process)
//   ├── templateCmd (scorecard template)
//   └── versionCmd  (scorecard version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads scorecard.yaml (or --config) plus SCORECARD_* variables
//   2. Applies --verbose (debug logging)
//   3. Initializes the global zap logger
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/scorecard-import/internal/config"
)

// cfgFile is the --config flag. Empty searches for scorecard.yaml.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// appConfig is loaded once per invocation by the root command.
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "Scorecard Import - parse and validate clinical audit scorecards",
	Long: `Scorecard Import reads clinical audit scorecard workbooks (SNF and KEV
Mini/Hybrid), extracts facility, period and item scores, validates them and
prepares import payloads for the scorecard backend.

Key Features:
  - Automatic format detection from sheet names
  - Heuristic facility, month and item-table extraction
  - Weighted point scoring with cover-sheet reconciliation
  - Fuzzy facility matching against a facility directory
  - Duplicate detection across a batch
  - Concurrent, isolated per-file processing

Example Usage:
  scorecard parse march.xlsx                # Print the parsed scorecard as JSON
  scorecard process                         # Process every workbook in the input directory
  scorecard process --overrides review.yaml # Apply reviewer overrides
  scorecard template -o template.xlsx       # Write the blank import template`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. An interrupt cancels files that have not
// started yet.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// initConfig loads the configuration and sets up logging.
func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	appConfig = cfg

	zap.L().Debug("configuration loaded",
		zap.String("input_dir", cfg.Paths.InputDir),
		zap.String("facilities", cfg.Facilities.File),
		zap.Int("max_concurrency", cfg.Batch.MaxConcurrency),
	)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is ./scorecard.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
