// =============================================================================
// Scorecard Import - Parse Command
// =============================================================================
//
// COMMAND USAGE:
//   scorecard parse <file...> [flags]
//
// FLAGS:
//   --facility : Facility name to use when a workbook has none
//   --month    : Month (1-12) to use when a workbook has none
//   --year     : Year to use when a workbook has none
//   --validate : Also validate against the facility directory
//
// OUTPUT:
//   A JSON array with one entry per file, in argument order:
//   {filename, status, error?, scorecard?, validation?}
//
// =============================================================================

package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/scorecard-import/internal/batch"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
)

var (
	parseFacility string
	parseMonth    int
	parseYear     int
	parseValidate bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <file...>",
	Short: "Parse scorecard workbooks and print the result as JSON",
	Long: `The parse command reads each workbook, detects its format, extracts the
facility, period and item scores, and prints the scored result as JSON.

A file that cannot be parsed gets an error entry; the others are unaffected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseOptions()
		if err != nil {
			return err
		}

		inputs := make([]batch.Input, len(args))
		for i, path := range args {
			inputs[i] = batch.Input{Filename: filepath.Base(path), Path: path, Options: opts}
		}

		results := batch.NewProcessor(appConfig.BatchConfig()).Process(cmd.Context(), inputs)

		var validated []validation.Result
		if parseValidate {
			dir, err := appConfig.LoadDirectory()
			if err != nil {
				return err
			}
			validated = batch.ValidateAll(results, nil, dir, appConfig.Policy())
		}

		return writeJSON(cmd.OutOrStdout(), buildReport(results, validated), appConfig.Output.Indent)
	},
}

// parseOptions turns the flags into scorecard options.
func parseOptions() (scorecard.Options, error) {
	var opts scorecard.Options
	if parseFacility != "" {
		opts.FacilityName = scorecard.String(parseFacility)
	}
	if parseMonth != 0 {
		opts.Month = scorecard.Int(parseMonth)
	}
	if parseYear != 0 {
		opts.Year = scorecard.Int(parseYear)
	}
	return opts, opts.Validate()
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseFacility, "facility", "", "Facility name to use when the workbook has none")
	parseCmd.Flags().IntVar(&parseMonth, "month", 0, "Month (1-12) to use when the workbook has none")
	parseCmd.Flags().IntVar(&parseYear, "year", 0, "Year to use when the workbook has none")
	parseCmd.Flags().BoolVar(&parseValidate, "validate", false, "Validate against the facility directory")
}
