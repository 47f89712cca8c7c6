// =============================================================================
// Scorecard Import - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs a whole batch: every
// workbook in the input directory is parsed, scored and validated, and the
// import payloads are prepared.
//
// COMMAND USAGE:
//   scorecard process [flags]
//
// FLAGS:
//   --dry-run   : Parse and validate, print the summary, write nothing
//   --file      : Process one workbook instead of the input directory
//   --overrides : YAML file of reviewer overrides keyed by filename
//   --full      : Also write the multipart full-import body
//   --retention : Remove archived files older than this (0 keeps all)
//
// PROCESSING PIPELINE:
//   1. Load the facility directory and reviewer overrides
//   2. Discover workbooks in the input directory
//   3. Parse every workbook concurrently (isolated per file)
//   4. Validate, then group duplicates across the batch
//   5. Write the validation report, summary payload and logs
//   6. Archive workbooks that validated cleanly
//
// =============================================================================

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/scorecard-import/internal/batch"
	"github.com/ginjaninja78/scorecard-import/internal/config"
	"github.com/ginjaninja78/scorecard-import/internal/payload"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
	"github.com/ginjaninja78/scorecard-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun        bool
	filePath      string
	overridesFile string
	fullImport    bool
	retention     time.Duration
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Parse, validate and prepare every workbook in the input directory",
	Long: `The process command scans the input directory for scorecard workbooks,
parses and validates each one, and prepares the import payloads.

Each file is processed independently; a corrupt or unrecognised workbook is
reported and does not affect the others.

Outputs (in the output directory, named by output.name_format):
  - report   every file with its scorecard and validation result (JSON)
  - summary  the summary import payload, valid files only (JSON)
  - full     the multipart full import body (with --full)
  - error_log_*.txt and processing_summary_*.txt for reviewers

Workbooks that validated cleanly are moved to the input archive. Invalid
workbooks stay in the input directory; fix them or add overrides and re-run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate without writing or moving files")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process a single workbook")
	processCmd.Flags().StringVar(&overridesFile, "overrides", "", "YAML file of reviewer overrides")
	processCmd.Flags().BoolVar(&fullImport, "full", false, "Also write the multipart full-import body")
	processCmd.Flags().DurationVar(&retention, "retention", 0, "Remove archived files older than this duration")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()
	log := zap.L()
	cfg := appConfig

	fm := utils.NewFileManager(cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Paths.InputArchiveDir, cfg.Paths.OutputArchiveDir)
	fm.UseTimestampSubdirs = cfg.Paths.UseTimestampSubdirs

	// =========================================================================
	// STEP 1: LOAD FACILITY DIRECTORY AND OVERRIDES
	// =========================================================================

	dir, err := cfg.LoadDirectory()
	if err != nil {
		return err
	}
	overrides, err := config.LoadOverrides(overridesFile)
	if err != nil {
		return err
	}
	log.Info("batch inputs loaded", zap.Int("facilities", dir.Len()), zap.Int("overrides", len(overrides)))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var paths []string
	if filePath != "" {
		paths = []string{filePath}
	} else {
		if !dryRun {
			if err := fm.EnsureDirectories(); err != nil {
				return err
			}
		}
		if paths, err = fm.DiscoverInputFiles(cfg.Paths.Patterns...); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(out, "No workbooks found in the input directory.")
		return nil
	}
	fmt.Fprintf(out, "Found %d workbook(s) to process\n", len(paths))

	// =========================================================================
	// STEP 3: PARSE
	// =========================================================================

	inputs := make([]batch.Input, len(paths))
	for i, p := range paths {
		inputs[i] = batch.Input{Filename: filepath.Base(p), Path: p}
	}
	results := batch.NewProcessor(cfg.BatchConfig()).Process(cmd.Context(), inputs)

	// =========================================================================
	// STEP 4: VALIDATE
	// =========================================================================

	validated := batch.ValidateAll(results, overrides, dir, cfg.Policy())
	printResults(cmd, results, validated)

	batchID := payload.NewBatchID()
	if dryRun {
		printSummary(cmd, batch.Summarize(results, validated), time.Since(startTime))
		return nil
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUTS
	// =========================================================================

	if filePath != "" {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	outputs, err := writeOutputs(fm, batchID, paths, results, validated, overrides)
	if err != nil {
		return err
	}
	for _, o := range outputs {
		if _, err := fm.ArchiveOutputFile(o); err != nil {
			log.Warn("output not archived", zap.String("path", o), zap.Error(err))
		}
	}

	// =========================================================================
	// STEP 6: ARCHIVE VALID INPUTS AND WRITE LOGS
	// =========================================================================

	archived := make(map[string]string)
	for i, v := range validated {
		if !v.IsValid || len(v.Warnings) > 0 {
			continue
		}
		dst, err := fm.ArchiveInputFile(paths[i])
		if err != nil {
			log.Warn("input not archived", zap.String("filename", v.Filename), zap.Error(err))
			continue
		}
		archived[v.Filename] = dst
	}

	endTime := time.Now()
	if path, err := utils.WriteErrorLog(errorLogEntries(validated, endTime), cfg.Paths.OutputDir); err != nil {
		log.Warn("error log not written", zap.Error(err))
	} else if path != "" {
		fmt.Fprintf(out, "Issues logged to %s\n", path)
	}
	if _, err := utils.WriteSummaryLog(processingSummary(startTime, endTime, batchID, results, validated, archived), cfg.Paths.OutputDir); err != nil {
		log.Warn("summary log not written", zap.Error(err))
	}

	if retention > 0 {
		for _, d := range []string{cfg.Paths.InputArchiveDir, cfg.Paths.OutputArchiveDir} {
			n, err := utils.CleanOldArchives(d, retention)
			if err != nil {
				log.Warn("archive cleanup failed", zap.String("dir", d), zap.Error(err))
				continue
			}
			log.Info("archive cleaned", zap.String("dir", d), zap.Int("removed", n))
		}
	}

	printSummary(cmd, batch.Summarize(results, validated), time.Since(startTime))
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeOutputs writes the report, summary payload and optional full import.
// It returns the written paths.
func writeOutputs(fm *utils.FileManager, batchID string, paths []string, results []batch.FileResult, validated []validation.Result, overrides map[string]validation.Overrides) ([]string, error) {
	cfg := appConfig
	format := cfg.Output.NameFormat
	if !strings.Contains(format, "{type}") {
		format += "_{type}"
	}
	name := func(kind, ext string) string {
		return fm.GenerateOutputFileName(format, ext, map[string]string{"type": kind, "batch": batchID})
	}

	var written []string
	write := func(fileName string, data []byte) error {
		p, err := fm.WriteOutputFile(fileName, data)
		if err != nil {
			return err
		}
		written = append(written, p)
		return nil
	}

	var report bytes.Buffer
	if err := writeJSON(&report, buildReport(results, validated), cfg.Output.Indent); err != nil {
		return nil, err
	}
	if err := write(name("report", ".json"), report.Bytes()); err != nil {
		return nil, err
	}

	cards := make([]*scorecard.ParsedScorecard, len(results))
	for i, r := range results {
		cards[i] = r.Scorecard
	}
	summary, err := payload.BuildSummaryImport(cards, validated)
	if err != nil {
		return nil, err
	}
	data, err := summary.JSON(cfg.Output.Indent)
	if err != nil {
		return nil, err
	}
	if err := write(name("summary", ".json"), data); err != nil {
		return nil, err
	}
	zap.L().Info("summary payload written", zap.Int("scorecards", len(summary.Scorecards)))

	if !fullImport {
		return written, nil
	}

	var files []payload.File
	for i, v := range validated {
		if !v.IsValid {
			continue
		}
		b, err := os.ReadFile(paths[i])
		if err != nil {
			return nil, eris.Wrapf(err, "cmd: read %s", paths[i])
		}
		files = append(files, payload.File{Filename: v.Filename, Data: b})
	}
	if len(files) == 0 {
		zap.L().Info("full import skipped, no valid files")
		return written, nil
	}

	body, contentType, err := payload.BuildFullImport(files, validated, overrides)
	if err != nil {
		return nil, err
	}
	if err := write(name("full", ".multipart"), body); err != nil {
		return nil, err
	}
	zap.L().Info("full import written", zap.Int("files", len(files)), zap.String("content_type", contentType))
	return written, nil
}

func printResults(cmd *cobra.Command, results []batch.FileResult, validated []validation.Result) {
	out := cmd.OutOrStdout()
	for i, r := range results {
		if r.Status != batch.StatusSuccess {
			fmt.Fprintf(out, "  ✗ %s: %s\n", r.Filename, r.Error())
			continue
		}
		v := validated[i]
		mark := "✓"
		if !v.IsValid {
			mark = "✗"
		} else if len(v.Warnings) > 0 {
			mark = "!"
		}
		fmt.Fprintf(out, "  %s %s  %s  %s  %s\n", mark, r.Filename,
			describeFacility(v), describePeriod(v), describeScore(r.Scorecard))
		for _, e := range v.Errors {
			fmt.Fprintf(out, "      error:   %s\n", e)
		}
		for _, w := range v.Warnings {
			fmt.Fprintf(out, "      warning: %s\n", w)
		}
	}
}

func printSummary(cmd *cobra.Command, s batch.Summary, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:   %d\n", s.Total)
	fmt.Fprintf(out, "Parsed:        %d\n", s.Parsed)
	fmt.Fprintf(out, "Failed:        %d\n", s.Failed)
	fmt.Fprintf(out, "Valid:         %d\n", s.Valid)
	fmt.Fprintf(out, "Needs review:  %d\n", s.NeedsReview)
	fmt.Fprintf(out, "Duplicates:    %d\n", s.Duplicates)
	fmt.Fprintf(out, "Time elapsed:  %s\n", elapsed)
}
