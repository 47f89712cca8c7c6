// =============================================================================
// Scorecard Import - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a batch run:
//   - Workbook discovery in the input directory
//   - Archival of imported workbooks and generated outputs
//   - Output file naming
//   - Plain-text error and summary logs for reviewers
//
// ARCHIVAL STRATEGY:
//   - Workbooks are moved to input_archive only when they validated cleanly
//   - Invalid or failed workbooks stay in the input directory for review
//   - Generated reports and payloads are copied to output_archive
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a batch run.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/03/15/march.xlsx
	UseTimestampSubdirs bool

	// Now is the clock used for archive paths and names.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		Now:              time.Now,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "utils: create directory %s", dir)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching any of
// the glob patterns.
//
// PARAMETERS:
//   - patterns: Glob patterns, e.g. "*.xlsx". Defaults to "*.xlsx" when none.
//
// RETURNS:
//   - Matching file paths, sorted and without duplicates. Directories and
//     Excel lock files ("~$march.xlsx") are skipped.
//   - An error if a pattern is malformed.
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.xlsx"}
	}

	seen := make(map[string]bool)
	var result []string
	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, eris.Wrapf(err, "utils: scan input directory for %q", pattern)
		}
		for _, file := range files {
			if seen[file] || strings.HasPrefix(filepath.Base(file), "~$") {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input workbook to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails. The original is left in place.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.archivePath(fm.InputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", eris.Wrap(err, "utils: create archive directory")
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", eris.Wrap(err, "utils: copy file to archive")
		}
		if err := os.Remove(filePath); err != nil {
			return "", eris.Wrap(err, "utils: remove original file")
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies an output file to the archive directory. The
// output stays where it is.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	archivePath := fm.archivePath(fm.OutputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", eris.Wrap(err, "utils: create archive directory")
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", eris.Wrap(err, "utils: copy file to archive")
	}
	return archivePath, nil
}

func (fm *FileManager) archivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)
	if !fm.UseTimestampSubdirs {
		return filepath.Join(archiveDir, fileName)
	}
	now := fm.now()
	return filepath.Join(archiveDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
		fileName)
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the walk fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, eris.Wrap(err, "utils: clean archives")
	}
	return removed, nil
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// GenerateOutputFileName builds an output file name.
//
// PARAMETERS:
//   - format: The name pattern. Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       any key of params, e.g. {type}
//   - ext: The extension to ensure, e.g. ".json".
//   - params: Extra placeholder values.
//
// EXAMPLE:
//   format: "{timestamp}_{type}_{uuid}", ext ".json", params {"type": "summary"}
//   output: "20240315_143022_summary_a1b2c3d4-e5f6-7890-abcd-ef1234567890.json"
func (fm *FileManager) GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := fm.now()

	pairs := []string{
		"{uuid}", uuid.NewString(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", params[k])
	}

	result := strings.NewReplacer(pairs...).Replace(format)
	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// WriteOutputFile writes data to name inside the output directory.
func (fm *FileManager) WriteOutputFile(name string, data []byte) (string, error) {
	path := filepath.Join(fm.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", eris.Wrapf(err, "utils: write %s", path)
	}
	return path, nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one validation issue or parse failure.
type ErrorLogEntry struct {
	Timestamp time.Time
	FileName  string
	Severity  string
	Rule      string
	Message   string
	Section   string
	RowNumber int
}

// WriteErrorLog writes error entries to a log file in outputDir.
//
// RETURNS:
//   - The path to the error log, or "" when there are no entries.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", eris.Wrap(err, "utils: create error log")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	writeErrorLog(w, entries, now)
	if err := w.Flush(); err != nil {
		return "", eris.Wrap(err, "utils: flush error log")
	}
	return logPath, nil
}

func writeErrorLog(w io.Writer, entries []ErrorLogEntry, now time.Time) {
	fmt.Fprintf(w, "Scorecard Import - Error Log\n"+
		"Generated: %s\n"+
		"Total Entries: %d\n"+
		"%s\n\n", now.Format("2006-01-02 15:04:05"), len(entries), rule)

	for i, e := range entries {
		fmt.Fprintf(w, "Entry #%d\n"+
			"  Timestamp:  %s\n"+
			"  File:       %s\n"+
			"  Severity:   %s\n"+
			"  Rule:       %s\n"+
			"  Message:    %s\n",
			i+1, e.Timestamp.Format("2006-01-02 15:04:05"), e.FileName, e.Severity, e.Rule, e.Message)
		if e.Section != "" {
			fmt.Fprintf(w, "  Section:    %s\n", e.Section)
		}
		if e.RowNumber > 0 {
			fmt.Fprintf(w, "  Row Number: %d\n", e.RowNumber)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime   time.Time
	EndTime     time.Time
	BatchID     string
	TotalFiles  int
	Parsed      int
	Failed      int
	Valid       int
	Invalid     int
	NeedsReview int
	Duplicates  int

	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo describes a parsed workbook.
type ProcessedFileInfo struct {
	InputFile   string
	ArchivePath string
	Format      string
	Facility    string
	Period      string
	Score       string
	Valid       bool
	ProcessTime time.Duration
}

// FailedFileInfo describes a workbook that could not be parsed.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a log file in outputDir.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", eris.Wrap(err, "utils: create summary file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	writeSummary(w, summary)
	if err := w.Flush(); err != nil {
		return "", eris.Wrap(err, "utils: flush summary file")
	}
	return summaryPath, nil
}

const rule = "================================================================================"

func writeSummary(w io.Writer, s ProcessingSummary) {
	fmt.Fprintf(w, "Scorecard Import - Processing Summary\n"+
		"%s\n\n"+
		"Run Information:\n"+
		"  Batch ID:   %s\n"+
		"  Start Time: %s\n"+
		"  End Time:   %s\n"+
		"  Duration:   %s\n\n"+
		"Statistics:\n"+
		"  Total Files:  %d\n"+
		"  Parsed:       %d\n"+
		"  Failed:       %d\n"+
		"  Valid:        %d\n"+
		"  Invalid:      %d\n"+
		"  Needs Review: %d\n"+
		"  Duplicates:   %d\n\n",
		rule, s.BatchID,
		s.StartTime.Format("2006-01-02 15:04:05"),
		s.EndTime.Format("2006-01-02 15:04:05"),
		s.EndTime.Sub(s.StartTime).String(),
		s.TotalFiles, s.Parsed, s.Failed, s.Valid, s.Invalid, s.NeedsReview, s.Duplicates)

	if len(s.ProcessedFiles) > 0 {
		fmt.Fprintf(w, "Parsed Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, pf := range s.ProcessedFiles {
			status := "valid"
			if !pf.Valid {
				status = "needs attention"
			}
			fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
			if pf.ArchivePath != "" {
				fmt.Fprintf(w, "  Archived:     %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(w, "  Format:       %s\n", pf.Format)
			fmt.Fprintf(w, "  Facility:     %s\n", pf.Facility)
			fmt.Fprintf(w, "  Period:       %s\n", pf.Period)
			fmt.Fprintf(w, "  Score:        %s\n", pf.Score)
			fmt.Fprintf(w, "  Status:       %s\n", status)
			fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(s.FailedFilesList) > 0 {
		fmt.Fprintf(w, "Failed Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, ff := range s.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
