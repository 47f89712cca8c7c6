package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/scorecard-import/internal/batch"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
	"github.com/ginjaninja78/scorecard-import/pkg/utils"
)

// fileReport is one entry of the JSON validation report.
type fileReport struct {
	Filename   string                     `json:"filename"`
	Status     batch.Status               `json:"status"`
	Error      string                     `json:"error,omitempty"`
	Scorecard  *scorecard.ParsedScorecard `json:"scorecard,omitempty"`
	Validation *validation.Result         `json:"validation,omitempty"`
}

// buildReport joins parse results with their validation results. validated
// may be nil when validation was not run.
func buildReport(results []batch.FileResult, validated []validation.Result) []fileReport {
	out := make([]fileReport, len(results))
	for i, r := range results {
		out[i] = fileReport{
			Filename:  r.Filename,
			Status:    r.Status,
			Error:     r.Error(),
			Scorecard: r.Scorecard,
		}
		if i < len(validated) {
			v := validated[i]
			out[i].Validation = &v
		}
	}
	return out
}

func writeJSON(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "cmd: encode json")
	}
	return nil
}

// errorLogEntries flattens every validation issue into log entries.
func errorLogEntries(validated []validation.Result, now time.Time) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, v := range validated {
		for _, issue := range v.Issues {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: now,
				FileName:  v.Filename,
				Severity:  string(issue.Severity),
				Rule:      string(issue.Rule),
				Message:   issue.Message,
				Section:   issue.Section,
				RowNumber: issue.Row,
			})
		}
	}
	return entries
}

// processingSummary builds the plain-text summary data. archived maps input
// filename to its archive path.
func processingSummary(start, end time.Time, batchID string, results []batch.FileResult, validated []validation.Result, archived map[string]string) utils.ProcessingSummary {
	counts := batch.Summarize(results, validated)
	s := utils.ProcessingSummary{
		StartTime:   start,
		EndTime:     end,
		BatchID:     batchID,
		TotalFiles:  counts.Total,
		Parsed:      counts.Parsed,
		Failed:      counts.Failed,
		Valid:       counts.Valid,
		Invalid:     counts.Invalid,
		NeedsReview: counts.NeedsReview,
		Duplicates:  counts.Duplicates,
	}

	for i, r := range results {
		if r.Status != batch.StatusSuccess {
			s.FailedFilesList = append(s.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.Filename,
				ErrorMessage: r.Error(),
			})
			continue
		}
		v := validated[i]
		s.ProcessedFiles = append(s.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   r.Filename,
			ArchivePath: archived[r.Filename],
			Format:      string(r.Scorecard.Format),
			Facility:    describeFacility(v),
			Period:      describePeriod(v),
			Score:       describeScore(r.Scorecard),
			Valid:       v.IsValid,
			ProcessTime: r.Duration,
		})
	}
	return s
}

func describeFacility(v validation.Result) string {
	switch {
	case v.FacilityName == "":
		return "(unresolved)"
	case v.FacilityID != "":
		return fmt.Sprintf("%s [%s]", v.FacilityName, v.FacilityID)
	default:
		return v.FacilityName
	}
}

func describePeriod(v validation.Result) string {
	switch {
	case v.Month == nil:
		return "(unresolved)"
	case v.Year == nil:
		return fmt.Sprintf("month %d, year unknown", *v.Month)
	default:
		return fmt.Sprintf("%04d-%02d", *v.Year, *v.Month)
	}
}

func describeScore(c *scorecard.ParsedScorecard) string {
	s := fmt.Sprintf("%.1f / %.1f (%.1f%%)", c.TotalScore, c.TotalMaxPoints, c.ScorePercentage)
	if c.ScoreOverride {
		s += " declared"
	}
	return s
}
