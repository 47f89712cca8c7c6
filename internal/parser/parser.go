// =============================================================================
// Scorecard Import - Parser Entry Point
// =============================================================================
//
// Parse runs the per-file pipeline:
//
//   bytes -> workbook.Read -> DetectFormat -> Extractor -> options fallback
//         -> scoring.Compute
//
// ERROR HANDLING:
//   Only two conditions are errors: the bytes are not a spreadsheet
//   (UnreadableFileError) or no detection rule matched (UnknownFormatError).
//   Missing facility or date is NOT an error here; the card carries nil
//   values and validation turns them into override requests.
//
// =============================================================================

package parser

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/scoring"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

// Extractor turns a workbook of one format into a ParsedScorecard with raw
// item values. Scores are filled in afterwards by the scoring package.
type Extractor interface {
	Format() scorecard.Format
	Extract(wb *workbook.Workbook, opts scorecard.Options) (*scorecard.ParsedScorecard, error)
}

// extractors is the read-only registry keyed by detected format.
var extractors = map[scorecard.Format]Extractor{
	scorecard.FormatSNF:       snfExtractor{},
	scorecard.FormatKEVMini:   kevExtractor{format: scorecard.FormatKEVMini},
	scorecard.FormatKEVHybrid: kevExtractor{format: scorecard.FormatKEVHybrid},
}

// ExtractorFor returns the extractor registered for a format.
func ExtractorFor(format scorecard.Format) (Extractor, bool) {
	e, ok := extractors[format]
	return e, ok
}

// Parse parses one scorecard file held in memory.
//
// PARAMETERS:
//   - filename: Used for error messages and traceability only.
//   - data: The raw file bytes.
//   - opts: Values used when the workbook does not state them.
//
// RETURNS:
//   - The scored card.
//   - *scorecard.UnreadableFileError, *scorecard.UnknownFormatError, or an
//     options validation error.
func Parse(filename string, data []byte, opts scorecard.Options) (*scorecard.ParsedScorecard, error) {
	return ParseWithThreshold(filename, data, opts, scoring.DefaultMismatchThreshold)
}

// ParseWithThreshold is Parse with an explicit declared-total mismatch
// threshold.
func ParseWithThreshold(filename string, data []byte, opts scorecard.Options, threshold float64) (*scorecard.ParsedScorecard, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	wb, err := workbook.Read(data)
	if err != nil {
		return nil, &scorecard.UnreadableFileError{Filename: filename, Err: err}
	}

	format := DetectFormat(wb.SheetNames())
	extractor, ok := ExtractorFor(format)
	if !ok {
		return nil, &scorecard.UnknownFormatError{Filename: filename, SheetNames: wb.SheetNames()}
	}

	card, err := extractor.Extract(wb, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: extract %s from %q", format, filename)
	}
	card.SourceFilename = filename
	applyOptions(card, opts)

	zap.L().Debug("scorecard extracted",
		zap.String("filename", filename),
		zap.String("format", string(format)),
		zap.Int("sections", len(card.Sections)),
		zap.Bool("facility_found", card.FacilityName != nil),
		zap.Bool("month_found", card.Month != nil),
	)

	return scoring.ComputeWithThreshold(card, threshold), nil
}

// applyOptions fills values extraction left nil. Values read from the sheet
// are never replaced here.
func applyOptions(card *scorecard.ParsedScorecard, opts scorecard.Options) {
	if card.FacilityName == nil && opts.FacilityName != nil {
		card.FacilityName = scorecard.String(*opts.FacilityName)
	}
	if card.Month == nil && opts.Month != nil {
		card.Month = scorecard.Int(*opts.Month)
	}
	if card.Year == nil && opts.Year != nil {
		card.Year = scorecard.Int(*opts.Year)
		card.YearDefaulted = true
	}
}
