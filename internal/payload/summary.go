// =============================================================================
// Scorecard Import - Downstream Payloads
// =============================================================================
//
// This module produces the request bodies accepted by the scorecard backend.
// The transport itself lives outside this repository; these builders only
// shape the data.
//
// SUMMARY IMPORT (application/json):
//
//   {
//     "scorecards": [
//       {
//         "facilityId": "F001",
//         "facilityName": "Sunrise Manor",
//         "month": 3,
//         "year": 2024,
//         "format": "snf",
//         "totalScore": 560,
//         "totalMaxPoints": 700,
//         "scorePercentage": 80,
//         "sections": [ { "name": "Change of Condition", ... } ],
//         "sourceFilename": "march.xlsx"
//       }
//     ]
//   }
//
// FULL IMPORT (multipart/form-data):
//   - one "files" part per workbook
//   - "facilityOverrides": JSON map of filename -> facility id
//   - "dateOverrides":     JSON map of filename -> {month, year}
//
// Only files whose validation result is valid are included.
//
// =============================================================================

package payload

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
)

// =============================================================================
// SUMMARY IMPORT
// =============================================================================

// SummaryImport is the body of a summary import request.
type SummaryImport struct {
	Scorecards []SummaryRecord `json:"scorecards"`
}

// SummaryRecord is one validated scorecard with resolved facility and period.
type SummaryRecord struct {
	FacilityID      string                   `json:"facilityId,omitempty"`
	FacilityName    string                   `json:"facilityName"`
	Month           int                      `json:"month"`
	Year            *int                     `json:"year"`
	Format          scorecard.Format         `json:"format"`
	TotalScore      float64                  `json:"totalScore"`
	TotalMaxPoints  float64                  `json:"totalMaxPoints"`
	ScorePercentage float64                  `json:"scorePercentage"`
	ScoreOverride   bool                     `json:"scoreOverride,omitempty"`
	ScoreMismatch   *scorecard.ScoreMismatch `json:"scoreMismatch,omitempty"`
	Sections        []SectionSummary         `json:"sections"`
	DuplicateGroup  string                   `json:"duplicateGroup,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty"`
	SourceFilename  string                   `json:"sourceFilename"`
}

// SectionSummary is the per-section part of a summary record. Items are
// not sent in a summary import.
type SectionSummary struct {
	Name         string   `json:"name"`
	PointsEarned float64  `json:"pointsEarned"`
	MaxPoints    float64  `json:"maxPoints"`
	Percentage   float64  `json:"percentage"`
	Declared     *float64 `json:"declaredPercentage,omitempty"`
}

// BuildSummaryImport builds a summary import from parallel slices of
// scorecards and their validation results. Invalid files and nil cards are
// skipped.
//
// PARAMETERS:
//   - cards: Scored cards; entries for failed files may be nil.
//   - results: Validation results, same length and order as cards.
//
// RETURNS:
//   - The payload. Scorecards is never nil, so it encodes as [].
//   - An error if the slices differ in length.
func BuildSummaryImport(cards []*scorecard.ParsedScorecard, results []validation.Result) (SummaryImport, error) {
	if len(cards) != len(results) {
		return SummaryImport{}, eris.Errorf("payload: %d scorecards but %d validation results", len(cards), len(results))
	}

	out := SummaryImport{Scorecards: []SummaryRecord{}}
	for i, card := range cards {
		r := results[i]
		if card == nil || !r.IsValid || r.Month == nil {
			continue
		}
		out.Scorecards = append(out.Scorecards, summaryRecord(card, r))
	}
	return out, nil
}

func summaryRecord(card *scorecard.ParsedScorecard, r validation.Result) SummaryRecord {
	rec := SummaryRecord{
		FacilityID:      r.FacilityID,
		FacilityName:    r.FacilityName,
		Month:           *r.Month,
		Year:            r.Year,
		Format:          card.Format,
		TotalScore:      card.TotalScore,
		TotalMaxPoints:  card.TotalMaxPoints,
		ScorePercentage: card.ScorePercentage,
		ScoreOverride:   card.ScoreOverride,
		ScoreMismatch:   card.ScoreMismatch,
		Sections:        make([]SectionSummary, 0, len(card.Sections)),
		DuplicateGroup:  r.DuplicateGroup,
		Warnings:        r.Warnings,
		SourceFilename:  card.SourceFilename,
	}
	for _, s := range card.Sections {
		rec.Sections = append(rec.Sections, SectionSummary{
			Name:         s.Name,
			PointsEarned: s.PointsEarned,
			MaxPoints:    s.MaxPoints,
			Percentage:   s.Percentage,
			Declared:     s.DeclaredPercentage,
		})
	}
	return rec
}

// JSON encodes the payload. A non-empty indent pretty-prints it.
func (s SummaryImport) JSON(indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(s); err != nil {
		return nil, eris.Wrap(err, "payload: encode summary import")
	}
	return buf.Bytes(), nil
}
