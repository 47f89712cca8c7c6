// =============================================================================
// Scorecard Import - Shared Types
// =============================================================================
//
// This package contains the value types shared by every stage of the import
// pipeline to avoid import cycles. Types defined here are used by:
//   - parser      (produces ParsedScorecard)
//   - scoring     (derives totals)
//   - validation  (checks and reconciles)
//   - batch       (carries per-file results)
//   - payload     (serialises for the backend)
//
// All values are transient and caller-owned. Nothing here is shared between
// files in a batch.
//
// =============================================================================

package scorecard

// =============================================================================
// FORMAT
// =============================================================================

// Format identifies the layout family of a scorecard workbook.
type Format string

const (
	// FormatSNF is the 7-system clinical audit workbook (700 points).
	FormatSNF Format = "snf"

	// FormatKEVMini is the KEV Mini workbook: a titled cover sheet plus
	// 4 category sheets (~750 points).
	FormatKEVMini Format = "kev-mini"

	// FormatKEVHybrid is the KEV Hybrid workbook: a generic cover sheet plus
	// 4 category sheets (~370 points).
	FormatKEVHybrid Format = "kev-hybrid"

	// FormatUnknown means no detection rule matched.
	FormatUnknown Format = "unknown"
)

// ExpectedSections returns how many sections a complete workbook of this
// format contains. Unknown formats expect none.
func (f Format) ExpectedSections() int {
	switch f {
	case FormatSNF:
		return 7
	case FormatKEVMini, FormatKEVHybrid:
		return 4
	default:
		return 0
	}
}

// IsKEV reports whether the format uses a declaring cover sheet.
func (f Format) IsKEV() bool {
	return f == FormatKEVMini || f == FormatKEVHybrid
}

// =============================================================================
// PARSED SCORECARD
// =============================================================================

// ParsedScorecard is the extraction result for one workbook.
type ParsedScorecard struct {
	// Format is the detected layout family.
	Format Format `json:"format"`

	// FacilityName is nil when no labeled facility cell was found and no
	// option supplied one. A name is never fabricated.
	FacilityName *string `json:"facilityName"`

	// Month is 1-12, or nil when unresolved.
	Month *int `json:"month"`

	// Year is nil when unresolved.
	Year *int `json:"year"`

	// YearDefaulted is true when Year came from Options rather than the sheet.
	YearDefaulted bool `json:"yearDefaulted,omitempty"`

	// Sections holds one entry per clinical system (SNF) or quality
	// category (KEV), in workbook order.
	Sections []SectionResult `json:"sections"`

	// TotalScore, TotalMaxPoints and ScorePercentage are derived by the
	// scoring package. They are zero until scoring.Compute runs.
	TotalScore      float64 `json:"totalScore"`
	TotalMaxPoints  float64 `json:"totalMaxPoints"`
	ScorePercentage float64 `json:"scorePercentage"`

	// DeclaredOverall is the overall percentage stated on a KEV cover sheet.
	DeclaredOverall *float64 `json:"declaredOverall,omitempty"`

	// ScoreOverride is true when the declared overall replaced the
	// bottom-up percentage.
	ScoreOverride bool `json:"scoreOverride,omitempty"`

	// ScoreMismatch is set when the declared overall and the average of the
	// item-derived category percentages diverge by more than the mismatch
	// threshold.
	ScoreMismatch *ScoreMismatch `json:"scoreMismatch,omitempty"`

	// SourceFilename is kept for traceability and duplicate keys.
	SourceFilename string `json:"sourceFilename"`
}

// ScoreMismatch records a disagreement between a declared cover-sheet total
// and the category average computed from item rows. It is informational and
// meant for a reviewer.
type ScoreMismatch struct {
	Overall     float64 `json:"overall"`
	CategoryAvg float64 `json:"categoryAvg"`
	Difference  float64 `json:"difference"`
}

// SectionResult is one clinical system or quality category.
type SectionResult struct {
	Name      string      `json:"name"`
	SheetName string      `json:"sheetName"`
	Items     []AuditItem `json:"items"`

	// PointsEarned is the sum of item points.
	PointsEarned float64 `json:"pointsEarned"`
	MaxPoints    float64 `json:"maxPoints"`

	// Percentage is PointsEarned / MaxPoints * 100.
	Percentage float64 `json:"percentage"`

	// DeclaredPercentage is the cover-sheet value for this category, if any.
	DeclaredPercentage *float64 `json:"declaredPercentage,omitempty"`

	// DeclaredGap is the distance between DeclaredPercentage and Percentage
	// when it exceeds the mismatch threshold; nil otherwise.
	DeclaredGap *float64 `json:"declaredGap,omitempty"`

	// DeclaredTotal is a "Total" row found beneath the item table, if any.
	DeclaredTotal *float64 `json:"declaredTotal,omitempty"`
}

// AuditItem is one scored criterion.
type AuditItem struct {
	// ItemNumber may carry an alphabetic suffix, e.g. "2a".
	ItemNumber   string  `json:"itemNumber"`
	CriteriaText string  `json:"criteriaText"`
	MaxPoints    float64 `json:"maxPoints"`

	// ChartsMet is nil for an unscored item.
	ChartsMet  *int   `json:"chartsMet"`
	SampleSize *int   `json:"sampleSize"`
	Notes      string `json:"notes,omitempty"`

	// Binary marks a yes/no criterion (SampleSize fixed at 1).
	Binary bool `json:"binary,omitempty"`

	// FractionalCount is set when charts met or sample size held a
	// non-whole number. The offending count is left nil.
	FractionalCount bool `json:"fractionalCount,omitempty"`

	// PointsEarned is derived by the scoring package.
	PointsEarned float64 `json:"pointsEarned"`

	// Row is the 1-based sheet row the item was read from.
	Row int `json:"row"`
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options carries caller-supplied values used when extraction cannot find
// them on-sheet.
type Options struct {
	FacilityName *string `json:"facilityName,omitempty" validate:"omitempty,min=1"`
	Month        *int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,min=2000,max=2100"`
}

// =============================================================================
// POINTER HELPERS
// =============================================================================

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
