// =============================================================================
// Scorecard Import - Format Detection
// =============================================================================
//
// The format is decided from sheet names alone, before any cell is read.
// Rules are evaluated in this order and the first match wins:
//
//   1. kev-mini   : a sheet named like "KEV Mini Cover Sheet"
//   2. kev-hybrid : a "Cover Sheet" plus an "Abuse & Grievances" sheet
//   3. snf        : a "Clinical Systems Overview" sheet or a numbered
//                   system sheet such as "1. Change of Condition"
//   4. unknown    : anything else
//
// =============================================================================

package parser

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
)

// =============================================================================
// PATTERNS
// =============================================================================

// Sheet-name patterns. All matching is case-insensitive on trimmed names.
var (
	kevMiniCoverTokens = []string{"kev mini", "cover"}
	kevHybridCover     = "cover sheet"
	kevHybridMarker    = "abuse & grievances"
	snfOverview        = "clinical systems overview"

	// numberedSystemPattern matches SNF system sheets such as
	// "1. Change of Condition".
	numberedSystemPattern = regexp.MustCompile(`^\d+\.\s*\S`)
)

// =============================================================================
// DETECTION RULES
// =============================================================================

// detectionRule is one entry of the ordered detection table.
type detectionRule struct {
	format  scorecard.Format
	matches func(names []string) bool
}

// detectionRules is evaluated in order; the first match wins. The KEV Mini
// rule runs before the SNF rule because a Mini workbook may also carry
// numbered sheets.
var detectionRules = []detectionRule{
	{scorecard.FormatKEVMini, func(names []string) bool {
		return anySheet(names, func(n string) bool { return containsAll(n, kevMiniCoverTokens...) })
	}},
	{scorecard.FormatKEVHybrid, func(names []string) bool {
		return anySheet(names, func(n string) bool { return strings.Contains(n, kevHybridCover) }) &&
			anySheet(names, func(n string) bool { return strings.Contains(n, kevHybridMarker) })
	}},
	{scorecard.FormatSNF, func(names []string) bool {
		return anySheet(names, func(n string) bool {
			return strings.Contains(n, snfOverview) || numberedSystemPattern.MatchString(n)
		})
	}},
}

// DetectFormat classifies a workbook from its sheet names alone.
func DetectFormat(sheetNames []string) scorecard.Format {
	names := make([]string, len(sheetNames))
	for i, n := range sheetNames {
		names[i] = normalize(n)
	}

	for _, rule := range detectionRules {
		if rule.matches(names) {
			return rule.format
		}
	}
	return scorecard.FormatUnknown
}

func anySheet(names []string, pred func(string) bool) bool {
	for _, n := range names {
		if pred(n) {
			return true
		}
	}
	return false
}

// =============================================================================
// SHEET CLASSIFICATION
// =============================================================================

// isSystemSheet reports whether a sheet name carries the numbered SNF prefix.
func isSystemSheet(name string) bool {
	return numberedSystemPattern.MatchString(normalize(name))
}

// isKEVCover reports whether a sheet is the cover sheet of the given format.
func isKEVCover(format scorecard.Format, name string) bool {
	n := normalize(name)
	if format == scorecard.FormatKEVMini {
		return containsAll(n, kevMiniCoverTokens...)
	}
	return strings.Contains(n, kevHybridCover)
}
