// =============================================================================
// Scorecard Import - Sheet Scanning Utilities
// =============================================================================
//
// Scorecards are hand-edited, so nothing is at a fixed address. These helpers
// locate values by label instead of by cell reference:
//
//   - findLabeledValue: "Facility Name: | Sunrise Manor" style pairs
//   - findHeaderRow:    the row that starts an item table
//   - parseMonth/Year:  tolerant month and year recognition
//   - parsePercent:     0.8, 80 and "80%" all mean eighty percent
//
// Every helper returns a "not found" value rather than an error.
//
// =============================================================================

package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

const (
	// metadataScanRows bounds the facility label search.
	metadataScanRows = 10

	// dateScanRows bounds the month label search on SNF sheets.
	dateScanRows = 5

	// headerScanRows bounds the item-table header search.
	headerScanRows = 15

	// minDateSerial is 2000-01-01 as an Excel serial day number.
	minDateSerial = 36526
)

var (
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})\s*[/\-.]\s*(20\d{2})$`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// monthNames maps full names and common abbreviations to month numbers.
var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may": 5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// =============================================================================
// TEXT
// =============================================================================

// normalize lower-cases, trims and collapses internal whitespace.
func normalize(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// =============================================================================
// LABEL SEARCH
// =============================================================================

// findLabeledValue scans the first maxRows rows for a text cell whose
// normalized content satisfies match, and returns the value that belongs to
// it: the first non-empty cell to its right, or the text after a colon when
// label and value share one cell ("Facility: Sunrise Manor").
//
// RETURNS:
//   - The value cell and true, or an Empty cell and false.
func findLabeledValue(sheet *workbook.Sheet, maxRows int, match func(string) bool) (workbook.Cell, bool) {
	if sheet == nil {
		return workbook.Cell{}, false
	}

	for r := 0; r < maxRows && r < sheet.RowCount(); r++ {
		row := sheet.Row(r)
		for c, cell := range row {
			if cell.Kind != workbook.Text {
				continue
			}
			label := normalize(cell.Raw)
			if label == "" || !match(label) {
				continue
			}

			if _, after, ok := strings.Cut(cell.Raw, ":"); ok && strings.TrimSpace(after) != "" {
				return workbook.Cell{Kind: workbook.Text, Raw: strings.TrimSpace(after)}, true
			}
			for next := c + 1; next < len(row); next++ {
				if !row[next].IsEmpty() {
					return row[next], true
				}
			}
		}
	}
	return workbook.Cell{}, false
}

func isFacilityLabel(s string) bool {
	return strings.Contains(s, "facility") && strings.Contains(s, "name")
}

// isMonthLabel matches "Month", "Audit Month:" or "Month/Year" but not
// "Monthly Audit".
func isMonthLabel(s string) bool {
	return hasWord(s, "month")
}

func isYearLabel(s string) bool {
	return hasWord(s, "year")
}

// hasWord reports whether w appears in s as a whole word.
func hasWord(s, w string) bool {
	for _, token := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if token == w {
			return true
		}
	}
	return false
}

func isReviewPeriodLabel(s string) bool {
	return strings.Contains(s, "review period")
}

// findFacilityName returns the trimmed facility name from the first sheet
// that labels one.
func findFacilityName(sheets ...*workbook.Sheet) *string {
	for _, sheet := range sheets {
		if v, ok := findLabeledValue(sheet, metadataScanRows, isFacilityLabel); ok {
			name := strings.TrimSpace(v.String())
			if name != "" {
				return &name
			}
		}
	}
	return nil
}

// =============================================================================
// HEADER SEARCH
// =============================================================================

// findHeaderRow returns the 0-based index of the first row, within the first
// 15, holding a cell that mentions "category" or both "max" and "point".
// It returns -1 when there is none.
func findHeaderRow(sheet *workbook.Sheet) int {
	for r := 0; r < headerScanRows && r < sheet.RowCount(); r++ {
		for _, cell := range sheet.Row(r) {
			if cell.Kind != workbook.Text {
				continue
			}
			text := normalize(cell.Raw)
			if strings.Contains(text, "category") || containsAll(text, "max", "point") {
				return r
			}
		}
	}
	return -1
}

// =============================================================================
// DATES
// =============================================================================

// parseMonth reads a month from a cell. Accepted forms: an integer 1-12, a
// month name or abbreviation anywhere in the text ("March 2024", "Mar-24"),
// "03/2024", or an Excel date serial.
func parseMonth(cell workbook.Cell) *int {
	if cell.IsEmpty() {
		return nil
	}

	if v, ok := cell.Float(); ok {
		if v == math.Trunc(v) && v >= 1 && v <= 12 {
			m := int(v)
			return &m
		}
		if t, ok := dateFromSerial(v); ok {
			m := int(t.Month())
			return &m
		}
		return nil
	}

	text := strings.TrimSpace(cell.String())
	if m := monthYearPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 12 {
			return &n
		}
	}

	for _, token := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if n, ok := monthNames[token]; ok {
			return &n
		}
	}
	return nil
}

// parseYear reads a four-digit 20xx year from a cell, or the year of an
// Excel date serial.
func parseYear(cell workbook.Cell) *int {
	if cell.IsEmpty() {
		return nil
	}

	if v, ok := cell.Float(); ok {
		if v == math.Trunc(v) && v >= 2000 && v <= 2099 {
			y := int(v)
			return &y
		}
		if t, ok := dateFromSerial(v); ok {
			y := t.Year()
			return &y
		}
		return nil
	}

	if m := yearPattern.FindStringSubmatch(cell.String()); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return &y
		}
	}
	return nil
}

// dateFromSerial converts an Excel serial day number from this century.
func dateFromSerial(v float64) (time.Time, bool) {
	if v < minDateSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// =============================================================================
// NUMBERS
// =============================================================================

// parseCount reads a whole count. A numeric value with a fractional part is
// not a count: it yields nil and fractional is true so the caller can flag
// it rather than round it.
func parseCount(cell workbook.Cell) (n *int, fractional bool) {
	v, ok := cell.Float()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	if v != math.Trunc(v) {
		return nil, true
	}
	c := int(v)
	return &c, false
}

// parsePercent reads a percentage. Fractions up to 1 are scaled (0.8 -> 80),
// "80%" and 80 are taken as-is.
func parsePercent(cell workbook.Cell) (float64, bool) {
	if cell.IsEmpty() {
		return 0, false
	}

	if cell.Kind == workbook.Text {
		text := strings.TrimSpace(cell.Raw)
		if strings.HasSuffix(text, "%") {
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(text, "%")), 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}

	v, ok := cell.Float()
	if !ok || v < 0 {
		return 0, false
	}
	if v <= 1 {
		return v * 100, true
	}
	return v, true
}

// isPercentText reports whether a cell holds explicit percent text.
func isPercentText(cell workbook.Cell) bool {
	return cell.Kind == workbook.Text && strings.HasSuffix(strings.TrimSpace(cell.Raw), "%")
}
