// =============================================================================
// Scorecard Import - KEV Extractor
// =============================================================================
//
// KEV workbooks (Mini and Hybrid) share one layout:
//
//   - a cover sheet with facility name, review period, and the declared
//     overall and per-category percentages
//   - one sheet per quality category with an item table
//
// Items are either sampled ("3 of 5 charts met") or binary yes/no criteria.
// A binary item is recognised from its sample-size cell: text such as
// "Y=1 / N=0", or a literal 1 on an item worth 5 points or more.
//
// =============================================================================

package parser

import (
	"strings"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

// binaryMinPoints is the smallest max-points value for which a bare sample
// size of 1 marks a yes/no criterion.
const binaryMinPoints = 5

// ancillarySheets never hold category items.
var ancillarySheets = []string{"instruction", "lookup", "reference", "change log"}

var (
	yesWords = map[string]bool{"y": true, "yes": true, "met": true, "true": true, "x": true}
	noWords  = map[string]bool{"n": true, "no": true, "not met": true, "unmet": true, "false": true}
)

// kevExtractor reads KEV Mini and KEV Hybrid workbooks; they differ only in
// how the cover sheet is named.
type kevExtractor struct {
	format scorecard.Format
}

func (e kevExtractor) Format() scorecard.Format { return e.format }

func (e kevExtractor) Extract(wb *workbook.Workbook, _ scorecard.Options) (*scorecard.ParsedScorecard, error) {
	card := &scorecard.ParsedScorecard{Format: e.format}

	var cover *workbook.Sheet
	var categories []*workbook.Sheet
	for _, sheet := range wb.Sheets {
		switch {
		case cover == nil && isKEVCover(e.format, sheet.Name):
			cover = sheet
		case isAncillary(sheet.Name):
		default:
			categories = append(categories, sheet)
		}
	}

	card.FacilityName = findFacilityName(append([]*workbook.Sheet{cover}, categories...)...)
	card.Month, card.Year = findReviewPeriod(cover)

	for _, sheet := range categories {
		layout, start := locateTable(sheet)
		items, total := parseItems(sheet, layout, start, refineBinary)
		if len(items) == 0 {
			continue
		}
		card.Sections = append(card.Sections, scorecard.SectionResult{
			Name:          strings.TrimSpace(sheet.Name),
			SheetName:     sheet.Name,
			Items:         items,
			DeclaredTotal: total,
		})
	}

	readCoverDeclarations(cover, card)
	return card, nil
}

func isAncillary(name string) bool {
	n := normalize(name)
	for _, a := range ancillarySheets {
		if strings.Contains(n, a) {
			return true
		}
	}
	return false
}

// =============================================================================
// COVER SHEET
// =============================================================================

// findReviewPeriod reads month and year from the cover's "Review Period"
// field, falling back to a plain "Month" label.
func findReviewPeriod(cover *workbook.Sheet) (month, year *int) {
	if cover == nil {
		return nil, nil
	}

	if cell, ok := findLabeledValue(cover, headerScanRows, isReviewPeriodLabel); ok {
		month, year = parseMonth(cell), parseYear(cell)
	}
	if month == nil {
		if cell, ok := findLabeledValue(cover, headerScanRows, isMonthLabel); ok {
			month = parseMonth(cell)
			if year == nil {
				year = parseYear(cell)
			}
		}
	}
	if year == nil {
		if cell, ok := findLabeledValue(cover, headerScanRows, isYearLabel); ok {
			year = parseYear(cell)
		}
	}
	return month, year
}

// readCoverDeclarations records the declared overall percentage and any
// declared per-category percentages found on the cover sheet.
func readCoverDeclarations(cover *workbook.Sheet, card *scorecard.ParsedScorecard) {
	if cover == nil {
		return
	}

	for r := 0; r < cover.RowCount(); r++ {
		row := cover.Row(r)
		labelCol := firstTextCell(row)
		if labelCol < 0 {
			continue
		}
		label := normalize(row[labelCol].Raw)

		pct, ok := rowPercent(row[labelCol+1:])
		if !ok {
			continue
		}

		if strings.Contains(label, "overall") || strings.Contains(label, "total score") {
			if card.DeclaredOverall == nil {
				card.DeclaredOverall = scorecard.Float(pct)
			}
			continue
		}

		for i := range card.Sections {
			s := &card.Sections[i]
			if s.DeclaredPercentage == nil && categoryMatches(label, s.Name) {
				s.DeclaredPercentage = scorecard.Float(pct)
				break
			}
		}
	}
}

func firstTextCell(row []workbook.Cell) int {
	for c, cell := range row {
		if cell.Kind == workbook.Text && !cell.IsEmpty() {
			return c
		}
	}
	return -1
}

// rowPercent picks the percentage from the cells following a label.
//
// Preference order: explicit percent text ("80%"), then the last fraction
// in [0, 1] (percent-formatted cells store 0.8), then a single number up to
// 100. Rows holding several larger numbers are points, not percentages.
func rowPercent(cells []workbook.Cell) (float64, bool) {
	for _, cell := range cells {
		if isPercentText(cell) {
			return parsePercent(cell)
		}
	}

	var numbers []float64
	for _, cell := range cells {
		if cell.Kind == workbook.Number {
			numbers = append(numbers, cell.Number)
		}
	}

	for i := len(numbers) - 1; i >= 0; i-- {
		if numbers[i] >= 0 && numbers[i] <= 1 {
			return numbers[i] * 100, true
		}
	}
	if len(numbers) == 1 && numbers[0] > 1 && numbers[0] <= 100 {
		return numbers[0], true
	}
	return 0, false
}

// categoryMatches compares a cover-sheet label with a category sheet name.
func categoryMatches(label, name string) bool {
	n := normalize(name)
	if n == "" || label == "" {
		return false
	}
	return strings.Contains(label, n) || (len(label) >= 4 && strings.Contains(n, label))
}

// =============================================================================
// BINARY ITEMS
// =============================================================================

// refineBinary converts an item to a yes/no criterion when its sample-size
// cell marks it as one.
func refineBinary(item *scorecard.AuditItem, met, sample workbook.Cell) {
	if !isBinaryItem(item.MaxPoints, sample) {
		return
	}
	item.Binary = true
	item.SampleSize = scorecard.Int(1)
	item.ChartsMet, item.FractionalCount = parseYesNo(met)
}

func isBinaryItem(maxPoints float64, sample workbook.Cell) bool {
	text := strings.ToLower(strings.ReplaceAll(sample.String(), " ", ""))
	if strings.Contains(text, "y=1") && strings.Contains(text, "n=0") {
		return true
	}
	return text == "1" && maxPoints >= binaryMinPoints
}

// parseYesNo reads a binary result. Whole numbers are kept as written so an
// out-of-range value still surfaces as a validation error; a fractional
// number yields nil and fractional is true.
func parseYesNo(cell workbook.Cell) (met *int, fractional bool) {
	switch cell.Kind {
	case workbook.Empty:
		return nil, false
	case workbook.Bool:
		return scorecard.Int(int(cell.Number)), false
	}

	if _, ok := cell.Float(); ok {
		return parseCount(cell)
	}

	text := normalize(cell.Raw)
	switch {
	case yesWords[text]:
		return scorecard.Int(1), false
	case noWords[text]:
		return scorecard.Int(0), false
	}
	return nil, false
}
