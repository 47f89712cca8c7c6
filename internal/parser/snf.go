// =============================================================================
// Scorecard Import - SNF Extractor
// =============================================================================
//
// SNF workbooks hold one sheet per clinical system (seven in the standard
// template) and usually a "Clinical Systems Overview" sheet carrying the
// facility name and audit month.
//
// SYSTEM SHEETS:
//   - A sheet named with a numbered prefix ("1. Change of Condition") is
//     always a system, even when its item table is empty.
//   - Any other sheet, apart from the overview and ancillary sheets such as
//     instructions, is a system when it has an item-table header and at
//     least one scored row.
//
// =============================================================================

package parser

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

var systemPrefix = regexp.MustCompile(`^\s*\d+\.\s*`)

// snfExtractor reads the 7-system clinical workbook.
type snfExtractor struct{}

func (snfExtractor) Format() scorecard.Format { return scorecard.FormatSNF }

// systemSheet is a sheet accepted as a clinical system, with its items.
type systemSheet struct {
	sheet *workbook.Sheet
	items []scorecard.AuditItem
	total *float64
}

func (snfExtractor) Extract(wb *workbook.Workbook, _ scorecard.Options) (*scorecard.ParsedScorecard, error) {
	card := &scorecard.ParsedScorecard{Format: scorecard.FormatSNF}

	var overview *workbook.Sheet
	var systems []systemSheet
	for _, sheet := range wb.Sheets {
		switch {
		case overview == nil && strings.Contains(normalize(sheet.Name), snfOverview):
			overview = sheet
		case isAncillary(sheet.Name):
		default:
			if s, ok := readSystemSheet(sheet); ok {
				systems = append(systems, s)
			}
		}
	}

	// Overview first, then system sheets in workbook order.
	metaSheets := make([]*workbook.Sheet, 0, len(systems)+1)
	if overview != nil {
		metaSheets = append(metaSheets, overview)
	}
	for _, s := range systems {
		metaSheets = append(metaSheets, s.sheet)
	}

	card.FacilityName = findFacilityName(metaSheets...)
	card.Month, card.Year = findSNFDate(metaSheets)

	for _, s := range systems {
		card.Sections = append(card.Sections, scorecard.SectionResult{
			Name:          systemName(s.sheet.Name),
			SheetName:     s.sheet.Name,
			Items:         s.items,
			DeclaredTotal: s.total,
		})
	}

	return card, nil
}

// readSystemSheet parses a sheet's item table and reports whether the sheet
// counts as a clinical system.
func readSystemSheet(sheet *workbook.Sheet) (systemSheet, bool) {
	layout, start := locateTable(sheet)
	items, total := parseItems(sheet, layout, start, nil)
	s := systemSheet{sheet: sheet, items: items, total: total}

	if isSystemSheet(sheet.Name) {
		return s, true
	}
	return s, findHeaderRow(sheet) >= 0 && len(items) > 0
}

// =============================================================================
// METADATA
// =============================================================================

// findSNFDate looks for a "month" label in the top rows of each sheet, then
// a "year" label, then a year inside the month cell. The first sheet that
// resolves a value wins.
func findSNFDate(sheets []*workbook.Sheet) (month, year *int) {
	for _, sheet := range sheets {
		cell, ok := findLabeledValue(sheet, dateScanRows, isMonthLabel)
		if !ok {
			continue
		}
		if month == nil {
			month = parseMonth(cell)
		}
		if year == nil {
			year = parseYear(cell)
		}
		if month != nil {
			break
		}
	}

	if year == nil {
		for _, sheet := range sheets {
			if cell, ok := findLabeledValue(sheet, dateScanRows, isYearLabel); ok {
				if year = parseYear(cell); year != nil {
					break
				}
			}
		}
	}
	return month, year
}

// systemName strips the numbered prefix: "1. Change of Condition" becomes
// "Change of Condition". Unnumbered names are only trimmed.
func systemName(sheetName string) string {
	return strings.TrimSpace(systemPrefix.ReplaceAllString(sheetName, ""))
}
