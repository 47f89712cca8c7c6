// =============================================================================
// Scorecard Import - Item Table Columns
// =============================================================================
//
// Item tables are laid out by hand, so columns are found from the header
// text. Each header cell is checked against an ordered list of keyword rules;
// the first rule whose keywords all appear assigns the column.
//
// FALLBACK:
//   When no header row names a max-points column, DefaultColumns applies:
//   A item #, B criteria, C max points, D charts met, E sample size, F notes.
//
// =============================================================================

package parser

import (
	"strconv"
	"strings"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

// =============================================================================
// LAYOUT
// =============================================================================

// field is a logical item-table column.
type field int

const (
	fieldItemNumber field = iota
	fieldCriteria
	fieldMaxPoints
	fieldChartsMet
	fieldSampleSize
	fieldNotes
)

// Layout maps logical fields to 0-based column indexes; -1 means absent.
type Layout struct {
	ItemNumber int
	Criteria   int
	MaxPoints  int
	ChartsMet  int
	SampleSize int
	Notes      int
}

// DefaultColumns is used when a sheet has no recognizable header row.
var DefaultColumns = Layout{
	ItemNumber: 0,
	Criteria:   1,
	MaxPoints:  2,
	ChartsMet:  3,
	SampleSize: 4,
	Notes:      5,
}

func emptyLayout() Layout {
	return Layout{ItemNumber: -1, Criteria: -1, MaxPoints: -1, ChartsMet: -1, SampleSize: -1, Notes: -1}
}

func (l *Layout) get(f field) int {
	switch f {
	case fieldItemNumber:
		return l.ItemNumber
	case fieldCriteria:
		return l.Criteria
	case fieldMaxPoints:
		return l.MaxPoints
	case fieldChartsMet:
		return l.ChartsMet
	case fieldSampleSize:
		return l.SampleSize
	default:
		return l.Notes
	}
}

func (l *Layout) set(f field, col int) {
	switch f {
	case fieldItemNumber:
		l.ItemNumber = col
	case fieldCriteria:
		l.Criteria = col
	case fieldMaxPoints:
		l.MaxPoints = col
	case fieldChartsMet:
		l.ChartsMet = col
	case fieldSampleSize:
		l.SampleSize = col
	default:
		l.Notes = col
	}
}

// =============================================================================
// COLUMN RULES
// =============================================================================

// columnRule assigns a field to a header cell containing every keyword.
type columnRule struct {
	keywords []string
	field    field
}

// columnRules is checked in order for each header cell. Earlier rules win, so
// "Max Points" never falls through to a looser rule.
var columnRules = []columnRule{
	{[]string{"max", "point"}, fieldMaxPoints},
	{[]string{"possible"}, fieldMaxPoints},
	{[]string{"weight"}, fieldMaxPoints},
	{[]string{"sample"}, fieldSampleSize},
	{[]string{"reviewed"}, fieldSampleSize},
	{[]string{"met"}, fieldChartsMet},
	{[]string{"y/n"}, fieldChartsMet},
	{[]string{"note"}, fieldNotes},
	{[]string{"comment"}, fieldNotes},
	{[]string{"criteria"}, fieldCriteria},
	{[]string{"category"}, fieldCriteria},
	{[]string{"question"}, fieldCriteria},
	{[]string{"description"}, fieldCriteria},
	{[]string{"item"}, fieldItemNumber},
	{[]string{"#"}, fieldItemNumber},
	{[]string{"no."}, fieldItemNumber},
}

// mapColumns builds a layout from a header row. It returns false when the
// row does not name a max-points column, in which case callers use
// DefaultColumns.
func mapColumns(header []workbook.Cell) (Layout, bool) {
	layout := emptyLayout()

	for col, cell := range header {
		if cell.Kind != workbook.Text {
			continue
		}
		text := normalize(cell.Raw)
		if text == "" {
			continue
		}
		for _, rule := range columnRules {
			if layout.get(rule.field) >= 0 || !containsAll(text, rule.keywords...) {
				continue
			}
			layout.set(rule.field, col)
			break
		}
	}

	return layout, layout.MaxPoints >= 0
}

// locateTable finds the item table on a sheet and returns its layout and the
// first data row.
func locateTable(sheet *workbook.Sheet) (Layout, int) {
	header := findHeaderRow(sheet)
	if header < 0 {
		return DefaultColumns, 0
	}
	if layout, ok := mapColumns(sheet.Row(header)); ok {
		return layout, header + 1
	}
	return DefaultColumns, header + 1
}

// =============================================================================
// ITEM ROWS
// =============================================================================

// itemRefiner adjusts an item using the raw met and sample cells. KEV sheets
// use it for yes/no criteria.
type itemRefiner func(item *scorecard.AuditItem, met, sample workbook.Cell)

// parseItems reads every row from start onward. Rows with a positive numeric
// max-points value become items; other rows are skipped. A row labeled
// "total" ends up in the returned declared total instead.
func parseItems(sheet *workbook.Sheet, layout Layout, start int, refine itemRefiner) ([]scorecard.AuditItem, *float64) {
	var (
		items         []scorecard.AuditItem
		declaredTotal *float64
	)

	cellAt := func(r, col int) workbook.Cell {
		if col < 0 {
			return workbook.Cell{}
		}
		return sheet.Cell(r, col)
	}

	for r := start; r < sheet.RowCount(); r++ {
		number := cellAt(r, layout.ItemNumber).String()
		criteria := cellAt(r, layout.Criteria).String()

		if isTotalLabel(number) || isTotalLabel(criteria) {
			if v, ok := lastNumber(sheet.Row(r)); ok {
				declaredTotal = &v
			}
			continue
		}

		maxPoints, ok := cellAt(r, layout.MaxPoints).Float()
		if !ok || maxPoints <= 0 {
			continue
		}

		if number == "" {
			number = strconv.Itoa(len(items) + 1)
		}

		met := cellAt(r, layout.ChartsMet)
		sample := cellAt(r, layout.SampleSize)

		chartsMet, fracMet := parseCount(met)
		sampleSize, fracSample := parseCount(sample)

		item := scorecard.AuditItem{
			ItemNumber:      number,
			CriteriaText:    criteria,
			MaxPoints:       maxPoints,
			ChartsMet:       chartsMet,
			SampleSize:      sampleSize,
			Notes:           cellAt(r, layout.Notes).String(),
			FractionalCount: fracMet || fracSample,
			Row:             r + 1,
		}
		if refine != nil {
			refine(&item, met, sample)
		}
		items = append(items, item)
	}

	return items, declaredTotal
}

func isTotalLabel(s string) bool {
	n := normalize(s)
	return n == "total" || strings.HasPrefix(n, "total ") || strings.HasPrefix(n, "total:")
}

func lastNumber(row []workbook.Cell) (float64, bool) {
	for c := len(row) - 1; c >= 0; c-- {
		if row[c].Kind == workbook.Number {
			return row[c].Number, true
		}
	}
	return 0, false
}
