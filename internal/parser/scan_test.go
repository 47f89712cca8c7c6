package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

func text(s string) workbook.Cell { return workbook.Cell{Kind: workbook.Text, Raw: s} }
func num(v float64) workbook.Cell { return workbook.Cell{Kind: workbook.Number, Number: v} }
func sheet(rows ...[]workbook.Cell) *workbook.Sheet {
	return &workbook.Sheet{Name: "S", Rows: rows}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name string
		cell workbook.Cell
		want int
	}{
		{"full name", text("March"), 3},
		{"abbreviation", text("dec"), 12},
		{"with year", text("September 2024"), 9},
		{"sept", text("Sept-23"), 9},
		{"slash form", text("04/2024"), 4},
		{"numeric", num(7), 7},
		{"numeric text", text("11"), 11},
		{"date serial", num(45352), 3}, // 2024-03-01
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMonth(tt.cell)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, parseMonth(text("Q1")))
	assert.Nil(t, parseMonth(num(13)))
	assert.Nil(t, parseMonth(num(2.5)))
	assert.Nil(t, parseMonth(workbook.Cell{}))
}

func TestParseYear(t *testing.T) {
	assert.Equal(t, 2024, *parseYear(text("March 2024")))
	assert.Equal(t, 2023, *parseYear(num(2023)))
	assert.Equal(t, 2024, *parseYear(num(45352)))
	assert.Nil(t, parseYear(text("March")))
	assert.Nil(t, parseYear(text("1999")))
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		cell workbook.Cell
		want float64
	}{
		{num(0.8), 80},
		{num(80), 80},
		{text("80%"), 80},
		{text(" 72.5 % "), 72.5},
		{text("65"), 65},
	}
	for _, tt := range tests {
		got, ok := parsePercent(tt.cell)
		require.True(t, ok)
		assert.InDelta(t, tt.want, got, 1e-9)
	}

	_, ok := parsePercent(text("n/a"))
	assert.False(t, ok)
}

func TestFindLabeledValue(t *testing.T) {
	s := sheet(
		[]workbook.Cell{text("Monthly Audit Tool")},
		[]workbook.Cell{text("Facility Name:"), {}, text("Sunrise Manor")},
		[]workbook.Cell{text("Month: March 2024")},
	)

	v, ok := findLabeledValue(s, 10, isFacilityLabel)
	require.True(t, ok)
	assert.Equal(t, "Sunrise Manor", v.String())

	v, ok = findLabeledValue(s, 10, isMonthLabel)
	require.True(t, ok)
	assert.Equal(t, "March 2024", v.String())

	_, ok = findLabeledValue(s, 2, isMonthLabel)
	assert.False(t, ok, "search must stop at maxRows")
}

func TestMapColumns(t *testing.T) {
	header := []workbook.Cell{
		text("Notes"), text("Item #"), text("Audit Question"), text("Points Possible"),
		text("Items Reviewed"), text("Items Met"),
	}

	layout, ok := mapColumns(header)
	require.True(t, ok)
	assert.Equal(t, Layout{ItemNumber: 1, Criteria: 2, MaxPoints: 3, ChartsMet: 5, SampleSize: 4, Notes: 0}, layout)

	_, ok = mapColumns([]workbook.Cell{text("Category"), text("Score")})
	assert.False(t, ok)
}

func TestParseItems_DefaultColumnsWithoutHeader(t *testing.T) {
	s := sheet(
		[]workbook.Cell{text("1"), text("Care plan updated"), num(10), num(2), num(4), text("late")},
		[]workbook.Cell{text("Section B")},
		[]workbook.Cell{text("2a"), text("Physician notified"), text("N/A")},
		[]workbook.Cell{{}, text("Family notified"), num(5), text("N/A"), num(3)},
		[]workbook.Cell{text("TOTAL"), {}, num(15)},
	)

	layout, start := locateTable(s)
	assert.Equal(t, DefaultColumns, layout)
	assert.Equal(t, 0, start)

	items, total := parseItems(s, layout, start, nil)
	require.Len(t, items, 2)

	assert.Equal(t, "1", items[0].ItemNumber)
	assert.Equal(t, 2, *items[0].ChartsMet)
	assert.Equal(t, 4, *items[0].SampleSize)
	assert.Equal(t, "late", items[0].Notes)
	assert.Equal(t, 1, items[0].Row)

	assert.Equal(t, "2", items[1].ItemNumber, "blank item numbers are sequential")
	assert.Nil(t, items[1].ChartsMet)
	assert.Equal(t, 4, items[1].Row)

	require.NotNil(t, total)
	assert.Equal(t, 15.0, *total)
}

func TestRowPercent(t *testing.T) {
	v, ok := rowPercent([]workbook.Cell{num(150), num(120), num(0.8)})
	require.True(t, ok)
	assert.InDelta(t, 80, v, 1e-9)

	v, ok = rowPercent([]workbook.Cell{num(75)})
	require.True(t, ok)
	assert.Equal(t, 75.0, v)

	_, ok = rowPercent([]workbook.Cell{num(150), num(120)})
	assert.False(t, ok)
}

func TestIsBinaryItem(t *testing.T) {
	assert.True(t, isBinaryItem(2, text("Y = 1 / N = 0")))
	assert.True(t, isBinaryItem(5, num(1)))
	assert.False(t, isBinaryItem(4, num(1)))
	assert.False(t, isBinaryItem(10, num(5)))
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		name       string
		cell       workbook.Cell
		want       *int
		fractional bool
	}{
		{"yes", text("Yes"), intp(1), false},
		{"no", text("n"), intp(0), false},
		{"number", num(1), intp(1), false},
		{"not applicable", text("N/A"), nil, false},
		{"empty", workbook.Cell{}, nil, false},
		{"fraction", num(0.5), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fractional := parseYesNo(tt.cell)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fractional, fractional)
		})
	}
}

func TestParseCount(t *testing.T) {
	n, fractional := parseCount(num(4))
	require.NotNil(t, n)
	assert.Equal(t, 4, *n)
	assert.False(t, fractional)

	n, fractional = parseCount(num(2.5))
	assert.Nil(t, n, "fractions are not rounded")
	assert.True(t, fractional)

	n, fractional = parseCount(text("n/a"))
	assert.Nil(t, n)
	assert.False(t, fractional)
}

func TestParseItems_FlagsFractionalCounts(t *testing.T) {
	s := sheet(
		[]workbook.Cell{text("Item #"), text("Criteria"), text("Max Points"), text("Charts Met"), text("Sample Size")},
		[]workbook.Cell{text("1"), text("Assessment on file"), num(10), num(2.5), num(5)},
		[]workbook.Cell{text("2"), text("Care plan updated"), num(10), num(3), num(5)},
	)

	layout, start := locateTable(s)
	items, _ := parseItems(s, layout, start, nil)
	require.Len(t, items, 2)

	assert.True(t, items[0].FractionalCount)
	assert.Nil(t, items[0].ChartsMet)
	assert.Equal(t, 5, *items[0].SampleSize)
	assert.False(t, items[1].FractionalCount)
}

func intp(v int) *int { return &v }
