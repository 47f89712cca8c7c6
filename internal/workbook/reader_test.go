package workbook

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_PreservesSheetOrderAndTypes(t *testing.T) {
	data, err := Encode(
		SheetData{Name: "Zeta", Rows: [][]any{{"Label", 100, "N/A"}, {nil, 2.5, "1"}}},
		SheetData{Name: "Alpha", Rows: [][]any{{"x"}}},
	)
	require.NoError(t, err)

	wb, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha"}, wb.SheetNames())

	s := wb.Sheet("zeta")
	require.NotNil(t, s)

	assert.Equal(t, Text, s.Cell(0, 0).Kind)
	assert.Equal(t, "Label", s.Cell(0, 0).String())

	assert.Equal(t, Number, s.Cell(0, 1).Kind)
	assert.InDelta(t, 100.0, s.Cell(0, 1).Number, 0.0001)

	assert.Equal(t, Text, s.Cell(0, 2).Kind)
	assert.Equal(t, "N/A", s.Cell(0, 2).String())

	assert.True(t, s.Cell(1, 0).IsEmpty())
	assert.Equal(t, Number, s.Cell(1, 1).Kind)
	assert.Equal(t, "2.5", s.Cell(1, 1).String())

	// A text "1" stays text but still reads as a number when asked.
	assert.Equal(t, Text, s.Cell(1, 2).Kind)
	v, ok := s.Cell(1, 2).Float()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, v, 0.0001)
}

func TestRead_OutOfRangeCellIsEmpty(t *testing.T) {
	data, err := Encode(SheetData{Name: "S", Rows: [][]any{{"a"}}})
	require.NoError(t, err)

	wb, err := Read(data)
	require.NoError(t, err)

	s := wb.Sheet("S")
	assert.True(t, s.Cell(5, 5).IsEmpty())
	assert.True(t, s.Cell(-1, 0).IsEmpty())
	assert.Nil(t, s.Row(10))
	assert.Nil(t, wb.Sheet("missing"))
}

func TestRead_RejectsGarbage(t *testing.T) {
	_, err := Read([]byte("this is not a zip container"))
	assert.Error(t, err)

	_, err = Read(nil)
	assert.Error(t, err)
}

func TestRead_Idempotent(t *testing.T) {
	data, err := Encode(SheetData{Name: "S", Rows: [][]any{{"a", 1}, {"b", 2}}})
	require.NoError(t, err)

	first, err := Read(data)
	require.NoError(t, err)
	second, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTemplate(&buf, Template{
		Headers:    []string{"Facility Name", "Month", "Year"},
		SampleRow:  []any{"Sunrise Manor", 3, 2024},
		Facilities: []string{"Sunrise Manor", "Oak Ridge"},
	})
	require.NoError(t, err)

	wb, err := Read(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Import Template", "Facilities"}, wb.SheetNames())

	tmpl := wb.Sheet("Import Template")
	assert.Equal(t, "Facility Name", tmpl.Cell(0, 0).String())
	assert.Equal(t, "Sunrise Manor", tmpl.Cell(1, 0).String())
	assert.Equal(t, Number, tmpl.Cell(1, 1).Kind)

	fac := wb.Sheet("Facilities")
	assert.Equal(t, 3, fac.RowCount())
	assert.Equal(t, "Oak Ridge", fac.Cell(2, 0).String())
}
