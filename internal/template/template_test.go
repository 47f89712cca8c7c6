package template

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/scorecard-import/internal/facility"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

func TestBuild(t *testing.T) {
	dir, err := facility.NewDirectory([]facility.Facility{
		{ID: "F002", Name: "Oak Ridge"},
		{ID: "F001", Name: "Sunrise Manor"},
	})
	require.NoError(t, err)

	tpl := Build(dir)
	assert.Equal(t, Headers, tpl.Headers)
	assert.Equal(t, []string{"Oak Ridge", "Sunrise Manor"}, tpl.Facilities)
	assert.Equal(t, "Oak Ridge", tpl.SampleRow[0])
	assert.Len(t, tpl.SampleRow, len(Headers))
}

func TestBuild_NoDirectory(t *testing.T) {
	tpl := Build(nil)
	assert.Empty(t, tpl.Facilities)
	assert.Equal(t, sampleFacility, tpl.SampleRow[0])
}

func TestWrite(t *testing.T) {
	dir, err := facility.NewDirectory([]facility.Facility{{ID: "F001", Name: "Sunrise Manor"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, dir))

	wb, err := workbook.Read(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Import Template", "Facilities"}, wb.SheetNames())

	sheet := wb.Sheet("Import Template")
	require.NotNil(t, sheet)
	assert.Equal(t, "Facility Name", sheet.Cell(0, 0).String())
	assert.Equal(t, "Sunrise Manor", sheet.Cell(1, 0).String())
	assert.Equal(t, "700", sheet.Cell(1, 5).String())

	facilities := wb.Sheet("Facilities")
	require.NotNil(t, facilities)
	assert.Equal(t, "Sunrise Manor", facilities.Cell(1, 0).String())
}
