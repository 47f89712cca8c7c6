// Package template builds the blank summary import template offered for
// download: the column headers, one sample row, and the facilities a row
// may name.
package template

import (
	"io"

	"github.com/ginjaninja78/scorecard-import/internal/facility"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

// Headers are the template columns, in order.
var Headers = []string{
	"Facility Name",
	"Month",
	"Year",
	"Format",
	"Total Score",
	"Total Max Points",
	"Score Percentage",
}

// sampleFacility is used when the directory is empty.
const sampleFacility = "Sample Facility"

// Build returns the template data for dir. A nil or empty directory yields
// an empty facility list and a placeholder sample row.
func Build(dir *facility.Directory) workbook.Template {
	names := dir.Names()

	sample := sampleFacility
	if len(names) > 0 {
		sample = names[0]
	}

	return workbook.Template{
		Headers:    append([]string(nil), Headers...),
		SampleRow:  []any{sample, 1, 2024, string(scorecard.FormatSNF), 560, 700, 80},
		Facilities: names,
	}
}

// Write builds the template for dir and writes it as an xlsx workbook.
func Write(w io.Writer, dir *facility.Directory) error {
	return workbook.WriteTemplate(w, Build(dir))
}
