package workbook

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// SheetData is a sheet to be written: a name and row-major values. Values
// may be string, int, float64, bool or nil (left blank).
type SheetData struct {
	Name string
	Rows [][]any
}

// Template is the blank import template data shape: column headers, one
// sample row, and the list of valid facility names.
type Template struct {
	Headers    []string
	SampleRow  []any
	Facilities []string
}

// Encode writes the sheets, in order, into a new xlsx container.
func Encode(sheets ...SheetData) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, eris.New("workbook: nothing to encode")
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return nil, eris.Wrapf(err, "workbook: rename sheet to %q", s.Name)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, eris.Wrapf(err, "workbook: add sheet %q", s.Name)
		}

		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, eris.Wrap(err, "workbook: cell reference")
				}
				if err := f.SetCellValue(s.Name, ref, v); err != nil {
					return nil, eris.Wrapf(err, "workbook: set %s!%s", s.Name, ref)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "workbook: serialise")
	}
	return buf.Bytes(), nil
}

// WriteTemplate serialises the import template: an "Import Template" sheet
// with headers and the sample row, and a "Facilities" sheet listing the
// valid facility names.
func WriteTemplate(w io.Writer, t Template) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}

	facilities := make([][]any, 0, len(t.Facilities)+1)
	facilities = append(facilities, []any{"Facility Name"})
	for _, name := range t.Facilities {
		facilities = append(facilities, []any{name})
	}

	data, err := Encode(
		SheetData{Name: "Import Template", Rows: [][]any{header, t.SampleRow}},
		SheetData{Name: "Facilities", Rows: facilities},
	)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return eris.Wrap(err, "workbook: write template")
	}
	return nil
}
