// =============================================================================
// Scorecard Import - Workbook Reader
// =============================================================================
//
// This module loads a spreadsheet container (xlsx/xlsm) into an immutable,
// in-memory grid of cells. The whole workbook is materialised before any
// parsing starts because header detection needs random access across rows
// and sheets.
//
// CELL TYPES:
//   Values are NOT coerced. A numeric cell stays numeric, a text cell stays
//   text, and a missing cell is Empty. Downstream heuristics rely on this to
//   tell "N/A" from a blank from a zero, and a text "1" from a number 1 only
//   where that matters.
//
// =============================================================================

package workbook

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// DATA STRUCTURES
// =============================================================================

// Kind classifies a cell value.
type Kind int

const (
	// Empty is a missing or blank cell.
	Empty Kind = iota
	// Text is a string value (shared, inline, or formula string result).
	Text
	// Number is a numeric value (including cached formula results).
	Number
	// Bool is a TRUE/FALSE cell.
	Bool
)

// Cell is a single typed cell value.
type Cell struct {
	Kind Kind

	// Raw is the unformatted value as stored in the container.
	Raw string

	// Number holds the parsed value when Kind is Number or Bool.
	Number float64
}

// String returns the cell as trimmed text. Numbers are rendered without
// trailing zeros ("1", "2.5").
func (c Cell) String() string {
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case Empty:
		return ""
	default:
		return strings.TrimSpace(c.Raw)
	}
}

// IsEmpty reports whether the cell has no visible content.
func (c Cell) IsEmpty() bool {
	return c.Kind == Empty || (c.Kind == Text && strings.TrimSpace(c.Raw) == "")
}

// Float returns the numeric value of the cell. Text cells holding a plain
// number ("12", " 7.5 ") are accepted too, since hand-typed scorecards often
// store counts as text.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case Number:
		return c.Number, true
	case Text:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Raw), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Sheet is a named, sparse, row-major grid. Rows may have different lengths;
// reading past the end of a row yields an Empty cell.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Cell returns the cell at 0-based (row, col), or an Empty cell.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return Cell{}
	}
	return s.Rows[row][col]
}

// Row returns the 0-based row, or nil when out of range.
func (s *Sheet) Row(row int) []Cell {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	return s.Rows[row]
}

// RowCount returns the number of materialised rows.
func (s *Sheet) RowCount() int {
	return len(s.Rows)
}

// Workbook is an ordered sequence of sheets.
type Workbook struct {
	Sheets []*Sheet
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the sheet with the given name (case-insensitive), or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) {
			return s
		}
	}
	return nil
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// Read deserialises a spreadsheet container held in memory.
//
// PARAMETERS:
//   - data: The raw file bytes.
//
// RETURNS:
//   - The materialised workbook, with sheet order preserved.
//   - An error if the bytes are not a well-formed container. Callers convert
//     this into a scorecard.UnreadableFileError with the file name attached.
func Read(data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return nil, eris.New("workbook: empty input")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open container")
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, eris.New("workbook: container has no sheets")
	}

	wb := &Workbook{Sheets: make([]*Sheet, 0, len(sheetNames))}
	for _, name := range sheetNames {
		sheet, err := readSheet(f, name)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}

	return wb, nil
}

// readSheet materialises a single sheet, typing every non-empty cell.
func readSheet(f *excelize.File, name string) (*Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: read rows of sheet %q", name)
	}

	sheet := &Sheet{Name: name, Rows: make([][]Cell, len(rows))}
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, eris.Wrapf(err, "workbook: cell reference r%d c%d", r+1, c+1)
			}
			cellType, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, eris.Wrapf(err, "workbook: cell type of %s!%s", name, ref)
			}
			cells[c] = typeCell(raw, cellType)
		}
		sheet.Rows[r] = cells
	}

	return sheet, nil
}

// typeCell converts a raw value and its stored type into a Cell.
//
// Numbers written without an explicit type attribute report CellTypeUnset,
// so an unset type with a parseable value is numeric. Strings (shared,
// inline, formula results) stay text even when they look numeric.
func typeCell(raw string, cellType excelize.CellType) Cell {
	switch cellType {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return Cell{Kind: Bool, Raw: raw, Number: 1}
		}
		return Cell{Kind: Bool, Raw: raw}
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return Cell{Kind: Number, Raw: raw, Number: v}
		}
		return Cell{Kind: Text, Raw: raw}
	default:
		return Cell{Kind: Text, Raw: raw}
	}
}
