// =============================================================================
// Scorecard Import - Facility Directory Loaders
// =============================================================================
//
// Facility lists arrive as exports from the backend, either CSV or YAML.
//
// CSV:
//   - First non-empty row is the header. Columns are found by keyword:
//       "id"                -> Facility.ID
//       "name"              -> Facility.Name
//       "alias"             -> Facility.Aliases (";" separated)
//   - Delimiter and encoding are configurable; exports from older systems
//     are often windows-1252.
//
// YAML:
//   facilities:
//     - id: "F001"
//       name: "Sunrise Manor"
//       aliases: ["Sunrise Manor Nursing Center"]
//
// =============================================================================

package facility

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// CSVSettings controls how a CSV facility export is read.
type CSVSettings struct {
	// Delimiter is ",", "|", ";", "tab" or any single character.
	Delimiter string

	// Encoding is a WHATWG encoding label ("utf-8", "windows-1252").
	// Empty means UTF-8.
	Encoding string
}

// yamlFile is the on-disk YAML shape.
type yamlFile struct {
	Facilities []Facility `yaml:"facilities"`
}

// LoadFile loads a directory from a .csv, .yaml or .yml file.
func LoadFile(path string, settings CSVSettings) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "facility: open %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return LoadCSV(f, settings)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return nil, eris.Errorf("facility: unsupported directory file type %q", filepath.Ext(path))
	}
}

// LoadYAML reads a YAML facility list.
func LoadYAML(r io.Reader) (*Directory, error) {
	var doc yamlFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "facility: decode yaml")
	}
	return NewDirectory(doc.Facilities)
}

// LoadCSV reads a CSV facility list.
func LoadCSV(r io.Reader, settings CSVSettings) (*Directory, error) {
	reader, err := decodingReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "facility: read csv")
	}

	start := 0
	for start < len(rows) && isRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, eris.New("facility: csv is empty")
	}

	idCol, nameCol, aliasCol := mapHeader(rows[start])
	if idCol < 0 || nameCol < 0 {
		return nil, eris.Errorf("facility: csv header needs id and name columns, got %v", rows[start])
	}

	var facilities []Facility
	for _, row := range rows[start+1:] {
		if isRowEmpty(row) {
			continue
		}
		f := Facility{ID: field(row, idCol), Name: field(row, nameCol)}
		if aliasCol >= 0 {
			for _, alias := range strings.Split(field(row, aliasCol), ";") {
				if alias = strings.TrimSpace(alias); alias != "" {
					f.Aliases = append(f.Aliases, alias)
				}
			}
		}
		facilities = append(facilities, f)
	}

	return NewDirectory(facilities)
}

// decodingReader wraps r so it yields UTF-8.
func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	reader := bufio.NewReader(r)
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return reader, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "facility: unknown encoding %q", encoding)
	}
	return transform.NewReader(reader, enc.NewDecoder()), nil
}

// configureReader applies delimiter settings to the csv reader.
func configureReader(reader *csv.Reader, settings CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "pipe", "PIPE":
		reader.Comma = '|'
	case "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// mapHeader locates the id, name and alias columns; -1 when absent.
func mapHeader(header []string) (idCol, nameCol, aliasCol int) {
	idCol, nameCol, aliasCol = -1, -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case aliasCol < 0 && strings.Contains(h, "alias"):
			aliasCol = i
		case idCol < 0 && (h == "id" || strings.HasSuffix(h, " id") || strings.HasSuffix(h, "_id")):
			idCol = i
		case nameCol < 0 && strings.Contains(h, "name"):
			nameCol = i
		}
	}
	return idCol, nameCol, aliasCol
}

func field(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
