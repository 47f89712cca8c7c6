package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/scorecard-import/internal/validation"
)

// Form field names of the full import.
const (
	FieldFiles             = "files"
	FieldFacilityOverrides = "facilityOverrides"
	FieldDateOverrides     = "dateOverrides"
)

// XLSXContentType is the MIME type of a workbook part.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// File is one workbook to upload.
type File struct {
	Filename string
	Data     []byte
}

// DateOverride is the month and year sent for one file.
type DateOverride struct {
	Month *int `json:"month,omitempty"`
	Year  *int `json:"year,omitempty"`
}

// FullImport is the data of a full item-level import before encoding.
type FullImport struct {
	Files             []File
	FacilityOverrides map[string]string
	DateOverrides     map[string]DateOverride
}

// NewFullImport collects the override maps for files.
//
// PARAMETERS:
//   - files: The workbooks to upload.
//   - results: Validation results; each resolved FacilityID (from a reviewer
//     override or a directory match) is sent so the backend does not have
//     to match names again. Matched to files by filename.
//   - overrides: Reviewer overrides keyed by filename. A facility ID here is
//     used when the file has no resolved ID; month and year are sent as
//     date overrides.
//
// Files with nothing to send get no entry.
func NewFullImport(files []File, results []validation.Result, overrides map[string]validation.Overrides) FullImport {
	fi := FullImport{
		Files:             files,
		FacilityOverrides: map[string]string{},
		DateOverrides:     map[string]DateOverride{},
	}

	resolved := make(map[string]string, len(results))
	for _, r := range results {
		if id := strings.TrimSpace(r.FacilityID); id != "" {
			resolved[r.Filename] = id
		}
	}

	for _, f := range files {
		ov := overrides[f.Filename]
		if id, ok := resolved[f.Filename]; ok {
			fi.FacilityOverrides[f.Filename] = id
		} else if ov.FacilityID != nil && strings.TrimSpace(*ov.FacilityID) != "" {
			fi.FacilityOverrides[f.Filename] = strings.TrimSpace(*ov.FacilityID)
		}
		if ov.Month != nil || ov.Year != nil {
			fi.DateOverrides[f.Filename] = DateOverride{Month: ov.Month, Year: ov.Year}
		}
	}
	return fi
}

// BuildFullImport encodes files and their overrides as a multipart form.
//
// RETURNS:
//   - The request body.
//   - The Content-Type header value, including the boundary.
//   - An error if there are no files or encoding fails.
func BuildFullImport(files []File, results []validation.Result, overrides map[string]validation.Overrides) ([]byte, string, error) {
	return NewFullImport(files, results, overrides).Encode()
}

// Encode writes the multipart body. Files keep their order; the override
// maps follow them.
func (fi FullImport) Encode() ([]byte, string, error) {
	if len(fi.Files) == 0 {
		return nil, "", eris.New("payload: full import needs at least one file")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	seen := make(map[string]bool, len(fi.Files))
	for _, f := range fi.Files {
		if f.Filename == "" {
			return nil, "", eris.New("payload: file without a name")
		}
		if seen[f.Filename] {
			return nil, "", eris.Errorf("payload: file %q appears twice", f.Filename)
		}
		seen[f.Filename] = true

		part, err := w.CreatePart(filePartHeader(f.Filename))
		if err != nil {
			return nil, "", eris.Wrapf(err, "payload: create part for %q", f.Filename)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", eris.Wrapf(err, "payload: write %q", f.Filename)
		}
	}

	if err := writeJSONField(w, FieldFacilityOverrides, fi.FacilityOverrides); err != nil {
		return nil, "", err
	}
	if err := writeJSONField(w, FieldDateOverrides, fi.DateOverrides); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "payload: close multipart writer")
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

// Filenames lists the files in upload order.
func (fi FullImport) Filenames() []string {
	names := make([]string, len(fi.Files))
	for i, f := range fi.Files {
		names[i] = f.Filename
	}
	return names
}

func filePartHeader(filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldFiles, escapeQuotes(filename)))
	h.Set("Content-Type", XLSXContentType)
	return h
}

// writeJSONField writes v as a form field. Map keys are sorted by
// encoding/json, so the output is stable.
func writeJSONField[V any](w *multipart.Writer, name string, v map[string]V) error {
	if v == nil {
		v = map[string]V{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "payload: encode %s", name)
	}
	if err := w.WriteField(name, string(data)); err != nil {
		return eris.Wrapf(err, "payload: write %s", name)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
