package payload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
)

func card(filename string) *scorecard.ParsedScorecard {
	return &scorecard.ParsedScorecard{
		Format:          scorecard.FormatSNF,
		FacilityName:    scorecard.String("Sunrise Manor Nursing"),
		Month:           scorecard.Int(3),
		Year:            scorecard.Int(2024),
		TotalScore:      560,
		TotalMaxPoints:  700,
		ScorePercentage: 80,
		Sections: []scorecard.SectionResult{
			{Name: "Change of Condition", PointsEarned: 80, MaxPoints: 100, Percentage: 80,
				Items: []scorecard.AuditItem{{ItemNumber: "1", MaxPoints: 100}}},
		},
		SourceFilename: filename,
	}
}

func valid(filename string) validation.Result {
	return validation.Result{
		Filename:     filename,
		IsValid:      true,
		FacilityID:   "F001",
		FacilityName: "Sunrise Manor",
		Month:        scorecard.Int(3),
		Year:         scorecard.Int(2024),
	}
}

func TestBuildSummaryImport(t *testing.T) {
	cards := []*scorecard.ParsedScorecard{card("a.xlsx"), nil, card("c.xlsx")}
	results := []validation.Result{
		valid("a.xlsx"),
		{Filename: "b.xlsx", Errors: []string{"unreadable"}},
		{Filename: "c.xlsx", IsValid: false, Errors: []string{"month missing"}},
	}

	s, err := BuildSummaryImport(cards, results)
	require.NoError(t, err)
	require.Len(t, s.Scorecards, 1)

	rec := s.Scorecards[0]
	assert.Equal(t, "F001", rec.FacilityID)
	assert.Equal(t, "Sunrise Manor", rec.FacilityName, "resolved name wins over the sheet text")
	assert.Equal(t, 3, rec.Month)
	assert.Equal(t, 2024, *rec.Year)
	assert.Equal(t, 560.0, rec.TotalScore)
	require.Len(t, rec.Sections, 1)
	assert.Equal(t, "Change of Condition", rec.Sections[0].Name)

	data, err := s.JSON("")
	require.NoError(t, err)

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded["scorecards"], 1)
	assert.Equal(t, "a.xlsx", decoded["scorecards"][0]["sourceFilename"])
	assert.NotContains(t, string(data), "items", "summary imports carry no item rows")
}

func TestBuildSummaryImport_EmptyEncodesArray(t *testing.T) {
	s, err := BuildSummaryImport(nil, nil)
	require.NoError(t, err)

	data, err := s.JSON("")
	require.NoError(t, err)
	assert.JSONEq(t, `{"scorecards":[]}`, string(data))
}

func TestBuildSummaryImport_LengthMismatch(t *testing.T) {
	_, err := BuildSummaryImport([]*scorecard.ParsedScorecard{card("a.xlsx")}, nil)
	assert.Error(t, err)
}

func TestBuildFullImport(t *testing.T) {
	files := []File{
		{Filename: "a.xlsx", Data: []byte("AAA")},
		{Filename: `b "q".xlsx`, Data: []byte("BBB")},
	}
	overrides := map[string]validation.Overrides{
		"a.xlsx":     {FacilityID: scorecard.String("F002")},
		`b "q".xlsx`: {Month: scorecard.Int(4), Year: scorecard.Int(2024)},
		"other.xlsx": {FacilityID: scorecard.String("F009")},
	}

	body, contentType, err := BuildFullImport(files, nil, overrides)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	require.Len(t, form.File[FieldFiles], 2)
	assert.Equal(t, "a.xlsx", form.File[FieldFiles][0].Filename)
	assert.Equal(t, `b "q".xlsx`, form.File[FieldFiles][1].Filename)
	assert.Equal(t, XLSXContentType, form.File[FieldFiles][0].Header.Get("Content-Type"))

	f, err := form.File[FieldFiles][1].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "BBB", string(content))

	assert.JSONEq(t, `{"a.xlsx":"F002"}`, form.Value[FieldFacilityOverrides][0])
	assert.JSONEq(t, `{"b \"q\".xlsx":{"month":4,"year":2024}}`, form.Value[FieldDateOverrides][0])
}

func TestBuildFullImport_Rejects(t *testing.T) {
	_, _, err := BuildFullImport(nil, nil, nil)
	assert.Error(t, err)

	_, _, err = BuildFullImport([]File{{Filename: "a.xlsx"}, {Filename: "a.xlsx"}}, nil, nil)
	assert.Error(t, err)

	_, _, err = BuildFullImport([]File{{Data: []byte("x")}}, nil, nil)
	assert.Error(t, err)
}

func TestNewFullImport_Filenames(t *testing.T) {
	fi := NewFullImport([]File{{Filename: "x.xlsx"}, {Filename: "y.xlsx"}}, nil, nil)
	assert.Equal(t, []string{"x.xlsx", "y.xlsx"}, fi.Filenames())
	assert.Empty(t, fi.FacilityOverrides)
	assert.Empty(t, fi.DateOverrides)
}

func TestNewFullImport_SendsResolvedFacilityIDs(t *testing.T) {
	files := []File{{Filename: "a.xlsx"}, {Filename: "b.xlsx"}, {Filename: "c.xlsx"}}
	results := []validation.Result{
		{Filename: "a.xlsx", IsValid: true, FacilityID: "F001", FacilityName: "Sunrise Manor"},
		{Filename: "b.xlsx", IsValid: true, FacilityName: "Unmatched Place"},
		{Filename: "c.xlsx", IsValid: true, FacilityID: "F002"},
		{Filename: "elsewhere.xlsx", FacilityID: "F003"},
	}
	overrides := map[string]validation.Overrides{
		"b.xlsx": {FacilityID: scorecard.String("F005"), Month: scorecard.Int(6)},
	}

	fi := NewFullImport(files, results, overrides)

	assert.Equal(t, map[string]string{"a.xlsx": "F001", "b.xlsx": "F005", "c.xlsx": "F002"}, fi.FacilityOverrides)
	require.Contains(t, fi.DateOverrides, "b.xlsx")
	assert.Equal(t, 6, *fi.DateOverrides["b.xlsx"].Month)
	assert.Len(t, fi.DateOverrides, 1)
}

func TestDecode(t *testing.T) {
	id := NewBatchID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	resp, err := Decode(strings.NewReader(`{
		"success": 2,
		"failed": 1,
		"errors": [{"filename": "b.xlsx", "error": "duplicate scorecard"}],
		"batchId": "` + id + `"
	}`))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Success)
	assert.False(t, resp.OK())
	assert.Equal(t, id, resp.BatchID)
	assert.Contains(t, resp.String(), "b.xlsx: duplicate scorecard")

	resp, err = Decode(strings.NewReader(`{"success": 1, "failed": 0, "errors": []}`))
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"success": -1}`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"success": 1, "batchId": "nope"}`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"failed": 1, "errors": [{"error": "x"}]}`))
	assert.Error(t, err)
}
