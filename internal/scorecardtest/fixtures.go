// Package scorecardtest builds in-memory scorecard workbooks for tests.
package scorecardtest

import (
	"fmt"

	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

// SNFSystems are the seven clinical system sheet names in workbook order.
var SNFSystems = []string{
	"1. Change of Condition",
	"2. Falls",
	"3. Skin Integrity",
	"4. Medication Management",
	"5. Infection Control",
	"6. Nutrition",
	"7. Behavioral Health",
}

// ItemHeader is the item-table header row used by the fixtures.
var ItemHeader = []any{"Item #", "Criteria", "Max Points", "Charts Met", "Sample Size", "Notes"}

// SNF describes an SNF workbook. Nil fields are left off the overview.
type SNF struct {
	Facility any
	Month    any
	Year     any

	// Systems defaults to all seven when zero.
	Systems int

	// Met and Sample are used for the single 100-point item on each system
	// sheet. Defaults are 4 and 5 (80 points).
	Met    any
	Sample any
}

// Build encodes the workbook.
func (s SNF) Build() []byte {
	overview := [][]any{{"Clinical Systems Overview"}}
	if s.Facility != nil {
		overview = append(overview, []any{"Facility Name:", s.Facility})
	}
	if s.Month != nil {
		overview = append(overview, []any{"Month:", s.Month})
	}
	if s.Year != nil {
		overview = append(overview, []any{"Year:", s.Year})
	}

	n := s.Systems
	if n == 0 {
		n = len(SNFSystems)
	}
	met, sample := s.Met, s.Sample
	if met == nil {
		met = 4
	}
	if sample == nil {
		sample = 5
	}

	sheets := []workbook.SheetData{{Name: "Clinical Systems Overview", Rows: overview}}
	for i := 0; i < n; i++ {
		sheets = append(sheets, workbook.SheetData{
			Name: SNFSystems[i],
			Rows: [][]any{
				{SNFSystems[i]},
				ItemHeader,
				{"1", fmt.Sprintf("System %d documentation complete", i+1), 100, met, sample, ""},
				{"Total", nil, 100},
			},
		})
	}
	return mustEncode(sheets...)
}

// KEVCategories are the four KEV quality category sheet names.
var KEVCategories = []string{"Abuse & Grievances", "Infection Control", "Falls", "Medication"}

// KEV describes a KEV Mini or Hybrid workbook.
type KEV struct {
	Hybrid       bool
	Facility     any
	ReviewPeriod any

	// Declared maps a category name (or "Overall Score") to its cover value.
	Declared [][]any
}

// Build encodes the workbook. Each category sheet holds three items: a
// binary item marked "Y=1/N=0" (10 points, met), a sampled item (20 points,
// 3 of 4), and a binary item with a literal sample of 1 (5 points, not met).
func (k KEV) Build() []byte {
	coverName := "KEV Mini Cover Sheet"
	if k.Hybrid {
		coverName = "Cover Sheet"
	}

	cover := [][]any{{coverName}}
	if k.Facility != nil {
		cover = append(cover, []any{"Facility Name", k.Facility})
	}
	if k.ReviewPeriod != nil {
		cover = append(cover, []any{"Review Period", k.ReviewPeriod})
	}
	cover = append(cover, []any{}, []any{"Category", "Score"})
	cover = append(cover, k.Declared...)

	sheets := []workbook.SheetData{{Name: coverName, Rows: cover}}
	for _, name := range KEVCategories {
		sheets = append(sheets, workbook.SheetData{
			Name: name,
			Rows: [][]any{
				{name},
				ItemHeader,
				{"1", "Policy posted", 10, "Y", "Y=1/N=0"},
				{"2", "Log reviewed", 20, 3, 4},
				{"3", "Staff trained", 5, "N", 1},
			},
		})
	}
	sheets = append(sheets, workbook.SheetData{Name: "Instructions", Rows: [][]any{{"Fill in every category"}}})
	return mustEncode(sheets...)
}

func mustEncode(sheets ...workbook.SheetData) []byte {
	data, err := workbook.Encode(sheets...)
	if err != nil {
		panic(err)
	}
	return data
}

// Encode is workbook.Encode for ad-hoc fixtures; it panics on error.
func Encode(sheets ...workbook.SheetData) []byte {
	return mustEncode(sheets...)
}
