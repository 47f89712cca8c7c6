package batch

import (
	"github.com/ginjaninja78/scorecard-import/internal/facility"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
)

// ValidateAll validates every parse result and then assigns duplicate
// groups across the batch. Parse failures become invalid results. overrides
// is keyed by filename; a missing entry means no overrides for that file.
//
// The returned slice has one entry per result, in the same order.
func ValidateAll(results []FileResult, overrides map[string]validation.Overrides, dir *facility.Directory, policy validation.Policy) []validation.Result {
	out := make([]validation.Result, len(results))
	for i, r := range results {
		if r.Status != StatusSuccess || r.Scorecard == nil {
			out[i] = validation.Failed(r.Filename, r.Err)
			continue
		}
		out[i] = validation.Validate(r.Scorecard, overrides[r.Filename], dir, policy)
	}
	return validation.AssignDuplicateGroups(out)
}

// Summary counts the outcome of a validated batch.
type Summary struct {
	Total       int `json:"total"`
	Parsed      int `json:"parsed"`
	Failed      int `json:"failed"`
	Valid       int `json:"valid"`
	Invalid     int `json:"invalid"`
	NeedsReview int `json:"needsReview"`
	Duplicates  int `json:"duplicates"`
}

// Summarize counts parse and validation outcomes. results and validated must
// be parallel slices as returned by Process and ValidateAll.
func Summarize(results []FileResult, validated []validation.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Parsed++
		} else {
			s.Failed++
		}
	}
	for _, v := range validated {
		if v.IsValid {
			s.Valid++
		} else {
			s.Invalid++
		}
		if v.NeedsDateOverride || v.NeedsFacilityOverride {
			s.NeedsReview++
		}
		if v.DuplicateGroup != "" {
			s.Duplicates++
		}
	}
	return s
}
