// =============================================================================
// Scorecard Import - Duplicate Detection
// =============================================================================
//
// Within one batch, files that resolve to the same facility and the same
// month and year are duplicates: only one of them should be imported. This
// runs over the whole validated set after facility resolution.
//
// GROUP IDS:
//   UUIDv5 of the grouping key, so re-running a batch yields the same ids.
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ginjaninja78/scorecard-import/internal/facility"
)

// duplicateNamespace seeds the deterministic group ids.
var duplicateNamespace = uuid.MustParse("6f1c4d2e-8a3b-5c7d-9e0f-1a2b3c4d5e6f")

// =============================================================================
// GROUPING KEY
// =============================================================================

// DuplicateKey returns the grouping key of a result, or "" when the
// facility or period is unresolved. With a facility directory the key is the
// facility ID; without one it is the normalized facility name.
func DuplicateKey(r Result) string {
	if r.Month == nil || r.Year == nil || r.NeedsFacilityOverride {
		return ""
	}

	facilityKey := r.FacilityID
	if facilityKey == "" {
		if n := facility.NormalizeName(r.FacilityName); n != "" {
			facilityKey = "name:" + n
		}
	}
	if facilityKey == "" {
		return ""
	}
	return fmt.Sprintf("%s|%04d-%02d", facilityKey, *r.Year, *r.Month)
}

// =============================================================================
// GROUP ASSIGNMENT
// =============================================================================

// AssignDuplicateGroups returns a copy of results in which every set of two
// or more files sharing (facility, month, year) carries the same
// DuplicateGroup id and a warning naming the other files. The id is a UUIDv5
// of the key, so the same batch always yields the same ids.
func AssignDuplicateGroups(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)

	members := make(map[string][]int)
	for i, r := range out {
		out[i].DuplicateGroup = ""
		if key := DuplicateKey(r); key != "" {
			members[key] = append(members[key], i)
		}
	}

	keys := make([]string, 0, len(members))
	for key := range members {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		idx := members[key]
		if len(idx) < 2 {
			continue
		}
		group := uuid.NewSHA1(duplicateNamespace, []byte(key)).String()

		for _, i := range idx {
			var others []string
			for _, j := range idx {
				if j != i {
					others = append(others, out[j].Filename)
				}
			}

			r := out[i]
			r.Issues = append([]Issue(nil), r.Issues...)
			r.Warnings = append([]string(nil), r.Warnings...)
			r.DuplicateGroup = group
			r.add(Issue{
				Severity: SeverityWarning,
				Rule:     RuleDuplicate,
				Message: fmt.Sprintf("same facility and period as %s; only one should be imported",
					strings.Join(others, ", ")),
			})
			out[i] = r
		}
	}

	return out
}
