// =============================================================================
// Scorecard Import - Facility Matching
// =============================================================================
//
// Resolves a scorecard's free-text facility name to a directory entry. Both
// sides are normalized first (see NormalizeName), then scored.
//
// =============================================================================

package facility

import (
	"math"
	"strings"

	"github.com/agext/levenshtein"
)

// Match is the best directory entry for a scorecard's facility name.
type Match struct {
	Facility Facility
	// Score is in [0, 1]; 1 means the normalized names are identical.
	Score float64
}

// =============================================================================
// DIRECTORY LOOKUP
// =============================================================================

// Match resolves a free-text facility name against the directory. Each
// facility is scored against its name and aliases; the highest score wins
// and ties go to the lowest ID, so the result does not depend on load order.
//
// It returns false when the name is empty or the directory has no entries.
func (d *Directory) Match(name string) (Match, bool) {
	query := NormalizeName(name)
	if query == "" || d.Len() == 0 {
		return Match{}, false
	}

	best := Match{Score: -1}
	for i, f := range d.facilities {
		score := 0.0
		for _, candidate := range d.normalized[i] {
			score = math.Max(score, Similarity(query, candidate))
		}
		if score > best.Score || (score == best.Score && f.ID < best.Facility.ID) {
			best = Match{Facility: f, Score: score}
		}
	}
	return best, true
}

// =============================================================================
// SIMILARITY
// =============================================================================

// Similarity scores two normalized names as the better of token-set Jaccard
// and normalized Levenshtein similarity. Jaccard forgives word order
// ("Manor Sunrise"); Levenshtein forgives typos ("Sunrse Manor").
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return math.Max(jaccard(a, b), levenshtein.Similarity(a, b, nil))
}

func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
