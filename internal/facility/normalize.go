// =============================================================================
// Scorecard Import - Facility Name Normalization
// =============================================================================
//
// Facility names arrive hand-typed on scorecards ("Sunrise Manor Nursing
// Center", "SUNRISE MANOR", "Sunrise Manor, LLC"). NormalizeName reduces a
// name to the tokens that identify the facility so the matcher compares like
// with like.
//
// STEPS:
//   1. Decompose and drop combining marks (accents)
//   2. Expand "&" to "and" and fold case
//   3. Split on anything that is not a letter or digit
//   4. Drop noise words naming the kind of facility or its legal form
//
// =============================================================================

package facility

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseWords are dropped from facility names before comparison.
var noiseWords = map[string]bool{
	"the": true, "of": true, "at": true,
	"llc": true, "inc": true, "corp": true, "ltd": true, "lp": true,
	"nursing": true, "center": true, "centre": true, "home": true,
	"rehab": true, "rehabilitation": true, "healthcare": true,
	"skilled": true, "snf": true, "facility": true,
}

// NormalizeName folds case, strips accents and punctuation, expands "&" and
// removes noise words. If every token is noise the folded tokens are kept so
// a name never normalizes to nothing.
//
// Transformers and Casers hold state, so both are built per call and the
// function is safe for concurrent use.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	folded := cases.Fold().String(strings.ReplaceAll(stripped, "&", " and "))

	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !noiseWords[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		kept = tokens
	}
	return strings.Join(kept, " ")
}
