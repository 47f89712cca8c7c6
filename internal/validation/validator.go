// =============================================================================
// Scorecard Import - Validation Engine
// =============================================================================
//
// This module checks a parsed scorecard before it may be imported and tells
// the reviewer what must be fixed.
//
// VALIDATION LEVELS:
//   1. File-level:     format recognised, facility resolved, month and year
//   2. Section-level:  expected number of sections present
//   3. Item-level:     charts met never exceeds sample size
//   4. Score-level:    declared cover-sheet total agrees with categories
//   5. Batch-level:    duplicate (facility, month, year) submissions
//                      (see duplicates.go)
//
// ERROR HANDLING:
//   - Issues are collected, never thrown. A file with any "error" issue is
//     invalid; "warning" issues are reported but do not block the import.
//   - Missing facility or date sets a Needs*Override flag so the reviewer
//     can supply the value. Revalidation with overrides needs no re-parse.
//
// Validate is a pure function of its inputs.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/scorecard-import/internal/facility"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
)

// =============================================================================
// ISSUES
// =============================================================================

// Severity of an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule names the check that produced an Issue.
type Rule string

const (
	RuleUnreadable         Rule = "unreadable_file"
	RuleUnknownFormat      Rule = "unknown_format"
	RuleMissingFacility    Rule = "missing_facility"
	RuleUnknownFacility    Rule = "unknown_facility"
	RuleUnverifiedFacility Rule = "unverified_facility"
	RuleLowFacilityMatch   Rule = "low_facility_match"
	RuleMissingMonth       Rule = "missing_month"
	RuleInvalidMonth       Rule = "invalid_month"
	RuleMissingYear        Rule = "missing_year"
	RuleDefaultedYear      Rule = "defaulted_year"
	RuleMissingSections    Rule = "missing_sections"
	RuleEmptySection       Rule = "empty_section"
	RuleChartsExceedSample Rule = "charts_exceed_sample"
	RuleNegativeCount      Rule = "negative_count"
	RuleScoreMismatch      Rule = "score_mismatch"
	RuleSectionMismatch    Rule = "section_score_mismatch"
	RuleFractionalCount    Rule = "fractional_count"
	RuleDuplicate          Rule = "duplicate_submission"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Rule     Rule     `json:"rule"`
	Message  string   `json:"message"`

	// Section and Row locate item-level issues; Row is 1-based, 0 if unset.
	Section string `json:"section,omitempty"`
	Row     int    `json:"row,omitempty"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	if i.Row > 0 {
		return fmt.Sprintf("[%s] %s (sheet %q, row %d)", strings.ToUpper(string(i.Severity)), i.Message, i.Section, i.Row)
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(i.Severity)), i.Message)
}

// =============================================================================
// INPUTS AND RESULT
// =============================================================================

// Overrides are reviewer-supplied values. A non-nil field replaces the
// extracted value.
type Overrides struct {
	FacilityID   *string `json:"facilityId,omitempty"`
	FacilityName *string `json:"facilityName,omitempty"`
	Month        *int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,min=2000,max=2100"`
}

// Policy holds the configurable validation thresholds.
type Policy struct {
	// DefaultYear is applied when neither sheet nor override has a year.
	// Zero disables the default.
	DefaultYear int `validate:"omitempty,min=2000,max=2100"`

	// RequireYear turns a missing or defaulted year into an error.
	RequireYear bool

	// MatchThreshold is the lowest facility similarity accepted without
	// review, in [0, 1].
	MatchThreshold float64 `validate:"min=0,max=1"`
}

// DefaultMatchThreshold is the facility similarity below which a reviewer
// must confirm the facility.
const DefaultMatchThreshold = 0.6

// DefaultPolicy returns the standard policy.
func DefaultPolicy() Policy {
	return Policy{MatchThreshold: DefaultMatchThreshold}
}

// Result is the validation outcome for one file.
type Result struct {
	Filename string           `json:"filename"`
	Format   scorecard.Format `json:"format,omitempty"`
	IsValid  bool             `json:"isValid"`
	Errors   []string         `json:"errors"`
	Warnings []string         `json:"warnings"`
	Issues   []Issue          `json:"issues,omitempty"`

	NeedsDateOverride     bool `json:"needsDateOverride"`
	NeedsFacilityOverride bool `json:"needsFacilityOverride"`

	// DuplicateGroup is shared by every file with the same facility and
	// period. Empty when the file has no duplicate.
	DuplicateGroup string `json:"duplicateGroup,omitempty"`

	// Resolved values after overrides and facility matching.
	FacilityID      string             `json:"facilityId,omitempty"`
	FacilityName    string             `json:"facilityName,omitempty"`
	MatchedFacility *facility.Facility `json:"matchedFacility,omitempty"`
	MatchScore      float64            `json:"matchScore,omitempty"`
	Month           *int               `json:"month,omitempty"`
	Year            *int               `json:"year,omitempty"`
}

func (r *Result) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.Errors = append(r.Errors, issue.Message)
		r.IsValid = false
	} else {
		r.Warnings = append(r.Warnings, issue.Message)
	}
}

func (r *Result) errorf(rule Rule, format string, args ...any) {
	r.add(Issue{Severity: SeverityError, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) warnf(rule Rule, format string, args ...any) {
	r.add(Issue{Severity: SeverityWarning, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func newResult(filename string) Result {
	return Result{Filename: filename, IsValid: true, Errors: []string{}, Warnings: []string{}}
}

// Failed builds the result for a file that could not be parsed at all.
func Failed(filename string, err error) Result {
	r := newResult(filename)
	rule := RuleUnreadable
	var unknown *scorecard.UnknownFormatError
	if errors.As(err, &unknown) {
		rule = RuleUnknownFormat
	}
	r.errorf(rule, "%v", err)
	return r
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks one parsed scorecard.
//
// PARAMETERS:
//   - card: The scored card from the parser.
//   - ov: Reviewer overrides; the zero value means none.
//   - dir: The facility directory. Nil or empty skips facility matching.
//   - policy: Thresholds.
//
// RETURNS:
//   - The Result. It never fails; problems are reported as issues.
func Validate(card *scorecard.ParsedScorecard, ov Overrides, dir *facility.Directory, policy Policy) Result {
	if card == nil {
		r := newResult("")
		r.errorf(RuleUnreadable, "no scorecard")
		return r
	}

	r := newResult(card.SourceFilename)
	r.Format = card.Format

	if card.Format == scorecard.FormatUnknown || card.Format == "" {
		r.errorf(RuleUnknownFormat, "unrecognized scorecard format")
	}

	resolveFacility(&r, card, ov, dir, policy)
	resolvePeriod(&r, card, ov, policy)
	checkSections(&r, card)
	checkItems(&r, card)

	if m := card.ScoreMismatch; m != nil {
		r.warnf(RuleScoreMismatch,
			"declared overall score %.1f%% differs from the item-derived category average %.1f%% by %.1f points",
			m.Overall, m.CategoryAvg, m.Difference)
	}

	return r
}

// resolveFacility applies the facility override or fuzzy-matches the
// extracted name against the directory.
func resolveFacility(r *Result, card *scorecard.ParsedScorecard, ov Overrides, dir *facility.Directory, policy Policy) {
	if ov.FacilityID != nil && strings.TrimSpace(*ov.FacilityID) != "" {
		id := strings.TrimSpace(*ov.FacilityID)
		if dir.Len() == 0 {
			// Nothing to check against; take the reviewer's ID as given.
			r.FacilityID = id
			r.FacilityName = overrideOrExtractedName(card, ov)
			r.warnf(RuleUnverifiedFacility, "facility id %q accepted without a facility directory", id)
			return
		}
		f, ok := dir.Lookup(id)
		if !ok {
			r.errorf(RuleUnknownFacility, "facility id %q is not in the facility directory", id)
			r.NeedsFacilityOverride = true
			return
		}
		r.FacilityID = f.ID
		r.FacilityName = f.Name
		r.MatchedFacility = &f
		r.MatchScore = 1
		return
	}

	name := overrideOrExtractedName(card, ov)
	if name == "" {
		r.add(Issue{
			Severity: SeverityError,
			Rule:     RuleMissingFacility,
			Message:  (&scorecard.MissingRequiredFieldError{Field: "facility"}).Error(),
		})
		r.NeedsFacilityOverride = true
		return
	}
	r.FacilityName = name

	if dir.Len() == 0 {
		return
	}

	m, ok := dir.Match(name)
	if !ok {
		return
	}
	r.MatchedFacility = &m.Facility
	r.MatchScore = m.Score

	if m.Score < policy.MatchThreshold {
		r.warnf(RuleLowFacilityMatch,
			"facility %q best matches %q with low confidence (%.2f); please confirm",
			name, m.Facility.Name, m.Score)
		r.NeedsFacilityOverride = true
		return
	}
	r.FacilityID = m.Facility.ID
	r.FacilityName = m.Facility.Name
}

func overrideOrExtractedName(card *scorecard.ParsedScorecard, ov Overrides) string {
	switch {
	case ov.FacilityName != nil:
		return strings.TrimSpace(*ov.FacilityName)
	case card.FacilityName != nil:
		return strings.TrimSpace(*card.FacilityName)
	}
	return ""
}

// resolvePeriod applies month and year overrides and the year policy.
func resolvePeriod(r *Result, card *scorecard.ParsedScorecard, ov Overrides, policy Policy) {
	month := card.Month
	if ov.Month != nil {
		month = ov.Month
	}
	switch {
	case month == nil:
		r.add(Issue{
			Severity: SeverityError,
			Rule:     RuleMissingMonth,
			Message:  (&scorecard.MissingRequiredFieldError{Field: "month"}).Error(),
		})
		r.NeedsDateOverride = true
	case *month < 1 || *month > 12:
		r.errorf(RuleInvalidMonth, "month %d is out of range 1-12", *month)
		r.NeedsDateOverride = true
	default:
		r.Month = scorecard.Int(*month)
	}

	year, defaulted := card.Year, card.YearDefaulted
	if ov.Year != nil {
		year, defaulted = ov.Year, false
	}
	if year == nil && policy.DefaultYear != 0 {
		year, defaulted = scorecard.Int(policy.DefaultYear), true
	}

	switch {
	case year == nil && policy.RequireYear:
		r.add(Issue{
			Severity: SeverityError,
			Rule:     RuleMissingYear,
			Message:  (&scorecard.MissingRequiredFieldError{Field: "year"}).Error(),
		})
		r.NeedsDateOverride = true
		return
	case year == nil:
		r.warnf(RuleMissingYear, "year not found on the scorecard")
		return
	case defaulted && policy.RequireYear:
		r.errorf(RuleDefaultedYear, "year not found on the scorecard (default %d not accepted)", *year)
		r.NeedsDateOverride = true
		return
	case defaulted:
		r.warnf(RuleDefaultedYear, "year not found on the scorecard; using %d", *year)
	}
	r.Year = scorecard.Int(*year)
}

func checkSections(r *Result, card *scorecard.ParsedScorecard) {
	expected := card.Format.ExpectedSections()
	if expected > 0 && len(card.Sections) < expected {
		r.warnf(RuleMissingSections, "found %d of %d expected sections", len(card.Sections), expected)
	}
	for _, s := range card.Sections {
		if len(s.Items) == 0 {
			r.add(Issue{
				Severity: SeverityWarning,
				Rule:     RuleEmptySection,
				Message:  fmt.Sprintf("section %q has no scored items", s.Name),
				Section:  s.SheetName,
			})
		}
		if s.DeclaredGap != nil && s.DeclaredPercentage != nil {
			r.add(Issue{
				Severity: SeverityWarning,
				Rule:     RuleSectionMismatch,
				Message: fmt.Sprintf("section %q declares %.1f%% but its items score %.1f%% (%.1f points apart)",
					s.Name, *s.DeclaredPercentage, s.Percentage, *s.DeclaredGap),
				Section: s.SheetName,
			})
		}
	}
}

// checkItems flags count violations. Points are already clamped by scoring;
// the raw values are reported here so nothing is corrected silently.
func checkItems(r *Result, card *scorecard.ParsedScorecard) {
	for _, s := range card.Sections {
		for _, item := range s.Items {
			if item.FractionalCount {
				r.add(Issue{
					Severity: SeverityError,
					Rule:     RuleFractionalCount,
					Message:  fmt.Sprintf("%s item %s: charts met and sample size must be whole numbers", s.Name, item.ItemNumber),
					Section:  s.SheetName,
					Row:      item.Row,
				})
				continue
			}
			if (item.ChartsMet != nil && *item.ChartsMet < 0) || (item.SampleSize != nil && *item.SampleSize < 0) {
				r.add(Issue{
					Severity: SeverityError,
					Rule:     RuleNegativeCount,
					Message:  fmt.Sprintf("%s item %s has a negative count", s.Name, item.ItemNumber),
					Section:  s.SheetName,
					Row:      item.Row,
				})
				continue
			}
			if item.ChartsMet != nil && item.SampleSize != nil && *item.ChartsMet > *item.SampleSize {
				r.add(Issue{
					Severity: SeverityError,
					Rule:     RuleChartsExceedSample,
					Message: fmt.Sprintf("%s item %s: charts met (%d) exceeds sample size (%d)",
						s.Name, item.ItemNumber, *item.ChartsMet, *item.SampleSize),
					Section: s.SheetName,
					Row:     item.Row,
				})
			}
		}
	}
}
