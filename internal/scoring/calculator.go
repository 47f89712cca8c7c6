// =============================================================================
// Scorecard Import - Score Calculator
// =============================================================================
//
// This module derives point totals from extracted raw values.
//
// POINT FORMULA (canonical, used everywhere):
//
//   pointsEarned = (sampleSize > 0 and chartsMet is not null)
//                    ? clamp(maxPoints / sampleSize * chartsMet, 0, maxPoints)
//                    : 0
//
// ROUNDING:
//   Values are rounded to one decimal place only at reporting boundaries
//   (item, section, total). Sums are always taken over unrounded values so
//   rounding error does not compound.
//
// COVER-SHEET OVERRIDE:
//   When a workbook declares an overall percentage (KEV cover sheet), the
//   declared value is reported as the score. The category average is always
//   taken from item-derived section percentages, and a ScoreMismatch is
//   attached whenever it and the declared overall diverge by more than the
//   threshold. A declared category percentage that disagrees with its items
//   is recorded on the section as DeclaredGap.
//
// =============================================================================

package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
)

// DefaultMismatchThreshold is the allowed gap, in percentage points, between
// a declared overall and the category average.
const DefaultMismatchThreshold = 2.0

// =============================================================================
// ITEM LEVEL
// =============================================================================

// PointsEarned applies the point formula without rounding.
//
// PARAMETERS:
//   - maxPoints: The weight of the criterion.
//   - chartsMet: Records meeting the criterion, or nil when unscored.
//   - sampleSize: Records sampled, or nil.
//
// RETURNS:
//   - The earned points, clamped to [0, maxPoints]. Zero when the item is
//     unscored or the sample is empty.
func PointsEarned(maxPoints float64, chartsMet, sampleSize *int) float64 {
	if chartsMet == nil || sampleSize == nil || *sampleSize <= 0 {
		return 0
	}
	raw := maxPoints / float64(*sampleSize) * float64(*chartsMet)
	return math.Min(math.Max(raw, 0), maxPoints)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// Percentage returns earned/max*100, or 0 when max is not positive.
func Percentage(earned, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return earned / max * 100
}

// =============================================================================
// SCORECARD LEVEL
// =============================================================================

// Compute returns a copy of card with item, section and total scores filled
// in, using DefaultMismatchThreshold.
func Compute(card *scorecard.ParsedScorecard) *scorecard.ParsedScorecard {
	return ComputeWithThreshold(card, DefaultMismatchThreshold)
}

// ComputeWithThreshold is Compute with an explicit mismatch threshold.
//
// The input is not modified. Sections and items are copied so the result
// can be handed to another goroutine without sharing.
func ComputeWithThreshold(card *scorecard.ParsedScorecard, threshold float64) *scorecard.ParsedScorecard {
	if card == nil {
		return nil
	}

	out := *card
	out.Sections = make([]scorecard.SectionResult, len(card.Sections))
	out.ScoreOverride = false
	out.ScoreMismatch = nil

	var totalRaw, totalMax float64
	sectionPcts := make([]float64, 0, len(card.Sections))

	for i, section := range card.Sections {
		s := section
		s.Items = make([]scorecard.AuditItem, len(section.Items))

		var sectionRaw, sectionMax float64
		for j, item := range section.Items {
			raw := PointsEarned(item.MaxPoints, item.ChartsMet, item.SampleSize)
			item.PointsEarned = Round1(raw)
			s.Items[j] = item

			sectionRaw += raw
			sectionMax += item.MaxPoints
		}

		computedPct := Percentage(sectionRaw, sectionMax)
		s.PointsEarned = Round1(sectionRaw)
		s.MaxPoints = Round1(sectionMax)
		s.Percentage = Round1(computedPct)
		out.Sections[i] = s

		s.DeclaredGap = nil
		if s.DeclaredPercentage != nil {
			s.DeclaredGap = gap(*s.DeclaredPercentage, computedPct, threshold)
		}
		sectionPcts = append(sectionPcts, computedPct)

		totalRaw += sectionRaw
		totalMax += sectionMax
	}

	out.TotalScore = Round1(totalRaw)
	out.TotalMaxPoints = Round1(totalMax)
	out.ScorePercentage = Round1(Percentage(totalRaw, totalMax))

	if card.DeclaredOverall != nil {
		declared := *card.DeclaredOverall
		out.ScoreOverride = true
		out.ScorePercentage = Round1(declared)
		out.TotalScore = Round1(declared / 100 * totalMax)
		out.ScoreMismatch = Reconcile(declared, sectionPcts, threshold)
	}

	return &out
}

// gap returns |declared - computed| rounded to one decimal, or nil when it
// is within threshold.
func gap(declared, computed, threshold float64) *float64 {
	diff := decimal.NewFromFloat(declared).Sub(decimal.NewFromFloat(computed)).Abs().Round(1)
	if !diff.GreaterThan(decimal.NewFromFloat(threshold)) {
		return nil
	}
	return scorecard.Float(diff.InexactFloat64())
}

// Reconcile compares a declared overall percentage with the mean of the
// item-derived category percentages. It returns nil when there are no categories or the
// gap is within threshold.
func Reconcile(declared float64, categoryPcts []float64, threshold float64) *scorecard.ScoreMismatch {
	if len(categoryPcts) == 0 {
		return nil
	}

	sum := decimal.Zero
	for _, p := range categoryPcts {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(categoryPcts))))
	diff := decimal.NewFromFloat(declared).Sub(avg).Abs().Round(1)

	if !diff.GreaterThan(decimal.NewFromFloat(threshold)) {
		return nil
	}

	return &scorecard.ScoreMismatch{
		Overall:     Round1(declared),
		CategoryAvg: avg.Round(1).InexactFloat64(),
		Difference:  diff.InexactFloat64(),
	}
}
