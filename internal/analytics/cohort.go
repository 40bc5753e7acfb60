package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"sentimen/internal/domain"
)

// ErrInsufficientData is returned when a cohort has no usable records after
// the minimum-length filter. Callers report it as its own condition, not as
// a validation or adapter failure.
var ErrInsufficientData = errors.New("insufficient data: no usable records in cohort")

const defaultCohortLimit = 30

// Comparator runs two reduced aggregations (no entity grouping) and builds
// a comparative verdict. The per-side cap stays small because two full
// classification passes happen before any answer is available.
type Comparator struct {
	classifier Classifier
	limit      int
}

func NewComparator(classifier Classifier, limit int) *Comparator {
	if limit <= 0 {
		limit = defaultCohortLimit
	}
	return &Comparator{classifier: classifier, limit: limit}
}

// BattleResult pairs the two cohort aggregations with their verdict.
type BattleResult struct {
	BrandA  domain.CohortResult `json:"brand_a"`
	BrandB  domain.CohortResult `json:"brand_b"`
	Verdict domain.Verdict      `json:"verdict"`
}

// Compare analyzes both cohorts and derives the verdict. Either side
// yielding zero usable records fails with ErrInsufficientData rather than
// producing degenerate percentages.
func (c *Comparator) Compare(ctx context.Context, cohortA, cohortB []string) (*BattleResult, error) {
	resultA, err := c.analyze(ctx, cohortA)
	if err != nil {
		return nil, fmt.Errorf("cohort A: %w", err)
	}
	resultB, err := c.analyze(ctx, cohortB)
	if err != nil {
		return nil, fmt.Errorf("cohort B: %w", err)
	}
	return &BattleResult{
		BrandA:  resultA,
		BrandB:  resultB,
		Verdict: BuildVerdict(resultA, resultB),
	}, nil
}

func (c *Comparator) analyze(ctx context.Context, texts []string) (domain.CohortResult, error) {
	if len(texts) > c.limit {
		texts = texts[:c.limit]
	}

	var result domain.CohortResult
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if utf8.RuneCountInString(text) < minRecordLength {
			continue
		}
		pred, err := c.classifier.Classify(ctx, text)
		if err != nil {
			return domain.CohortResult{}, fmt.Errorf("classifying: %w", err)
		}
		result.Counts.Add(pred.Label)
		result.Total++
	}
	if result.Total == 0 {
		return domain.CohortResult{}, ErrInsufficientData
	}
	result.PositivePct = Percent(result.Counts.Positive, result.Total)
	return result, nil
}

// BuildVerdict evaluates the gap thresholds in priority order. The tier is
// a non-decreasing function of the gap.
func BuildVerdict(a, b domain.CohortResult) domain.Verdict {
	gap := a.PositivePct - b.PositivePct

	var tier domain.VerdictTier
	var title, message string
	switch {
	case gap > 10:
		tier = domain.TierDominating
		title = "Dominating! 🏆"
		message = "Brand Anda jauh lebih unggul dalam sentimen positif."
	case gap > 0:
		tier = domain.TierLeadingNarrowly
		title = "Leading Narrowly 👍"
		message = "Brand Anda sedikit lebih unggul, namun kompetisi ketat."
	case gap > -10:
		tier = domain.TierCloseCall
		title = "Close Call 🤝"
		message = "Sentimen berimbang. Cek keluhan untuk finding gap."
	default:
		tier = domain.TierFallingBehind
		title = "Falling Behind ⚠️"
		message = "Kompetitor lebih disukai. Pelajari strategi mereka."
	}

	return domain.Verdict{Tier: tier, Title: title, Message: message, Gap: gap}
}
