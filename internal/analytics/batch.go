package analytics

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"unicode/utf8"

	"sentimen/internal/domain"
)

// Classifier is the single-item classification primitive the aggregations
// depend on. Each call may be the dominant cost of a batch.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Prediction, error)
}

// minRecordLength is the trimmed rune count below which a record is skipped
// entirely: not classified, not counted, not in the result list.
const minRecordLength = 3

const defaultBatchLimit = 1000

// BatchRecord is one raw input row. Entity is optional; when any record
// carries one, per-entity statistics and insights are produced.
type BatchRecord struct {
	Text   string
	Entity string
}

// BatchResult is the full outcome of a batch aggregation.
type BatchResult struct {
	Records     []domain.ClassificationRecord
	Counts      domain.LabelCounts
	HasEntities bool
	// Groups preserves first-seen entity order; that order breaks ties in
	// insight selection.
	Groups   []domain.EntityGroup
	Insights []domain.Insight
}

// Aggregator classifies an ordered batch of records and derives grouped
// statistics and insights.
type Aggregator struct {
	classifier Classifier
	words      *WordFrequency
	limit      int
}

func NewAggregator(classifier Classifier, words *WordFrequency, limit int) *Aggregator {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	return &Aggregator{classifier: classifier, words: words, limit: limit}
}

// Run processes records in order, capped at the aggregator's limit (rows
// past the cap are silently dropped). A classifier failure on any record
// fails the whole batch; partial results are never reported as success.
func (a *Aggregator) Run(ctx context.Context, records []BatchRecord) (*BatchResult, error) {
	if len(records) > a.limit {
		records = records[:a.limit]
	}

	result := &BatchResult{}
	groupIndex := make(map[string]int)
	var negativeTexts []string

	for _, rec := range records {
		text := strings.TrimSpace(rec.Text)
		if utf8.RuneCountInString(text) < minRecordLength {
			continue
		}

		pred, err := a.classifier.Classify(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("classifying record: %w", err)
		}

		result.Records = append(result.Records, domain.ClassificationRecord{
			Text:       text,
			Entity:     rec.Entity,
			Label:      pred.Label,
			Confidence: pred.Confidence,
		})
		result.Counts.Add(pred.Label)

		if rec.Entity != "" {
			result.HasEntities = true
			idx, ok := groupIndex[rec.Entity]
			if !ok {
				idx = len(result.Groups)
				groupIndex[rec.Entity] = idx
				result.Groups = append(result.Groups, domain.EntityGroup{Name: rec.Entity})
			}
			result.Groups[idx].Counts.Add(pred.Label)
			result.Groups[idx].Total++
		}
		if pred.Label == domain.LabelNegative {
			negativeTexts = append(negativeTexts, strings.ToLower(text))
		}
	}

	for i := range result.Groups {
		g := &result.Groups[i]
		g.PositivePct = Percent(g.Counts.Positive, g.Total)
		g.NegativePct = Percent(g.Counts.Negative, g.Total)
	}

	if result.HasEntities && len(result.Groups) > 0 {
		result.Insights = a.buildInsights(result.Groups, negativeTexts)
	}

	log.Printf("batch aggregate processed=%d entities=%d insights=%d",
		len(result.Records), len(result.Groups), len(result.Insights))
	return result, nil
}

const attentionThresholdPct = 30

func (a *Aggregator) buildInsights(groups []domain.EntityGroup, negativeTexts []string) []domain.Insight {
	var insights []domain.Insight

	best := groups[0]
	for _, g := range groups[1:] {
		if g.PositivePct > best.PositivePct {
			best = g
		}
	}
	insights = append(insights, domain.Insight{
		Kind:    domain.InsightSuccess,
		Icon:    "🌟",
		Title:   "Produk Terbaik",
		Message: fmt.Sprintf("%s memiliki %d%% review positif!", best.Name, best.PositivePct),
	})

	worst := groups[0]
	for _, g := range groups[1:] {
		if g.NegativePct > worst.NegativePct {
			worst = g
		}
	}
	if worst.NegativePct > attentionThresholdPct {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightWarning,
			Icon:    "⚠️",
			Title:   "Perlu Perhatian",
			Message: fmt.Sprintf("%s mendapat %d%% review negatif. Perlu ditingkatkan.", worst.Name, worst.NegativePct),
		})
	}

	if len(negativeTexts) > 0 {
		keywords := a.words.TopTerms(strings.Join(negativeTexts, " "), 3)
		if len(keywords) > 0 {
			quoted := make([]string, len(keywords))
			for i, kw := range keywords {
				quoted[i] = fmt.Sprintf("%q", kw.Text)
			}
			insights = append(insights, domain.Insight{
				Kind:    domain.InsightInfo,
				Icon:    "💡",
				Title:   "Keluhan Umum",
				Message: fmt.Sprintf("Kata yang sering muncul di review negatif: %s", strings.Join(quoted, ", ")),
			})
		}
	}

	return insights
}

// Percent derives a rounded integer percentage; ties round away from zero.
// Every percentage in the system goes through this one rule so recomputing
// from raw counts reproduces stored values.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
