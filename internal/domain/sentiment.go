package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Label is one of the three sentiment classes. The string values match the
// wire format the model server and the original dataset use.
type Label string

const (
	LabelPositive Label = "Positif"
	LabelNegative Label = "Negatif"
	LabelNeutral  Label = "Netral"
)

func (l Label) Valid() bool {
	return l == LabelPositive || l == LabelNegative || l == LabelNeutral
}

// ParseLabel normalizes a label string. English spellings are accepted
// because LLM providers tend to answer in English regardless of prompt.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positif", "positive":
		return LabelPositive, true
	case "negatif", "negative":
		return LabelNegative, true
	case "netral", "neutral":
		return LabelNeutral, true
	}
	return "", false
}

// Prediction is a single classifier result for one text.
type Prediction struct {
	Label      Label
	Confidence float64
}

// AspectSentiment is one aspect-level result from the classifier.
type AspectSentiment struct {
	Aspect string `json:"aspect"`
	Label  Label  `json:"sentiment"`
}

// ClassificationRecord is one classified input item, kept in input order.
type ClassificationRecord struct {
	Text       string  `json:"text"`
	Entity     string  `json:"product,omitempty"`
	Label      Label   `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// LabelCounts holds per-label tallies. All three labels are always present
// in the JSON form, defaulting to zero.
type LabelCounts struct {
	Positive int `json:"Positif"`
	Negative int `json:"Negatif"`
	Neutral  int `json:"Netral"`
}

func (c *LabelCounts) Add(l Label) {
	switch l {
	case LabelPositive:
		c.Positive++
	case LabelNegative:
		c.Negative++
	case LabelNeutral:
		c.Neutral++
	}
}

func (c LabelCounts) Total() int {
	return c.Positive + c.Negative + c.Neutral
}

func (c LabelCounts) Get(l Label) int {
	switch l {
	case LabelPositive:
		return c.Positive
	case LabelNegative:
		return c.Negative
	case LabelNeutral:
		return c.Neutral
	}
	return 0
}

// EntityGroup is the per-entity statistics block for a grouped batch.
// Percentages are only meaningful when Total > 0, which holds for every
// group that exists (a group is created by its first record).
type EntityGroup struct {
	Name        string      `json:"-"`
	Counts      LabelCounts `json:"counts"`
	Total       int         `json:"total"`
	PositivePct int         `json:"positive_pct"`
	NegativePct int         `json:"negative_pct"`
}

type InsightKind string

const (
	InsightSuccess InsightKind = "success"
	InsightWarning InsightKind = "warning"
	InsightInfo    InsightKind = "info"
)

// Insight is a derived, human-readable observation surfaced with batch
// results. Immutable once built.
type Insight struct {
	Kind    InsightKind `json:"type"`
	Icon    string      `json:"icon"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// CohortResult is the reduced aggregation for one side of a brand battle.
type CohortResult struct {
	Counts      LabelCounts `json:"stats"`
	Total       int         `json:"total"`
	PositivePct int         `json:"positive_pct"`
}

// VerdictTier orders the four comparative outcomes from worst to best.
type VerdictTier int

const (
	TierFallingBehind VerdictTier = iota
	TierCloseCall
	TierLeadingNarrowly
	TierDominating
)

func (t VerdictTier) String() string {
	switch t {
	case TierFallingBehind:
		return "falling_behind"
	case TierCloseCall:
		return "close_call"
	case TierLeadingNarrowly:
		return "leading_narrowly"
	case TierDominating:
		return "dominating"
	}
	return "unknown"
}

func (t VerdictTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Verdict compares cohort A against cohort B. Gap is A's positive
// percentage minus B's, as an integer.
type Verdict struct {
	Tier    VerdictTier `json:"tier"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Gap     int         `json:"gap"`
}

// TrendEvent is one already-labeled historical data point.
type TrendEvent struct {
	At    time.Time
	Label Label
}

// TrendSeries is the 7-day trend in the four-parallel-array shape charting
// layers consume directly. All four slices have the same length and are
// aligned by index, oldest day first.
type TrendSeries struct {
	Dates    []string `json:"dates"`
	Positive []int    `json:"positive"`
	Negative []int    `json:"negative"`
	Neutral  []int    `json:"neutral"`
}

// WordWeight is one ranked token for the word cloud.
type WordWeight struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// TrainingStatus is the snapshot of the single process-wide training job.
type TrainingStatus struct {
	IsTraining bool      `json:"is_training"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Analysis is one persisted classification, the unit of the history store.
type Analysis struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"-"`
	Text       string    `json:"text"`
	Sentiment  Label     `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Correction Label     `json:"correction,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavedAnalysis is a stored brand-battle or scrape snapshot kept for later
// comparison.
type SavedAnalysis struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Label     string          `json:"label"`
	VideoURL  string          `json:"video_url"`
	Data      json.RawMessage `json:"analysis_data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
