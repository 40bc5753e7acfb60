package analytics

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"sentimen/internal/domain"
)

// Tokens are maximal runs of word characters; everything else separates.
// Letter and number classes rather than \w, which is ASCII-only in Go.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// defaultStopwords is the built-in Indonesian stopword list. Membership is
// tunable via config; this set mirrors the word-cloud filter the dashboard
// always shipped with.
var defaultStopwords = []string{
	"yang", "di", "dan", "itu", "dengan", "untuk", "tidak", "ini", "dari",
	"dalam", "akan", "pada", "juga", "saya", "ke", "karena", "tersebut",
	"bisa", "ada", "mereka", "lebih", "sudah", "atau", "saat", "oleh",
	"sebagai", "adalah", "apa", "kita", "kamu", "dia", "anda", "aku",
	"sangat", "tapi", "namun", "jika", "kalau", "maka", "sehingga",
	"banyak", "sedikit", "kurang", "cukup", "paling", "seperti", "hanya",
	"nya",
}

func DefaultStopwords() []string {
	out := make([]string, len(defaultStopwords))
	copy(out, defaultStopwords)
	return out
}

// WordFrequency ranks tokens from pooled free text. It is used standalone
// for the word cloud and by the batch aggregator's keyword insight.
type WordFrequency struct {
	stopwords map[string]struct{}
}

func NewWordFrequency(stopwords []string) *WordFrequency {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &WordFrequency{stopwords: set}
}

// TopTerms lowercases text, tokenizes it, drops stopwords and tokens of
// length <= 3, and returns up to limit terms by descending count. Equal
// counts keep first-seen order, so the ranking is deterministic for a given
// input. Empty or fully-filtered input yields an empty slice.
func (wf *WordFrequency) TopTerms(text string, limit int) []domain.WordWeight {
	if limit <= 0 {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(tok) <= 3 {
			continue
		}
		if _, skip := wf.stopwords[tok]; skip {
			continue
		}
		if _, seen := counts[tok]; !seen {
			firstSeen[tok] = order
			order++
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]domain.WordWeight, 0, len(counts))
	for tok, n := range counts {
		terms = append(terms, domain.WordWeight{Text: tok, Weight: n})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return firstSeen[terms[i].Text] < firstSeen[terms[j].Text]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}
