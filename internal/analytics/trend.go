package analytics

import (
	"time"

	"sentimen/internal/domain"
)

const trendWindowDays = 7

// BuildTrend buckets labeled events into the 7 trailing calendar days
// ending at now, oldest first. Every bucket exists even when empty; events
// outside the window are ignored. The parallel-array output is aligned by
// index for direct charting.
func BuildTrend(events []domain.TrendEvent, now time.Time) domain.TrendSeries {
	start := truncateToDay(now).AddDate(0, 0, -(trendWindowDays - 1))

	series := domain.TrendSeries{
		Dates:    make([]string, trendWindowDays),
		Positive: make([]int, trendWindowDays),
		Negative: make([]int, trendWindowDays),
		Neutral:  make([]int, trendWindowDays),
	}
	// Index buckets by formatted date so odd-length days (DST) cannot skew
	// the bucket arithmetic.
	dayIndex := make(map[string]int, trendWindowDays)
	for i := 0; i < trendWindowDays; i++ {
		series.Dates[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		dayIndex[series.Dates[i]] = i
	}

	for _, ev := range events {
		idx, ok := dayIndex[ev.At.In(now.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		switch ev.Label {
		case domain.LabelPositive:
			series.Positive[idx]++
		case domain.LabelNegative:
			series.Negative[idx]++
		case domain.LabelNeutral:
			series.Neutral[idx]++
		}
	}

	return series
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
