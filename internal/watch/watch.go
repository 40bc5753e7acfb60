package watch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"sentimen/internal/analytics"
	"sentimen/internal/domain"
	"sentimen/internal/notify"
	"sentimen/internal/scraper"
	"sentimen/internal/storage/sqlite"
)

// CommentSource is the comment scraping adapter the sweep pulls from.
type CommentSource interface {
	FetchComments(ctx context.Context, videoURL string, limit int) ([]string, error)
}

// SweepResult tracks separate counters for each outcome across one sweep.
type SweepResult struct {
	Videos   int
	Comments int
	Inserted int
	Alerts   int
	Errors   []string
}

// Config for a sweep over the saved-analysis watchlist.
type Config struct {
	CommentLimit      int
	NegativeThreshold int // percent of negative comments that triggers an alert
}

// RunSweep re-scrapes every saved video, classifies the fresh comments,
// appends them to the owner's history, and raises an alert when a video's
// negative share crosses the threshold. Per-video failures are collected,
// not fatal; the sweep only errors when every video failed.
func RunSweep(ctx context.Context, cfg Config, db *sql.DB, source CommentSource, classifier analytics.Classifier, notifier *notify.SlackNotifier) (SweepResult, error) {
	targets, err := sqlite.WatchTargets(db)
	if err != nil {
		return SweepResult{}, fmt.Errorf("loading watch targets: %w", err)
	}

	var result SweepResult
	for _, target := range targets {
		result.Videos++

		comments, err := source.FetchComments(ctx, target.VideoURL, cfg.CommentLimit)
		if err != nil {
			if errors.Is(err, scraper.ErrCommentsUnavailable) {
				log.Printf("watch sweep video=%s comments unavailable, skipping", target.VideoURL)
				continue
			}
			log.Printf("watch sweep fetch error video=%s: %v", target.VideoURL, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", target.Label, err))
			continue
		}
		result.Comments += len(comments)

		var rows []domain.Analysis
		var counts domain.LabelCounts
		for _, comment := range comments {
			pred, err := classifier.Classify(ctx, comment)
			if err != nil {
				log.Printf("watch sweep classify error video=%s: %v", target.VideoURL, err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", target.Label, err))
				rows = nil
				break
			}
			counts.Add(pred.Label)
			rows = append(rows, domain.Analysis{
				UserID:     target.UserID,
				Text:       comment,
				Sentiment:  pred.Label,
				Confidence: pred.Confidence,
			})
		}
		if len(rows) == 0 {
			continue
		}

		inserted, err := sqlite.InsertAnalyses(db, rows)
		if err != nil {
			log.Printf("watch sweep insert error video=%s: %v", target.VideoURL, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", target.Label, err))
			continue
		}
		result.Inserted += inserted

		negativePct := analytics.Percent(counts.Negative, counts.Total())
		if negativePct > cfg.NegativeThreshold {
			result.Alerts++
			notifier.Post(fmt.Sprintf(
				"⚠️ Sentimen alert: %q (%s) mendapat %d%% komentar negatif dari %d komentar terbaru.",
				target.Label, target.VideoURL, negativePct, counts.Total()))
		}
	}

	if len(result.Errors) > 0 && result.Inserted == 0 {
		return result, fmt.Errorf("all watch targets failed: %s", strings.Join(result.Errors, "; "))
	}
	return result, nil
}

// StartScheduler runs sweeps on a standard 5-field cron expression.
// Examples: "0 7 * * *" (daily 7am), "0 */6 * * *" (every 6 hours).
// An empty schedule disables watching.
func StartScheduler(schedule string, cfg Config, db *sql.DB, source CommentSource, classifier analytics.Classifier, notifier *notify.SlackNotifier) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Watchlist sweep disabled (watch_schedule not set)")
		return
	}
	if source == nil {
		log.Println("Watchlist sweep disabled: youtube_api_key not configured")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid watch_schedule '%s': %v, watchlist sweep disabled", schedule, err)
		return
	}

	log.Printf("Watchlist sweep scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next watchlist sweep at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, sweepErr := RunSweep(context.Background(), cfg, db, source, classifier, notifier)
			if sweepErr != nil {
				log.Printf("Watchlist sweep error: %v", sweepErr)
				continue
			}
			log.Printf("Watchlist sweep complete: videos=%d comments=%d inserted=%d alerts=%d errors=%d",
				result.Videos, result.Comments, result.Inserted, result.Alerts, len(result.Errors))
		}
	}()
}
