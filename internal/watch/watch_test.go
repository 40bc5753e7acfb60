package watch

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"sentimen/internal/domain"
	"sentimen/internal/scraper"
	"sentimen/internal/storage/sqlite"
)

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, text string) (domain.Prediction, error) {
	if strings.Contains(strings.ToLower(text), "jelek") {
		return domain.Prediction{Label: domain.LabelNegative, Confidence: 0.8}, nil
	}
	return domain.Prediction{Label: domain.LabelPositive, Confidence: 0.9}, nil
}

type stubSource struct {
	comments map[string][]string
	errs     map[string]error
}

func (s *stubSource) FetchComments(_ context.Context, videoURL string, limit int) ([]string, error) {
	if err := s.errs[videoURL]; err != nil {
		return nil, err
	}
	return s.comments[videoURL], nil
}

func newSweepDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "watch-test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func saveTarget(t *testing.T, db *sql.DB, id, user, url string) {
	t.Helper()
	err := sqlite.SaveAnalysis(db, domain.SavedAnalysis{
		ID: id, UserID: user, Label: id, VideoURL: url, Data: []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
}

func TestRunSweepClassifiesAndStores(t *testing.T) {
	db := newSweepDB(t)
	saveTarget(t, db, "s1", "u1", "https://youtu.be/videoAAA1")

	source := &stubSource{comments: map[string][]string{
		"https://youtu.be/videoAAA1": {"bagus banget videonya", "jelek audionya"},
	}}

	result, err := RunSweep(context.Background(), Config{CommentLimit: 20, NegativeThreshold: 90},
		db, source, stubClassifier{}, nil)
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}

	if result.Videos != 1 || result.Comments != 2 || result.Inserted != 2 {
		t.Fatalf("unexpected sweep result %+v", result)
	}
	if result.Alerts != 0 {
		t.Fatalf("50%% negative must not alert at a 90%% threshold, got %d alerts", result.Alerts)
	}

	// Fresh rows land in the saving user's history.
	_, total, err := sqlite.GetHistory(db, "u1", 1, 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 history rows, got %d", total)
	}
}

func TestRunSweepRaisesAlertAboveThreshold(t *testing.T) {
	db := newSweepDB(t)
	saveTarget(t, db, "s1", "u1", "https://youtu.be/videoAAA1")

	source := &stubSource{comments: map[string][]string{
		"https://youtu.be/videoAAA1": {"jelek banget", "jelek parah", "bagus dikit"},
	}}

	result, err := RunSweep(context.Background(), Config{CommentLimit: 20, NegativeThreshold: 50},
		db, source, stubClassifier{}, nil)
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}
	// 67% negative crosses the 50% threshold.
	if result.Alerts != 1 {
		t.Fatalf("expected 1 alert, got %d", result.Alerts)
	}
}

func TestRunSweepSkipsUnavailableComments(t *testing.T) {
	db := newSweepDB(t)
	saveTarget(t, db, "s1", "u1", "https://youtu.be/videoAAA1")
	saveTarget(t, db, "s2", "u1", "https://youtu.be/videoBBB1")

	source := &stubSource{
		comments: map[string][]string{
			"https://youtu.be/videoBBB1": {"bagus banget videonya"},
		},
		errs: map[string]error{
			"https://youtu.be/videoAAA1": scraper.ErrCommentsUnavailable,
		},
	}

	result, err := RunSweep(context.Background(), Config{CommentLimit: 20, NegativeThreshold: 50},
		db, source, stubClassifier{}, nil)
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}
	if result.Videos != 2 || result.Inserted != 1 {
		t.Fatalf("unexpected sweep result %+v", result)
	}
	// Disabled comments are an expected condition, not an error.
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestRunSweepFailsWhenAllTargetsFail(t *testing.T) {
	db := newSweepDB(t)
	saveTarget(t, db, "s1", "u1", "https://youtu.be/videoAAA1")

	source := &stubSource{errs: map[string]error{
		"https://youtu.be/videoAAA1": errors.New("quota exceeded"),
	}}

	result, err := RunSweep(context.Background(), Config{CommentLimit: 20, NegativeThreshold: 50},
		db, source, stubClassifier{}, nil)
	if err == nil {
		t.Fatal("expected error when every target fails")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 collected error, got %v", result.Errors)
	}
}

func TestRunSweepEmptyWatchlist(t *testing.T) {
	db := newSweepDB(t)

	result, err := RunSweep(context.Background(), Config{CommentLimit: 20, NegativeThreshold: 50},
		db, &stubSource{}, stubClassifier{}, nil)
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}
	if result.Videos != 0 || result.Inserted != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
