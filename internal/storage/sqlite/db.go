package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sentimen/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT DEFAULT '',
		text       TEXT NOT NULL,
		sentiment  TEXT NOT NULL,
		confidence REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_user ON analyses(user_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);

	CREATE TABLE IF NOT EXISTS saved_analyses (
		id            TEXT PRIMARY KEY,
		user_id       TEXT DEFAULT '',
		label         TEXT NOT NULL DEFAULT 'Untitled',
		video_url     TEXT NOT NULL,
		analysis_data TEXT NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_saved_user ON saved_analyses(user_id);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	// Migration: add correction column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('analyses') WHERE name = 'correction'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE analyses ADD COLUMN correction TEXT DEFAULT ''`)
	}

	return db, nil
}

func InsertAnalysis(db *sql.DB, a domain.Analysis) (int64, error) {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := db.Exec(
		`INSERT INTO analyses (user_id, text, sentiment, confidence, correction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Text, string(a.Sentiment), a.Confidence, string(a.Correction), createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertAnalyses writes a batch inside one transaction and returns how many
// rows were inserted.
func InsertAnalyses(db *sql.DB, items []domain.Analysis) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO analyses (user_id, text, sentiment, confidence, correction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range items {
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.Exec(a.UserID, a.Text, string(a.Sentiment), a.Confidence, string(a.Correction), createdAt); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

// GetHistory returns one page of a user's analyses, newest first, plus the
// total row count for pagination.
func GetHistory(db *sql.DB, userID string, page, perPage int) ([]domain.Analysis, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(
		`SELECT id, user_id, text, sentiment, confidence, correction, created_at
		 FROM analyses WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func GetAnalysisByID(db *sql.DB, id int64) (domain.Analysis, error) {
	row := db.QueryRow(
		`SELECT id, user_id, text, sentiment, confidence, correction, created_at
		 FROM analyses WHERE id = ?`, id)
	return scanAnalysis(row)
}

func UpdateCorrection(db *sql.DB, id int64, correction domain.Label) error {
	_, err := db.Exec(`UPDATE analyses SET correction = ? WHERE id = ?`, string(correction), id)
	return err
}

// TrendEvents returns (created_at, sentiment) pairs for a user since the
// given instant; the trend aggregator does the bucketing.
func TrendEvents(db *sql.DB, userID string, since time.Time) ([]domain.TrendEvent, error) {
	rows, err := db.Query(
		`SELECT created_at, sentiment FROM analyses
		 WHERE user_id = ? AND created_at >= ?`,
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TrendEvent
	for rows.Next() {
		var at time.Time
		var sentiment string
		if err := rows.Scan(&at, &sentiment); err != nil {
			return nil, err
		}
		events = append(events, domain.TrendEvent{At: at, Label: domain.Label(sentiment)})
	}
	return events, rows.Err()
}

func SummaryCounts(db *sql.DB, userID string) (domain.LabelCounts, error) {
	rows, err := db.Query(
		`SELECT sentiment, COUNT(*) FROM analyses WHERE user_id = ? GROUP BY sentiment`,
		userID,
	)
	if err != nil {
		return domain.LabelCounts{}, err
	}
	defer rows.Close()

	var counts domain.LabelCounts
	for rows.Next() {
		var sentiment string
		var n int
		if err := rows.Scan(&sentiment, &n); err != nil {
			return domain.LabelCounts{}, err
		}
		switch domain.Label(sentiment) {
		case domain.LabelPositive:
			counts.Positive = n
		case domain.LabelNegative:
			counts.Negative = n
		case domain.LabelNeutral:
			counts.Neutral = n
		}
	}
	return counts, rows.Err()
}

// AllTexts returns every stored text for a user, oldest first, for pooled
// word-frequency extraction.
func AllTexts(db *sql.DB, userID string) ([]string, error) {
	rows, err := db.Query(
		`SELECT text FROM analyses WHERE user_id = ? ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

func SaveAnalysis(db *sql.DB, s domain.SavedAnalysis) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO saved_analyses (id, user_id, label, video_url, analysis_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Label, s.VideoURL, string(s.Data), createdAt,
	)
	return err
}

func ListSavedAnalyses(db *sql.DB, userID string, limit int) ([]domain.SavedAnalysis, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := db.Query(
		`SELECT id, user_id, label, video_url, created_at
		 FROM saved_analyses WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saved []domain.SavedAnalysis
	for rows.Next() {
		var s domain.SavedAnalysis
		if err := rows.Scan(&s.ID, &s.UserID, &s.Label, &s.VideoURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}
	return saved, rows.Err()
}

// WatchTargets returns the distinct saved video URLs across all users, for
// the scheduled re-scrape sweep.
func WatchTargets(db *sql.DB) ([]domain.SavedAnalysis, error) {
	rows, err := db.Query(
		`SELECT id, user_id, label, video_url, created_at FROM saved_analyses
		 GROUP BY video_url ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []domain.SavedAnalysis
	for rows.Next() {
		var s domain.SavedAnalysis
		if err := rows.Scan(&s.ID, &s.UserID, &s.Label, &s.VideoURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		targets = append(targets, s)
	}
	return targets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (domain.Analysis, error) {
	var a domain.Analysis
	var sentiment, correction string
	err := row.Scan(&a.ID, &a.UserID, &a.Text, &sentiment, &a.Confidence, &correction, &a.CreatedAt)
	if err != nil {
		return domain.Analysis{}, err
	}
	a.Sentiment = domain.Label(sentiment)
	a.Correction = domain.Label(correction)
	return a, nil
}
