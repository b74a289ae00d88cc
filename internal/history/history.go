// Package history keeps the durable record of completed sessions in a
// per-vault SQLite database. It is the machine-readable counterpart of the
// markdown transcripts and the source for historical metrics.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/Zentoboo/dck/internal/domain"
)

// DB wraps the SQL connection to the history database.
type DB struct {
	conn *sql.DB
}

// Open creates the database connection and ensures the schema exists.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}
	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SessionRow is one persisted session summary.
type SessionRow struct {
	ID            int64
	StartedAt     time.Time
	EndedAt       time.Time
	CardsReviewed int
	Ratings       domain.RatingCounts
	Files         []string
}

// ReviewRow is one persisted card review.
type ReviewRow struct {
	SessionID   int64
	QuestionID  string
	SourceFile  string
	Rating      domain.Rating
	OldInterval int
	NewInterval int
}

// RecordSession stores a completed session and its per-card reviews in one
// transaction. It satisfies session.HistorySink.
func (db *DB) RecordSession(summary domain.SessionSummary, records []domain.SessionCardRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO sessions (started_at, ended_at, cards_reviewed, again, hard, good, easy, files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartTime,
		summary.EndTime,
		summary.CardsReviewed,
		summary.Ratings.Again,
		summary.Ratings.Hard,
		summary.Ratings.Good,
		summary.Ratings.Easy,
		strings.Join(summary.Files, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session ID: %w", err)
	}

	for _, rec := range records {
		if _, err := tx.Exec(`
			INSERT INTO reviews (session_id, question_id, source_file, rating, old_interval, new_interval)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			sessionID,
			rec.QuestionID,
			rec.SourceFile,
			int(rec.Rating),
			rec.OldInterval,
			rec.NewInterval,
		); err != nil {
			return fmt.Errorf("failed to insert review for %s: %w", rec.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}
	return nil
}

// ListSessions returns all stored sessions, most recent first.
func (db *DB) ListSessions() ([]SessionRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, ended_at, cards_reviewed, again, hard, good, easy, files
		FROM sessions ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var s SessionRow
		var files string
		if err := rows.Scan(
			&s.ID,
			&s.StartedAt,
			&s.EndedAt,
			&s.CardsReviewed,
			&s.Ratings.Again,
			&s.Ratings.Hard,
			&s.Ratings.Good,
			&s.Ratings.Easy,
			&files,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if files != "" {
			s.Files = strings.Split(files, ",")
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ReviewsForSession returns the per-card reviews of one session in rating
// order.
func (db *DB) ReviewsForSession(sessionID int64) ([]ReviewRow, error) {
	rows, err := db.conn.Query(`
		SELECT session_id, question_id, source_file, rating, old_interval, new_interval
		FROM reviews WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var reviews []ReviewRow
	for rows.Next() {
		var r ReviewRow
		var rating int
		if err := rows.Scan(&r.SessionID, &r.QuestionID, &r.SourceFile, &rating, &r.OldInterval, &r.NewInterval); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		r.Rating = domain.Rating(rating)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
