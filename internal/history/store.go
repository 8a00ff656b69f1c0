package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/mdonmez/taibu/assets"
	"github.com/mdonmez/taibu/internal/game"
)

// Store persists finished rounds. It implements game.Recorder.
type Store struct{ db *sql.DB }

// Open opens the database at dsn and applies the embedded migrations.
func Open(dsn string) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one finished round.
func (s *Store) Record(ctx context.Context, r game.Result) error {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO rounds
            (session_id, topic, difficulty, word, outcome, reason, attempts, elapsed_ms, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Topic, string(r.Difficulty), r.Word, string(r.Outcome), string(r.Reason),
		r.Attempts, r.Elapsed.Milliseconds(), finished.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// TopicStats aggregates results for one topic.
type TopicStats struct {
	Topic       string  `json:"topic"`
	Played      int     `json:"played"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"winRate"`
	AvgAttempts float64 `json:"avgAttempts"`
}

// Topics returns per-topic stats, most played first.
// Default limit is 20 if not specified.
func (s *Store) Topics(ctx context.Context, limit int) ([]TopicStats, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT lower(topic) AS t,
               COUNT(1),
               SUM(CASE WHEN outcome = 'win' THEN 1 ELSE 0 END),
               AVG(attempts)
        FROM rounds
        GROUP BY t
        ORDER BY COUNT(1) DESC, t ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TopicStats, 0, limit)
	for rows.Next() {
		var ts TopicStats
		if err := rows.Scan(&ts.Topic, &ts.Played, &ts.Wins, &ts.AvgAttempts); err != nil {
			return nil, err
		}
		if ts.Played > 0 {
			ts.WinRate = float64(ts.Wins) / float64(ts.Played)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// Row is one stored round.
type Row struct {
	SessionID  string          `json:"sessionId"`
	Topic      string          `json:"topic"`
	Difficulty game.Difficulty `json:"difficulty"`
	Word       string          `json:"word"`
	Outcome    game.Outcome    `json:"outcome"`
	Reason     game.Reason     `json:"reason"`
	Attempts   int             `json:"attempts"`
	ElapsedMs  int64           `json:"elapsedMs"`
	FinishedAt string          `json:"finishedAt"`
}

// Recent returns the latest rounds, newest first.
// When sessionID is non-empty only that session's rounds are returned.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, topic, difficulty, word, outcome, reason, attempts, elapsed_ms, finished_at
        FROM rounds
        WHERE (? = '' OR session_id = ?)
        ORDER BY finished_at DESC, id DESC
        LIMIT ?`, sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.SessionID, &r.Topic, &r.Difficulty, &r.Word, &r.Outcome, &r.Reason,
			&r.Attempts, &r.ElapsedMs, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
