package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/speedwagon-io/tiretwin/internal/lib/logger/sl"
	"github.com/speedwagon-io/tiretwin/internal/model"
)

// Store caches per-session state: the evaluation history and simulated
// series. The default in-memory DSN makes the cache vanish on restart.
type Store interface {
	SaveEvaluation(ctx context.Context, eval *model.Evaluation) error
	History(ctx context.Context, sessionID string, limit int) ([]*model.Evaluation, error)
	SaveSeries(ctx context.Context, sessionID string, steps int, series *model.SimulatedSeries) error
	GetSeries(ctx context.Context, sessionID string, steps int, seed int64) (*model.SimulatedSeries, error)
	GetLatestSeries(ctx context.Context, sessionID string, steps int) (*model.SimulatedSeries, error)
	Count(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context, maxAge time.Duration) error
	Close() error
}

type SQLiteStore struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteStore(log *slog.Logger, dsn string) (*SQLiteStore, error) {
	memory := strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")

	if !memory {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// A second connection to :memory: would see an empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{
		log: log,
		db:  db,
	}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_evaluations_session ON evaluations(session_id, created_at);
		CREATE TABLE IF NOT EXISTS series (
			session_id TEXT NOT NULL,
			steps INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			series_json TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (session_id, steps, seed)
		);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, eval *model.Evaluation) error {
	payload, err := eval.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	query := `
		INSERT INTO evaluations (id, session_id, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		eval.ID,
		eval.SessionID,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store evaluation: %w", err)
	}

	s.log.Debug("evaluation stored", slog.String("id", eval.ID), slog.String("session_id", eval.SessionID))
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string, limit int) ([]*model.Evaluation, error) {
	query := `
		SELECT payload_json
		FROM evaluations
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var evals []*model.Evaluation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			s.log.Error("failed to scan row", sl.Err(err))
			continue
		}

		eval, err := model.EvaluationFromJSON([]byte(payload))
		if err != nil {
			s.log.Error("failed to unmarshal evaluation", sl.Err(err))
			continue
		}

		evals = append(evals, eval)
	}

	return evals, rows.Err()
}

func (s *SQLiteStore) SaveSeries(ctx context.Context, sessionID string, steps int, series *model.SimulatedSeries) error {
	seriesJSON, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO series (session_id, steps, seed, series_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		sessionID,
		steps,
		series.Seed,
		string(seriesJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store series: %w", err)
	}

	s.log.Debug("series cached",
		slog.String("session_id", sessionID),
		slog.Int("steps", steps),
		slog.Int64("seed", series.Seed),
	)
	return nil
}

// GetSeries returns the cached series for (session, steps, seed), or nil
// on a cache miss.
func (s *SQLiteStore) GetSeries(ctx context.Context, sessionID string, steps int, seed int64) (*model.SimulatedSeries, error) {
	query := `
		SELECT series_json FROM series
		WHERE session_id = ? AND steps = ? AND seed = ?
	`

	var seriesJSON string
	err := s.db.QueryRowContext(ctx, query, sessionID, steps, seed).Scan(&seriesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}

	var series model.SimulatedSeries
	if err := json.Unmarshal([]byte(seriesJSON), &series); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series: %w", err)
	}

	return &series, nil
}

// GetLatestSeries returns the most recently cached series for the session
// and step count regardless of seed, or nil when nothing is cached yet.
func (s *SQLiteStore) GetLatestSeries(ctx context.Context, sessionID string, steps int) (*model.SimulatedSeries, error) {
	query := `
		SELECT series_json FROM series
		WHERE session_id = ? AND steps = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	var seriesJSON string
	err := s.db.QueryRowContext(ctx, query, sessionID, steps).Scan(&seriesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest series: %w", err)
	}

	var series model.SimulatedSeries
	if err := json.Unmarshal([]byte(seriesJSON), &series); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series: %w", err)
	}

	return &series, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&count)
	return count, err
}

func (s *SQLiteStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339Nano)

	for _, table := range []string{"evaluations", "series"} {
		result, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < ?", cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup %s: %w", table, err)
		}

		deleted, _ := result.RowsAffected()
		if deleted > 0 {
			s.log.Info("cleaned up stale session data",
				slog.String("table", table),
				slog.Int64("deleted", deleted),
			)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
