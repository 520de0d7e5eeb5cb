package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		triggered_by TEXT NOT NULL,
		workspace TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		result TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		result TEXT NOT NULL,
		error TEXT,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	CREATE INDEX IF NOT EXISTS idx_steps_run_id ON steps(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun inserts or replaces a run.
func (s *SQLiteStore) RecordRun(ctx context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO runs (id, triggered_by, workspace, started, finished, result) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Trigger, rec.Workspace, rec.Started.UnixMilli(), rec.Finished.UnixMilli(), rec.Result,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordStep appends a step outcome.
func (s *SQLiteStore) RecordStep(ctx context.Context, rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if rec.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO steps (run_id, step, started, duration_ms, result, error, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.RunID, rec.Step, rec.Started.UnixMilli(), rec.Duration.Milliseconds(), rec.Result, rec.Error, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// Recent returns the newest runs first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, triggered_by, workspace, started, finished, result FROM runs ORDER BY started DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Run returns one run with its steps.
func (s *SQLiteStore) Run(ctx context.Context, id string) (RunRecord, []StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, triggered_by, workspace, started, finished, result FROM runs WHERE id = ?", id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunRecord{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, step, started, duration_ms, result, error, metadata FROM steps WHERE run_id = ? ORDER BY id",
		id,
	)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var st StepRecord
		var started, durationMS int64
		var errText sql.NullString
		var metadataJSON []byte
		if err := rows.Scan(&st.RunID, &st.Step, &started, &durationMS, &st.Result, &errText, &metadataJSON); err != nil {
			return RunRecord{}, nil, fmt.Errorf("scan step: %w", err)
		}
		st.Started = time.UnixMilli(started)
		st.Duration = time.Duration(durationMS) * time.Millisecond
		st.Error = errText.String
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &st.Metadata); err != nil {
				return RunRecord{}, nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rec, steps, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var started, finished int64
	if err := row.Scan(&rec.ID, &rec.Trigger, &rec.Workspace, &started, &finished, &rec.Result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan run: %w", err)
	}
	rec.Started = time.UnixMilli(started)
	rec.Finished = time.UnixMilli(finished)
	return rec, nil
}
