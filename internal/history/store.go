// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an optional log of conversion attempts in SQLite.
// Only metadata is stored: names, types, sizes, outcome and timing. File
// contents never reach the database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mediaconv/pkg/types"
)

const (
	dbFile            = "history.db"
	defaultMaxResults = 20

	// timeLayout is fixed-width so started_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store manages the history database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates cfg.Dir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("history directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.Dir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			source_name TEXT NOT NULL,
			source_mime_type TEXT,
			category TEXT,
			target_extension TEXT,
			output_name TEXT,
			output_size INTEGER,
			strategy TEXT,
			backend TEXT,
			outcome TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			duration_ns INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_started_at ON conversions(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores rec. An empty ID is replaced by a new UUID.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, source_name, source_mime_type, category,
			target_extension, output_name, output_size, strategy, backend,
			outcome, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceName, rec.SourceMIMEType, string(rec.Category),
		rec.TargetExtension, rec.OutputName, rec.OutputSize, string(rec.Strategy),
		string(rec.Backend), string(rec.Outcome), rec.Error,
		rec.StartedAt.UTC().Format(timeLayout), int64(rec.Duration),
	)
	if err != nil {
		return fmt.Errorf("recording conversion %s: %w", rec.ID, err)
	}
	return nil
}

// List returns up to limit records, newest first. A limit of zero or less
// uses the configured maximum.
func (s *Store) List(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_name, source_mime_type, category, target_extension,
			output_name, output_size, strategy, backend, outcome, error,
			started_at, duration_ns
		FROM conversions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			rec                                     types.ConversionRecord
			category, strategy, backend, outcome    string
			mimeType, target, output, errText, when sql.NullString
			size, duration                          sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.SourceName, &mimeType, &category, &target,
			&output, &size, &strategy, &backend, &outcome, &errText,
			&when, &duration); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.SourceMIMEType = mimeType.String
		rec.Category = types.MediaCategory(category)
		rec.TargetExtension = target.String
		rec.OutputName = output.String
		rec.OutputSize = size.Int64
		rec.Strategy = types.Strategy(strategy)
		rec.Backend = types.EngineBackend(backend)
		rec.Outcome = types.ConversionOutcome(outcome)
		rec.Error = errText.String
		rec.Duration = time.Duration(duration.Int64)
		if t, err := time.Parse(timeLayout, when.String); err == nil {
			rec.StartedAt = t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return records, nil
}
