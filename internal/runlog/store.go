// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog keeps a SQLite ledger of pipeline runs: outcome, request
// digest, artifact metadata, and per-stage telemetry. Generated papers are
// never stored.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

const dbFile = "runs.db"

// timeLayout has fixed-width fractions so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Store manages the run ledger database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates dir/runs.db and its schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run log directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Batch runs record concurrently; a single connection serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			caller_id TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			status TEXT NOT NULL,
			request_digest TEXT,
			question TEXT,
			style TEXT,
			error TEXT,
			word_count INTEGER,
			page_count INTEGER,
			figure_count INTEGER,
			reference_count INTEGER,
			format TEXT,
			quality_score INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
		`CREATE TABLE IF NOT EXISTS stages (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			provider TEXT,
			status TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			skip_reason TEXT,
			error TEXT,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_name ON stages(name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a run and its stage records. Recording the same ID again
// replaces the earlier entry.
func (s *Store) Record(ctx context.Context, r Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, r.ID); err != nil {
		return fmt.Errorf("replacing run %s: %w", r.ID, err)
	}

	var quality sql.NullInt64
	if r.QualityScore != nil {
		quality = sql.NullInt64{Int64: int64(*r.QualityScore), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, caller_id, started_at, duration_ms, status, request_digest,
			question, style, error, word_count, page_count, figure_count, reference_count,
			format, quality_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CallerID, r.StartedAt.UTC().Format(timeLayout), r.DurationMs, string(r.Status),
		r.RequestDigest, r.Question, r.Style, r.Error,
		r.Metadata.WordCount, r.Metadata.PageCount, r.Metadata.FigureCount, r.Metadata.ReferenceCount,
		r.Metadata.Format, quality,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stages (run_id, seq, name, provider, status, duration_ms, skip_reason, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing stage insert: %w", err)
	}
	defer stmt.Close()

	for i, st := range r.Stages {
		if _, err := stmt.ExecContext(ctx, r.ID, i, st.Name, st.Provider, string(st.Status),
			st.DurationMs, string(st.SkipReason), st.Error); err != nil {
			return fmt.Errorf("inserting stage %s of run %s: %w", st.Name, r.ID, err)
		}
	}

	return tx.Commit()
}

// Get returns one run with its stage records.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	stages, err := s.stages(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Stages = stages
	return &r, nil
}

func (s *Store) stages(ctx context.Context, runID string) ([]types.StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, provider, status, duration_ms, skip_reason, error
		FROM stages WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying stages of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []types.StageRecord
	for rows.Next() {
		var (
			rec                          types.StageRecord
			status, skipReason, errorMsg sql.NullString
			provider                     sql.NullString
		)
		if err := rows.Scan(&rec.Name, &provider, &status, &rec.DurationMs, &skipReason, &errorMsg); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		rec.Provider = provider.String
		rec.Status = types.StageStatus(status.String)
		rec.SkipReason = types.SkipReason(skipReason.String)
		rec.Error = errorMsg.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

const runColumns = `id, caller_id, started_at, duration_ms, status, request_digest, question,
	style, error, word_count, page_count, figure_count, reference_count, format, quality_score`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                                          Run
		caller, digest, question, style, errorMsg  sql.NullString
		format                                     sql.NullString
		started, status                            string
		words, pages, figures, references, quality sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &caller, &started, &r.DurationMs, &status, &digest, &question,
		&style, &errorMsg, &words, &pages, &figures, &references, &format, &quality); err != nil {
		return Run{}, err
	}

	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at of %s: %w", r.ID, err)
	}
	r.StartedAt = t
	r.Status = Status(status)
	r.CallerID = caller.String
	r.RequestDigest = digest.String
	r.Question = question.String
	r.Style = style.String
	r.Error = errorMsg.String
	r.Metadata = types.Metadata{
		WordCount:      int(words.Int64),
		PageCount:      int(pages.Int64),
		FigureCount:    int(figures.Int64),
		ReferenceCount: int(references.Int64),
		Format:         format.String,
	}
	if quality.Valid {
		q := int(quality.Int64)
		r.QualityScore = &q
	}
	return r, nil
}
