// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultLimit caps List when the filter sets no limit.
const DefaultLimit = 50

// Filter selects runs for List and the exports.
type Filter struct {
	// Status restricts to one outcome.
	Status Status

	// CallerID restricts to one caller.
	CallerID string

	// Since excludes runs started before it.
	Since time.Time

	// Limit caps the result count. Zero uses DefaultLimit.
	Limit int
}

// List returns runs newest first, without stage records.
func (s *Store) List(ctx context.Context, f Filter) ([]Run, error) {
	var (
		qb    strings.Builder
		args  []any
		where []string
	)
	qb.WriteString(`SELECT ` + runColumns + ` FROM runs`)

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.CallerID != "" {
		where = append(where, "caller_id = ?")
		args = append(args, f.CallerID)
	}
	if !f.Since.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if len(where) > 0 {
		qb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	qb.WriteString(" ORDER BY started_at DESC, id LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StageStat aggregates one stage's outcomes across the ledger.
type StageStat struct {
	Name          string  `json:"name" yaml:"name"`
	Completed     int     `json:"completed" yaml:"completed"`
	Failed        int     `json:"failed" yaml:"failed"`
	Skipped       int     `json:"skipped" yaml:"skipped"`
	AvgDurationMs float64 `json:"avg_duration_ms" yaml:"avg_duration_ms"`
}

// StageStats summarizes every stage name seen in the ledger, ordered by
// name. The average covers attempted (non-skipped) stages only.
func (s *Store) StageStats(ctx context.Context) ([]StageStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN status != 'skipped' THEN duration_ms END), 0)
		FROM stages GROUP BY name ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying stage stats: %w", err)
	}
	defer rows.Close()

	var out []StageStat
	for rows.Next() {
		var st StageStat
		if err := rows.Scan(&st.Name, &st.Completed, &st.Failed, &st.Skipped, &st.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("scanning stage stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
