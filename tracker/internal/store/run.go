package store

import (
	"context"
	"time"
)

// InsertRun records the start of a pipeline run with outcome "running".
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	if r.StartedAt == 0 {
		r.StartedAt = time.Now().UnixMilli()
	}
	if r.Outcome == "" {
		r.Outcome = "running"
	}
	if r.DetailJSON == "" {
		r.DetailJSON = "{}"
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, trigger_mode, outcome,
		new_count, sources_ok, sources_failed, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.EndedAt, r.Trigger, r.Outcome,
		r.NewCount, r.SourcesOK, r.SourcesFailed, r.DetailJSON,
	)
	return err
}

// FinalizeRun closes a run record with its aggregate counts. Runs are
// immutable after this.
func (s *Store) FinalizeRun(ctx context.Context, r *Run) error {
	now := time.Now().UnixMilli()
	if r.EndedAt == nil {
		r.EndedAt = &now
	}
	_, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET ended_at=?, outcome=?, new_count=?, sources_ok=?,
		sources_failed=?, detail_json=?
		WHERE id=?`,
		r.EndedAt, r.Outcome, r.NewCount, r.SourcesOK, r.SourcesFailed,
		r.DetailJSON, r.ID,
	)
	return err
}

// ListRuns returns the most recent run records.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, started_at, ended_at, trigger_mode, outcome,
		new_count, sources_ok, sources_failed, detail_json
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		err := rows.Scan(
			&r.ID, &r.StartedAt, &r.EndedAt, &r.Trigger, &r.Outcome,
			&r.NewCount, &r.SourcesOK, &r.SourcesFailed, &r.DetailJSON,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// LastRunStartedAt returns the start time of the most recent run, or nil
// when no run has ever happened.
func (s *Store) LastRunStartedAt(ctx context.Context) (*int64, error) {
	var started *int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT MAX(started_at) FROM runs`).Scan(&started)
	if err != nil {
		return nil, err
	}
	return started, nil
}

// CountRunsSince returns the number of runs started at or after the given
// millisecond timestamp.
func (s *Store) CountRunsSince(ctx context.Context, sinceMs int64) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE started_at >= ?`, sinceMs).Scan(&count)
	return count, err
}

// SumNewPostingsSince returns the total new postings detected by runs started
// at or after the given millisecond timestamp.
func (s *Store) SumNewPostingsSince(ctx context.Context, sinceMs int64) (int, error) {
	var total int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(new_count), 0) FROM runs WHERE started_at >= ?`, sinceMs).Scan(&total)
	return total, err
}
