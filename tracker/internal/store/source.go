package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertSource adds a new source.
func (s *Store) InsertSource(ctx context.Context, src *Source) error {
	now := time.Now().UnixMilli()
	if src.CreatedAt == 0 {
		src.CreatedAt = now
	}
	if src.UpdatedAt == 0 {
		src.UpdatedAt = now
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sources (id, name, url, requires_browser, last_checked,
		last_error, last_posting_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Name, src.URL, src.RequiresBrowser, src.LastChecked,
		src.LastError, src.LastPostingCount, src.CreatedAt, src.UpdatedAt,
	)
	return err
}

// GetSource retrieves a source by ID. Returns (nil, nil) when absent.
func (s *Store) GetSource(ctx context.Context, id string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, url, requires_browser, last_checked,
		last_error, last_posting_count, created_at, updated_at
		FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// GetSourceByURL returns the source matching the given normalized URL, or nil.
func (s *Store) GetSourceByURL(ctx context.Context, url string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, url, requires_browser, last_checked,
		last_error, last_posting_count, created_at, updated_at
		FROM sources WHERE url = ? LIMIT 1`, url)
	return scanSource(row)
}

// ListSources returns all sources, newest first.
func (s *Store) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, url, requires_browser, last_checked,
		last_error, last_posting_count, created_at, updated_at
		FROM sources ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		src, err := scanSourceRows(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// UpdateSource updates a source's mutable fields.
func (s *Store) UpdateSource(ctx context.Context, src *Source) error {
	src.UpdatedAt = time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`UPDATE sources SET name=?, url=?, requires_browser=?, updated_at=?
		WHERE id=?`,
		src.Name, src.URL, src.RequiresBrowser, src.UpdatedAt, src.ID,
	)
	return err
}

// DeleteSource removes a source. Its postings cascade.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	return err
}

// CountSources returns the total number of sources.
func (s *Store) CountSources(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&count)
	return count, err
}

// RecordCheckSuccess updates a source after its pipeline pass succeeded.
// postingCount is the number of postings extracted on this pass.
func (s *Store) RecordCheckSuccess(ctx context.Context, tx *sql.Tx, id string, postingCount int) error {
	now := time.Now().UnixMilli()
	_, err := tx.ExecContext(ctx,
		`UPDATE sources SET last_checked=?, last_error='', last_posting_count=?, updated_at=?
		WHERE id=?`, now, postingCount, now, id)
	return err
}

// RecordCheckError updates a source after its pipeline pass failed.
func (s *Store) RecordCheckError(ctx context.Context, id, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`UPDATE sources SET last_checked=?, last_error=?, updated_at=?
		WHERE id=?`, now, errMsg, now, id)
	return err
}

func scanSource(row *sql.Row) (*Source, error) {
	var src Source
	var requiresBrowser int
	err := row.Scan(
		&src.ID, &src.Name, &src.URL, &requiresBrowser, &src.LastChecked,
		&src.LastError, &src.LastPostingCount, &src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}
	src.RequiresBrowser = requiresBrowser != 0
	return &src, nil
}

func scanSourceRows(rows *sql.Rows) (*Source, error) {
	var src Source
	var requiresBrowser int
	err := rows.Scan(
		&src.ID, &src.Name, &src.URL, &requiresBrowser, &src.LastChecked,
		&src.LastError, &src.LastPostingCount, &src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	src.RequiresBrowser = requiresBrowser != 0
	return &src, nil
}
