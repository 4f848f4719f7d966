package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const postingCols = `id, source_id, identity_key, title, company, location, url, first_seen, notified`

// FindPostingsByIdentity returns all stored postings of a source sharing the
// given identity key. The schema permits at most one; more than one row is a
// data-integrity fault the caller must report.
func (s *Store) FindPostingsByIdentity(ctx context.Context, sourceID, identityKey string) ([]*Posting, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+postingCols+` FROM postings
		WHERE source_id = ? AND identity_key = ?`, sourceID, identityKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPostings(rows)
}

// PostingsBySource returns all stored postings of one source.
func (s *Store) PostingsBySource(ctx context.Context, sourceID string) ([]*Posting, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+postingCols+` FROM postings
		WHERE source_id = ? ORDER BY first_seen DESC`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPostings(rows)
}

// ListPostings returns the most recently seen postings across all sources.
// limit <= 0 means no limit.
func (s *Store) ListPostings(ctx context.Context, limit int) ([]*Posting, error) {
	q := `SELECT ` + postingCols + ` FROM postings ORDER BY first_seen DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPostings(rows)
}

// ListPostingsGroupedBySource returns every source with its postings, for
// the by-source dashboard view.
func (s *Store) ListPostingsGroupedBySource(ctx context.Context) ([]*SourcePostings, error) {
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]*SourcePostings, 0, len(sources))
	for _, src := range sources {
		postings, err := s.PostingsBySource(ctx, src.ID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &SourcePostings{Source: src, Postings: postings})
	}
	return groups, nil
}

// InsertPosting adds a new posting inside the caller's transaction. The
// UNIQUE(source_id, identity_key) constraint rejects duplicates.
func (s *Store) InsertPosting(ctx context.Context, tx *sql.Tx, p *Posting) error {
	if p.FirstSeen == 0 {
		p.FirstSeen = time.Now().UnixMilli()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO postings (id, source_id, identity_key, title, company, location, url, first_seen, notified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SourceID, p.IdentityKey, p.Title, p.Company, p.Location, p.URL, p.FirstSeen, p.Notified,
	)
	return err
}

// UpdatePosting rewrites a posting's mutable fields inside the caller's
// transaction. first_seen and notified are never touched here.
func (s *Store) UpdatePosting(ctx context.Context, tx *sql.Tx, p *Posting) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE postings SET title=?, company=?, location=?, url=?
		WHERE id=?`,
		p.Title, p.Company, p.Location, p.URL, p.ID,
	)
	return err
}

// MarkNotified flips the notified flag for the given posting IDs. Idempotent:
// already-notified postings are left as-is, unknown IDs are ignored.
func (s *Store) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.DB.ExecContext(ctx,
		`UPDATE postings SET notified = 1 WHERE id IN (`+placeholders+`)`, args...)
	return err
}

// ListUnnotified returns all postings never successfully delivered, oldest
// first. Feeds the next run's notification batch.
func (s *Store) ListUnnotified(ctx context.Context) ([]*Posting, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+postingCols+` FROM postings
		WHERE notified = 0 ORDER BY first_seen ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPostings(rows)
}

// CountPostings returns the total number of stored postings.
func (s *Store) CountPostings(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings`).Scan(&count)
	return count, err
}

func collectPostings(rows *sql.Rows) ([]*Posting, error) {
	var postings []*Posting
	for rows.Next() {
		var p Posting
		var notified int
		err := rows.Scan(
			&p.ID, &p.SourceID, &p.IdentityKey, &p.Title, &p.Company,
			&p.Location, &p.URL, &p.FirstSeen, &notified,
		)
		if err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		p.Notified = notified != 0
		postings = append(postings, &p)
	}
	return postings, rows.Err()
}
