package store

import (
	"context"
	"time"
)

// Stats returns the dashboard aggregates. "Today" is the local midnight
// boundary, matching what the dashboard displays.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	var err error

	stats.TotalPostings, err = s.CountPostings(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalSources, err = s.CountSources(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UnixMilli()

	stats.ChecksToday, err = s.CountRunsSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	stats.ChangesToday, err = s.SumNewPostingsSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	stats.LastRunAt, err = s.LastRunStartedAt(ctx)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
