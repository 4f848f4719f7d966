// Package tracker watches employer career pages for new job postings.
//
// Each pipeline run fetches every configured source, extracts candidate
// postings through an AI structuring service, reconciles them against
// stored state, persists the delta, and emails only the postings never
// seen before. Per-source failures are isolated; at most one run executes
// at a time.
package tracker

import (
	"github.com/hazyhaar/jobtrack/tracker/internal/extract"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

// Re-export store types for the public API.
type (
	Source         = store.Source
	Posting        = store.Posting
	Run            = store.Run
	ScheduleConfig = store.ScheduleConfig
	SourcePostings = store.SourcePostings
)

// Candidate is one unvalidated posting from the extraction step.
type Candidate = extract.Candidate

// DashboardStats aggregates everything the dashboard displays.
type DashboardStats struct {
	TotalPostings    int    `json:"total_postings"`
	TotalSources     int    `json:"total_sources"`
	ChecksToday      int    `json:"checks_today"`
	ChangesToday     int    `json:"changes_today"`
	SchedulerEnabled bool   `json:"scheduler_enabled"`
	IntervalMinutes  int    `json:"interval_minutes"`
	LastRunAt        *int64 `json:"last_run_at,omitempty"`
	NextRunAt        *int64 `json:"next_run_at,omitempty"`
	Running          bool   `json:"running"`
}
