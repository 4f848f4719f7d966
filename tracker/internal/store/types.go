package store

// Source represents a tracked career page.
type Source struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	URL              string `json:"url"`
	RequiresBrowser  bool   `json:"requires_browser"`
	LastChecked      *int64 `json:"last_checked,omitempty"`
	LastError        string `json:"last_error"`
	LastPostingCount int    `json:"last_posting_count"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

// Posting is one job opening discovered from a source. IdentityKey is the
// normalized dedup key, unique per source (enforced by the schema).
type Posting struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	IdentityKey string `json:"identity_key"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	FirstSeen   int64  `json:"first_seen"`
	Notified    bool   `json:"notified"`
}

// Run records one pipeline execution across all sources.
type Run struct {
	ID            string `json:"id"`
	StartedAt     int64  `json:"started_at"`
	EndedAt       *int64 `json:"ended_at,omitempty"`
	Trigger       string `json:"trigger"` // "scheduled" | "manual"
	Outcome       string `json:"outcome"` // "running" | "completed" | "aborted" | "failed"
	NewCount      int    `json:"new_count"`
	SourcesOK     int    `json:"sources_ok"`
	SourcesFailed int    `json:"sources_failed"`
	DetailJSON    string `json:"detail_json"` // per-source outcomes
}

// ScheduleConfig is the process-wide recurrence setting, persisted in the
// settings table and read by the scheduler on every tick.
type ScheduleConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes"`
}

// Stats holds the dashboard aggregates.
type Stats struct {
	TotalPostings int    `json:"total_postings"`
	TotalSources  int    `json:"total_sources"`
	ChecksToday   int    `json:"checks_today"`
	ChangesToday  int    `json:"changes_today"`
	LastRunAt     *int64 `json:"last_run_at,omitempty"`
}

// SourcePostings groups a source with its stored postings for the
// by-source dashboard view.
type SourcePostings struct {
	Source   *Source    `json:"source"`
	Postings []*Posting `json:"postings"`
}
