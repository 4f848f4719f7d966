package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/jobtrack/idgen"
	"github.com/hazyhaar/jobtrack/tracker/internal/extract"
	"github.com/hazyhaar/jobtrack/tracker/internal/fetch"
	"github.com/hazyhaar/jobtrack/tracker/internal/notify"
	"github.com/hazyhaar/jobtrack/tracker/internal/scheduler"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

// Fetcher retrieves raw markup for a source.
type Fetcher interface {
	Fetch(ctx context.Context, url string, requiresBrowser bool) (*fetch.Result, error)
}

// Extractor turns raw markup into validated candidate postings.
type Extractor interface {
	Extract(ctx context.Context, rawHTML []byte, sourceURL, sourceName string) (*extract.Result, error)
}

// Notifier delivers a new-posting batch.
type Notifier interface {
	Notify(items []notify.Item) (*notify.DeliveryResult, error)
}

// Service is the jobtrack orchestrator.
type Service struct {
	st        *store.Store
	fetcher   Fetcher
	extractor Extractor
	notifier  Notifier
	scheduler *scheduler.Scheduler
	guard     runGuard
	logger    *slog.Logger
	config    *Config
	newID     func() string
	nowMs     func() int64

	browser *fetch.BrowserFetcher // nil unless browser automation is enabled
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithFetcher overrides the fetch strategy. Use in tests.
func WithFetcher(f Fetcher) ServiceOption {
	return func(svc *Service) { svc.fetcher = f }
}

// WithExtractor overrides the extraction step. Use in tests.
func WithExtractor(e Extractor) ServiceOption {
	return func(svc *Service) { svc.extractor = e }
}

// WithNotifier overrides the notification gateway. Use in tests.
func WithNotifier(n Notifier) ServiceOption {
	return func(svc *Service) { svc.notifier = n }
}

// WithIDGenerator overrides ID generation. Use in tests for stable IDs.
func WithIDGenerator(gen idgen.Generator) ServiceOption {
	return func(svc *Service) { svc.newID = gen }
}

// New creates a jobtrack Service on an already-opened database.
func New(db *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	svc := &Service{
		st:     store.NewStore(db),
		logger: logger,
		config: cfg,
		newID:  idgen.New,
		nowMs:  func() int64 { return time.Now().UnixMilli() },
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.fetcher == nil {
		httpFetcher := fetch.NewFetcher(fetch.Config{
			Timeout:   cfg.FetchTimeout(),
			MaxBytes:  cfg.Fetch.MaxBytes,
			UserAgent: cfg.Fetch.UserAgent,
		})
		var browser fetch.Strategy
		if cfg.Browser.Enabled {
			svc.browser = fetch.NewBrowserFetcher(fetch.BrowserConfig{
				RemoteURL: cfg.Browser.RemoteURL,
				Logger:    logger.With("component", "browser"),
			})
			browser = svc.browser
		}
		svc.fetcher = fetch.NewRouter(httpFetcher, browser, logger.With("component", "fetch"))
	}

	if svc.extractor == nil {
		client := extract.NewClient(extract.ClientConfig{
			APIKey:            cfg.Extract.APIKey,
			Model:             cfg.Extract.Model,
			RequestsPerMinute: cfg.Extract.RequestsPerMinute,
			Logger:            logger.With("component", "extract"),
		})
		svc.extractor = extract.NewExtractor(client, cfg.Extract.MaxContentBytes,
			logger.With("component", "extract"))
	}

	if svc.notifier == nil {
		smtpCfg := notify.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Sender:    cfg.SMTP.Sender,
			Password:  cfg.SMTP.Password,
			Recipient: cfg.SMTP.Recipient,
		}
		var mailer notify.Mailer
		if smtpCfg.Configured() {
			mailer = notify.NewSMTPMailer(smtpCfg)
		}
		svc.notifier = notify.NewGateway(mailer, logger.With("component", "notify"))
	}

	svc.scheduler = scheduler.New(
		&scheduleReader{st: svc.st},
		func(ctx context.Context) error {
			_, err := svc.Run(ctx, "scheduled")
			return err
		},
		scheduler.Config{PollInterval: cfg.SchedulerPoll()},
		logger.With("component", "scheduler"),
	)

	return svc, nil
}

// Start launches the background scheduler. Non-blocking.
func (s *Service) Start(ctx context.Context) {
	go s.scheduler.Run(ctx)
	s.logger.Info("tracker: started")
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.browser != nil {
		s.browser.Close()
	}
	s.logger.Info("tracker: closed")
	return nil
}

// ApplySchema creates the jobtrack tables on the given database.
func ApplySchema(db *sql.DB) error {
	return store.ApplySchema(db)
}

// --- Sources ---

// AddSource validates, normalizes and stores a new source.
func (s *Service) AddSource(ctx context.Context, src *Source) error {
	if src.ID == "" {
		src.ID = s.newID()
	}
	if err := validateSourceInput(src); err != nil {
		return err
	}

	normalized, err := NormalizeSourceURL(src.URL)
	if err != nil {
		return err
	}
	src.URL = normalized

	count, err := s.st.CountSources(ctx)
	if err != nil {
		return fmt.Errorf("count sources: %w", err)
	}
	if count >= MaxSources {
		return fmt.Errorf("%w: maximum %d sources", ErrInvalidInput, MaxSources)
	}

	existing, _ := s.st.GetSourceByURL(ctx, src.URL)
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, src.URL)
	}

	return s.st.InsertSource(ctx, src)
}

// GetSource returns a source by ID.
func (s *Service) GetSource(ctx context.Context, id string) (*Source, error) {
	src, err := s.st.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return src, nil
}

// ListSources returns all sources.
func (s *Service) ListSources(ctx context.Context) ([]*Source, error) {
	return s.st.ListSources(ctx)
}

// DeleteSource removes a source and all its postings.
func (s *Service) DeleteSource(ctx context.Context, id string) error {
	src, err := s.st.GetSource(ctx, id)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return s.st.DeleteSource(ctx, id)
}

// --- Postings ---

// ListPostings returns the most recently seen postings. limit <= 0 lists all.
func (s *Service) ListPostings(ctx context.Context, limit int) ([]*Posting, error) {
	return s.st.ListPostings(ctx, limit)
}

// PostingsBySource returns every source with its postings.
func (s *Service) PostingsBySource(ctx context.Context) ([]*SourcePostings, error) {
	return s.st.ListPostingsGroupedBySource(ctx)
}

// --- Runs & schedule ---

// Runs returns the most recent run records.
func (s *Service) Runs(ctx context.Context, limit int) ([]*Run, error) {
	return s.st.ListRuns(ctx, limit)
}

// Schedule returns the persisted schedule configuration.
func (s *Service) Schedule(ctx context.Context) (*ScheduleConfig, error) {
	return s.st.GetSchedule(ctx)
}

// SetSchedule persists a new schedule configuration. It takes effect on the
// next scheduler tick without interrupting a run in progress.
func (s *Service) SetSchedule(ctx context.Context, cfg *ScheduleConfig) error {
	if cfg.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidInput)
	}
	return s.st.PutSchedule(ctx, cfg)
}

// NextRun returns the next scheduled run time, nil when disabled.
func (s *Service) NextRun(ctx context.Context) (*time.Time, error) {
	return s.scheduler.NextRun(ctx)
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool {
	return s.guard.held()
}

// Stats assembles the dashboard aggregates.
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	base, err := s.st.Stats(ctx)
	if err != nil {
		return nil, err
	}
	sched, err := s.st.GetSchedule(ctx)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{
		TotalPostings:    base.TotalPostings,
		TotalSources:     base.TotalSources,
		ChecksToday:      base.ChecksToday,
		ChangesToday:     base.ChangesToday,
		SchedulerEnabled: sched.Enabled,
		IntervalMinutes:  sched.IntervalMinutes,
		LastRunAt:        base.LastRunAt,
		Running:          s.guard.held(),
	}
	if next, err := s.scheduler.NextRun(ctx); err == nil && next != nil {
		ms := next.UnixMilli()
		stats.NextRunAt = &ms
	}
	return stats, nil
}

// scheduleReader adapts the store to the scheduler's read interface.
type scheduleReader struct {
	st *store.Store
}

func (r *scheduleReader) Schedule(ctx context.Context) (bool, time.Duration, error) {
	cfg, err := r.st.GetSchedule(ctx)
	if err != nil {
		return false, 0, err
	}
	return cfg.Enabled, time.Duration(cfg.IntervalMinutes) * time.Minute, nil
}

func (r *scheduleReader) LastRunStart(ctx context.Context) (*time.Time, error) {
	ms, err := r.st.LastRunStartedAt(ctx)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		return nil, nil
	}
	t := time.UnixMilli(*ms)
	return &t, nil
}
