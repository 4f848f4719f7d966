package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/jobtrack/dbopen"
	"github.com/hazyhaar/jobtrack/tracker/internal/extract"
	"github.com/hazyhaar/jobtrack/tracker/internal/fetch"
	"github.com/hazyhaar/jobtrack/tracker/internal/notify"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
	_ "modernc.org/sqlite"
)

// scriptedFetcher serves canned bodies per URL.
type scriptedFetcher struct {
	pages map[string]string
	fail  map[string]error
	block chan struct{} // when set, Fetch waits until closed
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string, requiresBrowser bool) (*fetch.Result, error) {
	if f.block != nil {
		<-f.block
	}
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 404, Message: url}
	}
	return &fetch.Result{Body: []byte(body), FinalURL: url, Method: "http"}, nil
}

// scriptedExtractor returns canned candidates per source URL.
type scriptedExtractor struct {
	byURL map[string][]extract.Candidate
	fail  map[string]error
}

func (e *scriptedExtractor) Extract(ctx context.Context, rawHTML []byte, sourceURL, sourceName string) (*extract.Result, error) {
	if err, ok := e.fail[sourceURL]; ok {
		return nil, err
	}
	return &extract.Result{Candidates: e.byURL[sourceURL]}, nil
}

// recordingNotifier captures batches and can simulate transport failure.
type recordingNotifier struct {
	batches [][]notify.Item
	fail    bool
}

func (n *recordingNotifier) Notify(items []notify.Item) (*notify.DeliveryResult, error) {
	if len(items) == 0 {
		return &notify.DeliveryResult{Delivered: true}, nil
	}
	if n.fail {
		return &notify.DeliveryResult{Delivered: false, Count: len(items)}, errors.New("smtp: connection refused")
	}
	n.batches = append(n.batches, items)
	return &notify.DeliveryResult{Delivered: true, Count: len(items)}, nil
}

func newTestService(t *testing.T, fetcher Fetcher, extractor Extractor, notifier Notifier) *Service {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(db, nil, logger,
		WithFetcher(fetcher), WithExtractor(extractor), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func addSource(t *testing.T, svc *Service, name, url string) *Source {
	t.Helper()
	src := &Source{Name: name, URL: url}
	if err := svc.AddSource(context.Background(), src); err != nil {
		t.Fatalf("add source %s: %v", url, err)
	}
	return src
}

func TestAddSourceValidatesAndNormalizes(t *testing.T) {
	// WHAT: AddSource rejects bad input and stores the normalized URL.
	// WHY: Source URL is the dedup anchor; it must enter the store clean.
	svc := newTestService(t, &scriptedFetcher{}, &scriptedExtractor{}, &recordingNotifier{})
	ctx := context.Background()

	if err := svc.AddSource(ctx, &Source{Name: "", URL: "https://a.example"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing name: err = %v", err)
	}
	if err := svc.AddSource(ctx, &Source{Name: "A", URL: "ftp://a.example"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad scheme: err = %v", err)
	}

	src := &Source{Name: "Acme", URL: "https://ACME.Example/Careers/"}
	if err := svc.AddSource(ctx, src); err != nil {
		t.Fatalf("add: %v", err)
	}
	if src.URL != "https://acme.example/Careers" {
		t.Errorf("stored url = %q", src.URL)
	}
	if src.ID == "" {
		t.Error("no ID assigned")
	}
}

func TestAddSourceRejectsDuplicateURL(t *testing.T) {
	// WHAT: Two sources normalizing to the same URL are rejected.
	// WHY: URL is unique among sources.
	svc := newTestService(t, &scriptedFetcher{}, &scriptedExtractor{}, &recordingNotifier{})
	ctx := context.Background()

	addSource(t, svc, "Acme", "https://acme.example/careers")
	err := svc.AddSource(ctx, &Source{Name: "Acme again", URL: "https://ACME.example/careers/"})
	if !errors.Is(err, ErrDuplicateSource) {
		t.Errorf("err = %v, want ErrDuplicateSource", err)
	}
}

func TestDeleteSource(t *testing.T) {
	svc := newTestService(t, &scriptedFetcher{}, &scriptedExtractor{}, &recordingNotifier{})
	ctx := context.Background()

	src := addSource(t, svc, "Acme", "https://acme.example/careers")
	if err := svc.DeleteSource(ctx, src.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteSource(ctx, src.ID); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestSetScheduleValidation(t *testing.T) {
	svc := newTestService(t, &scriptedFetcher{}, &scriptedExtractor{}, &recordingNotifier{})
	ctx := context.Background()

	if err := svc.SetSchedule(ctx, &ScheduleConfig{Enabled: true, IntervalMinutes: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero interval: err = %v", err)
	}
	if err := svc.SetSchedule(ctx, &ScheduleConfig{Enabled: true, IntervalMinutes: 30}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := svc.Schedule(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Enabled || got.IntervalMinutes != 30 {
		t.Errorf("schedule = %+v", got)
	}
}

func TestStatsReflectsState(t *testing.T) {
	// WHAT: Dashboard stats combine counters, schedule and run state.
	careers := "https://acme.example/careers"
	fetcher := &scriptedFetcher{pages: map[string]string{careers: "<html>jobs</html>"}}
	extractor := &scriptedExtractor{byURL: map[string][]extract.Candidate{
		careers: {{Title: "Backend Engineer", URL: "https://acme.example/jobs/1"}},
	}}
	svc := newTestService(t, fetcher, extractor, &recordingNotifier{})
	ctx := context.Background()

	addSource(t, svc, "Acme", careers)
	if err := svc.SetSchedule(ctx, &ScheduleConfig{Enabled: true, IntervalMinutes: 60}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Run(ctx, "manual"); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSources != 1 || stats.TotalPostings != 1 {
		t.Errorf("totals: %+v", stats)
	}
	if stats.ChecksToday != 1 || stats.ChangesToday != 1 {
		t.Errorf("today: %+v", stats)
	}
	if !stats.SchedulerEnabled || stats.IntervalMinutes != 60 {
		t.Errorf("schedule: %+v", stats)
	}
	if stats.LastRunAt == nil || stats.NextRunAt == nil {
		t.Errorf("run times missing: %+v", stats)
	}
	if stats.Running {
		t.Error("no run should be in progress")
	}
}
