package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hazyhaar/jobtrack/dbopen"
	"github.com/hazyhaar/jobtrack/tracker/internal/extract"
	"github.com/hazyhaar/jobtrack/tracker/internal/notify"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

// sourceOutcome is one source's result inside a run's detail record.
type sourceOutcome struct {
	Status  string `json:"status"` // "ok" | "failed" | "deferred"
	Error   string `json:"error,omitempty"`
	New     int    `json:"new,omitempty"`
	Updated int    `json:"updated,omitempty"`
	Faults  int    `json:"integrity_faults,omitempty"`
}

// Run executes one full pipeline pass synchronously. Returns
// ErrAlreadyRunning when another run holds the guard.
func (s *Service) Run(ctx context.Context, trigger string) (*Run, error) {
	if !s.guard.acquire() {
		return nil, ErrAlreadyRunning
	}
	defer s.guard.release()
	return s.runLocked(ctx, trigger)
}

// StartRun launches a run in the background. Returns the run trigger
// acceptance synchronously: ErrAlreadyRunning when the guard is held.
func (s *Service) StartRun(trigger string) error {
	if !s.guard.acquire() {
		return ErrAlreadyRunning
	}
	go func() {
		defer s.guard.release()
		if _, err := s.runLocked(context.Background(), trigger); err != nil {
			s.logger.Error("run failed", "trigger", trigger, "error", err)
		}
	}()
	return nil
}

// runLocked is the orchestrator. Caller must hold the guard.
//
// Per source: fetch, extract, reconcile, persist atomically, accumulate.
// Fetch and non-rate-limit extraction errors fail only that source. A
// rate-limit signal aborts the rest of the run; the next tick retries.
// After the loop, all unnotified postings go out as one batch.
func (s *Service) runLocked(ctx context.Context, trigger string) (*Run, error) {
	run := &store.Run{ID: s.newID(), Trigger: trigger}
	if err := s.st.InsertRun(ctx, run); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	s.logger.Info("run started", "run_id", run.ID, "trigger", trigger)

	sources, err := s.st.ListSources(ctx)
	if err != nil {
		return run, s.failRun(ctx, run, nil, fmt.Errorf("list sources: %w", err))
	}

	outcomes := make(map[string]*sourceOutcome, len(sources))
	aborted := false

	for _, src := range sources {
		outcome, fault := s.processSource(ctx, run, src)
		outcomes[src.ID] = outcome

		switch outcome.Status {
		case "ok":
			run.SourcesOK++
			run.NewCount += outcome.New
		case "failed":
			run.SourcesFailed++
		}
		if fault != nil {
			return run, s.failRun(ctx, run, outcomes, fault)
		}
		if outcome.Status == "deferred" {
			aborted = true
			s.logger.Warn("run aborted early on rate limit",
				"run_id", run.ID, "source_id", src.ID)
			break
		}
	}

	if err := s.notifyUnnotified(ctx); err != nil {
		// Postings stay unnotified and ride the next run's batch.
		s.logger.Error("notification failed, will retry next run", "error", err)
	}

	run.Outcome = "completed"
	if aborted {
		run.Outcome = "aborted"
	}
	run.DetailJSON = marshalOutcomes(outcomes)
	if err := s.st.FinalizeRun(ctx, run); err != nil {
		return run, fmt.Errorf("finalize run: %w", err)
	}
	s.logger.Info("run finished", "run_id", run.ID, "outcome", run.Outcome,
		"new", run.NewCount, "ok", run.SourcesOK, "failed", run.SourcesFailed)
	return run, nil
}

// processSource runs the fetch-extract-reconcile-persist sequence for one
// source. The returned fault is non-nil only for store-level failures,
// which are unrecoverable for the whole run.
func (s *Service) processSource(ctx context.Context, run *store.Run, src *store.Source) (*sourceOutcome, error) {
	fetched, err := s.fetcher.Fetch(ctx, src.URL, src.RequiresBrowser)
	if err != nil {
		s.logger.Warn("source fetch failed", "source_id", src.ID, "url", src.URL, "error", err)
		s.st.RecordCheckError(ctx, src.ID, err.Error())
		return &sourceOutcome{Status: "failed", Error: err.Error()}, nil
	}

	extracted, err := s.extractor.Extract(ctx, fetched.Body, fetched.FinalURL, src.Name)
	if err != nil {
		var ee *extract.Error
		if errors.As(err, &ee) && ee.Kind == extract.KindRateLimited {
			s.st.RecordCheckError(ctx, src.ID, err.Error())
			return &sourceOutcome{Status: "deferred", Error: err.Error()}, nil
		}
		s.logger.Warn("source extraction failed", "source_id", src.ID, "error", err)
		s.st.RecordCheckError(ctx, src.ID, err.Error())
		return &sourceOutcome{Status: "failed", Error: err.Error()}, nil
	}

	rec := &reconciler{store: s.st, newID: s.newID, nowMs: s.nowMs}
	result, err := rec.reconcile(ctx, src, extracted.Candidates)
	if err != nil {
		return &sourceOutcome{Status: "failed", Error: err.Error()}, err
	}
	if result.IntegrityFaults > 0 {
		s.logger.Error("identity key collision, candidates skipped",
			"source_id", src.ID, "count", result.IntegrityFaults)
	}

	// One transaction per source: a crash mid-run never leaves partial
	// updates committed.
	err = dbopen.RunTx(ctx, s.st.DB, func(tx *sql.Tx) error {
		for _, p := range result.New {
			if err := s.st.InsertPosting(ctx, tx, p); err != nil {
				return fmt.Errorf("insert posting: %w", err)
			}
		}
		for _, p := range result.Updated {
			if err := s.st.UpdatePosting(ctx, tx, p); err != nil {
				return fmt.Errorf("update posting: %w", err)
			}
		}
		return s.st.RecordCheckSuccess(ctx, tx, src.ID, len(extracted.Candidates))
	})
	if err != nil {
		return &sourceOutcome{Status: "failed", Error: err.Error()}, err
	}

	s.logger.Info("source checked", "source_id", src.ID,
		"candidates", len(extracted.Candidates),
		"new", len(result.New), "updated", len(result.Updated))
	return &sourceOutcome{
		Status:  "ok",
		New:     len(result.New),
		Updated: len(result.Updated),
		Faults:  result.IntegrityFaults,
	}, nil
}

// notifyUnnotified sends every never-delivered posting as one batch and
// marks them notified only on confirmed delivery. Postings from earlier
// failed deliveries ride along, giving at-least-once semantics.
func (s *Service) notifyUnnotified(ctx context.Context) error {
	batch, err := s.st.ListUnnotified(ctx)
	if err != nil {
		return fmt.Errorf("list unnotified: %w", err)
	}

	items := make([]notify.Item, len(batch))
	ids := make([]string, len(batch))
	for i, p := range batch {
		items[i] = notify.Item{Title: p.Title, Company: p.Company, Location: p.Location, URL: p.URL}
		ids[i] = p.ID
	}

	res, err := s.notifier.Notify(items)
	if err != nil {
		return err
	}
	if !res.Delivered || len(ids) == 0 {
		return nil
	}
	return s.st.MarkNotified(ctx, ids)
}

// failRun finalizes a run as failed. Sources committed before the fault
// stay committed; there is no cross-source rollback.
func (s *Service) failRun(ctx context.Context, run *store.Run, outcomes map[string]*sourceOutcome, cause error) error {
	run.Outcome = "failed"
	run.DetailJSON = marshalOutcomes(outcomes)
	if err := s.st.FinalizeRun(ctx, run); err != nil {
		s.logger.Error("finalize failed run", "run_id", run.ID, "error", err)
	}
	return cause
}

func marshalOutcomes(outcomes map[string]*sourceOutcome) string {
	if len(outcomes) == 0 {
		return "{}"
	}
	b, err := json.Marshal(outcomes)
	if err != nil {
		return "{}"
	}
	return string(b)
}
