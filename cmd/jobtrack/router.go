package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/jobtrack/tracker"
)

// scheduleView is the GET /api/schedule payload: the stored configuration
// plus the computed next run time.
type scheduleView struct {
	Enabled         bool   `json:"enabled"`
	IntervalMinutes int    `json:"interval_minutes"`
	NextRunAt       *int64 `json:"next_run_at,omitempty"`
}

func newRouter(svc *tracker.Service) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", func(w http.ResponseWriter, r *http.Request) {
			sources, err := svc.ListSources(r.Context())
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, sources)
		})

		r.Post("/sources", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Name            string `json:"name"`
				URL             string `json:"url"`
				RequiresBrowser bool   `json:"requires_browser"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			src := &tracker.Source{Name: req.Name, URL: req.URL, RequiresBrowser: req.RequiresBrowser}
			if err := svc.AddSource(r.Context(), src); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 201, src)
		})

		r.Delete("/sources/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if err := svc.DeleteSource(r.Context(), id); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "deleted"})
		})

		r.Get("/postings", func(w http.ResponseWriter, r *http.Request) {
			postings, err := svc.ListPostings(r.Context(), queryInt(r, "limit", 0))
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, postings)
		})

		r.Get("/postings/by-source", func(w http.ResponseWriter, r *http.Request) {
			grouped, err := svc.PostingsBySource(r.Context())
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, grouped)
		})

		r.Post("/run", func(w http.ResponseWriter, _ *http.Request) {
			if err := svc.StartRun("manual"); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 202, map[string]string{"status": "started"})
		})

		r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
			runs, err := svc.Runs(r.Context(), queryInt(r, "limit", 20))
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, runs)
		})

		r.Get("/schedule", func(w http.ResponseWriter, r *http.Request) {
			cfg, err := svc.Schedule(r.Context())
			if err != nil {
				writeError(w, 500, err)
				return
			}
			view := scheduleView{Enabled: cfg.Enabled, IntervalMinutes: cfg.IntervalMinutes}
			if next, err := svc.NextRun(r.Context()); err == nil && next != nil {
				ms := next.UnixMilli()
				view.NextRunAt = &ms
			}
			writeJSON(w, 200, view)
		})

		r.Put("/schedule", func(w http.ResponseWriter, r *http.Request) {
			var cfg tracker.ScheduleConfig
			if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				writeError(w, 400, err)
				return
			}
			if err := svc.SetSchedule(r.Context(), &cfg); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, cfg)
		})

		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			stats, err := svc.Stats(r.Context())
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, stats)
		})
	})

	return r
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput):
		return 400
	case errors.Is(err, tracker.ErrSourceNotFound):
		return 404
	case errors.Is(err, tracker.ErrDuplicateSource), errors.Is(err, tracker.ErrAlreadyRunning):
		return 409
	default:
		return 500
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
