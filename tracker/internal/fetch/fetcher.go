// Package fetch retrieves raw page markup for the pipeline. Two strategies
// exist: plain HTTP and headless-browser automation. The Router picks one
// per source and normalizes all failures into classified Errors.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Result is the outcome of a successful fetch.
type Result struct {
	Body     []byte
	FinalURL string // after redirects
	Method   string // "http" | "browser"
	Duration time.Duration
}

// Config configures the HTTP fetcher.
type Config struct {
	Timeout   time.Duration // HTTP timeout. Default: 30s.
	MaxBytes  int64         // Max response body size. Default: 5MB.
	UserAgent string
	// URLValidator validates URLs before fetch and on each redirect.
	// Default: ValidateURL.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024 // 5MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "jobtrack/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = ValidateURL
	}
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}

// Fetcher performs plain HTTP fetches.
type Fetcher struct {
	client *http.Client
	config Config
}

// NewFetcher creates a Fetcher with redirect capping and URL validation
// on every hop.
func NewFetcher(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch retrieves a URL over plain HTTP. Failures come back as *Error with
// a kind of network, timeout or http_status.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := f.config.URLValidator(rawURL); err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "invalid url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "new request", Err: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, Message: rawURL, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, Message: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &Error{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("http %d from %s", resp.StatusCode, rawURL),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "read body", Err: err}
	}

	return &Result{
		Body:     body,
		FinalURL: resp.Request.URL.String(),
		Method:   "http",
		Duration: time.Since(start),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
