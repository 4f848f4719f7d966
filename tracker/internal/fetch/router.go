package fetch

import (
	"context"
	"log/slog"
)

// Strategy is one way of turning a URL into markup.
type Strategy interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Router selects a fetch strategy per source. Sources flagged as needing a
// browser go through Chrome first and fall back to plain HTTP when the
// browser path fails or no browser strategy is configured.
type Router struct {
	httpFetcher Strategy
	browser     Strategy // nil when browser automation is unavailable
	logger      *slog.Logger
}

// NewRouter builds a Router. browser may be nil.
func NewRouter(httpFetcher, browser Strategy, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{httpFetcher: httpFetcher, browser: browser, logger: logger}
}

// Fetch retrieves the URL using the strategy the source asks for. Strategy
// selection depends only on requiresBrowser, never on content.
func (r *Router) Fetch(ctx context.Context, url string, requiresBrowser bool) (*Result, error) {
	if !requiresBrowser {
		return r.httpFetcher.Fetch(ctx, url)
	}

	if r.browser != nil {
		res, err := r.browser.Fetch(ctx, url)
		if err == nil {
			return res, nil
		}
		r.logger.Warn("fetch: browser strategy failed, falling back to http",
			"url", url, "error", err)
	} else {
		r.logger.Warn("fetch: browser required but unavailable, using http", "url", url)
	}

	return r.httpFetcher.Fetch(ctx, url)
}
