package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserConfig configures the headless-browser fetcher.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// NavTimeout bounds navigation plus page load. Default: 45s.
	NavTimeout time.Duration

	// SettleDelay waits after load for JS-rendered job boards to paint.
	// Default: 2s.
	SettleDelay time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 45 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// BrowserFetcher renders pages through headless Chrome. Chrome is launched
// lazily on the first fetch and kept alive across runs.
type BrowserFetcher struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowserFetcher creates a BrowserFetcher. Chrome starts on first use.
func NewBrowserFetcher(cfg BrowserConfig) *BrowserFetcher {
	cfg.defaults()
	return &BrowserFetcher{cfg: cfg}
}

// Fetch navigates to the URL in a fresh stealth tab and returns the rendered
// DOM as HTML. All failures carry KindBrowser.
func (b *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	browser, err := b.ensure()
	if err != nil {
		return nil, &Error{Kind: KindBrowser, Message: "launch chrome", Err: err}
	}

	start := time.Now()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, &Error{Kind: KindBrowser, Message: "create tab", Err: err}
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(rawURL); err != nil {
		return nil, &Error{Kind: KindBrowser, Message: "navigate " + rawURL, Err: err}
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browser: wait load timeout", "url", rawURL, "error", err)
	}

	// Let client-side job boards finish rendering.
	select {
	case <-time.After(b.cfg.SettleDelay):
	case <-navCtx.Done():
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, &Error{Kind: KindBrowser, Message: "read DOM", Err: err}
	}

	info, err := page.Info()
	finalURL := rawURL
	if err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Result{
		Body:     []byte(res.Value.Str()),
		FinalURL: finalURL,
		Method:   "browser",
		Duration: time.Since(start),
	}, nil
}

// Close shuts down Chrome if it was started.
func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return nil
}

func (b *BrowserFetcher) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("browser fetcher is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	var wsURL string
	if b.cfg.RemoteURL != "" {
		wsURL = b.cfg.RemoteURL
		b.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("browser: launched local chrome")
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	b.browser = browser
	return browser, nil
}
