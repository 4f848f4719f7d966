package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const extractionPrompt = `You are a job listing extractor. Analyze the page content below and extract ALL job postings you can find.

For each job, extract:
- title: The job title
- company: Company name (if visible, otherwise use "")
- location: Job location (if visible, otherwise use "")
- url: Link to the job posting (if available, otherwise use "")

Return ONLY a valid JSON array. If no jobs found, return empty array [].

Example output:
[
  {"title": "Software Engineer", "company": "Google", "location": "Mountain View, CA", "url": "https://..."},
  {"title": "Data Analyst", "company": "Google", "location": "New York, NY", "url": "https://..."}
]

Page content to analyze:`

// Candidate is one unvalidated posting returned by the structuring service.
type Candidate struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// ClientConfig configures the Gemini client.
type ClientConfig struct {
	APIKey  string
	Model   string        // Default: "gemini-2.5-flash-lite".
	BaseURL string        // Default: Google's generativelanguage endpoint.
	Timeout time.Duration // Default: 120s.
	// RequestsPerMinute throttles upstream calls across back-to-back
	// sources. Default: 10.
	RequestsPerMinute int
	Logger            *slog.Logger
}

func (c *ClientConfig) defaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash-lite"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client calls the Gemini generateContent REST API.
type Client struct {
	client  *http.Client
	cfg     ClientConfig
	limiter *rate.Limiter
}

// NewClient creates a Gemini client.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract submits prepared page content and returns candidate postings.
// HTTP 429 surfaces as KindRateLimited so the orchestrator can abort the
// whole run instead of hammering the quota source by source.
func (c *Client) Extract(ctx context.Context, content, sourceHint string) ([]Candidate, error) {
	if c.cfg.APIKey == "" {
		return nil, &Error{Kind: KindUpstream, Message: "api key not configured"}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindUpstream, Message: "rate limiter wait", Err: err}
	}

	prompt := extractionPrompt + "\n\n" + content
	if sourceHint != "" {
		prompt = "Page: " + sourceHint + "\n\n" + prompt
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: "marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: "http request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &Error{Kind: KindRateLimited, Message: "upstream quota exhausted"}
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{
			Kind:    KindUpstream,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, raw),
		}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &Error{Kind: KindMalformed, Message: "decode response", Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &Error{Kind: KindMalformed, Message: "response has no content"}
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	candidates, err := parseCandidates(text)
	if err != nil {
		return nil, err
	}

	c.cfg.Logger.Debug("extract: upstream call done",
		"candidates", len(candidates), "duration", time.Since(start))
	return candidates, nil
}

// parseCandidates turns the model's text output into candidates. Strips
// markdown code fences, and on a truncated JSON array salvages the complete
// leading objects instead of failing the batch.
func parseCandidates(text string) ([]Candidate, error) {
	text = stripFences(strings.TrimSpace(text))

	var candidates []Candidate
	if err := json.Unmarshal([]byte(text), &candidates); err == nil {
		return candidates, nil
	}

	salvaged := salvageObjects(text)
	if salvaged == nil {
		return nil, &Error{Kind: KindMalformed, Message: "response is not a posting array"}
	}
	return salvaged, nil
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.SplitN(text, "```", 3)
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

// salvageObjects scans a (possibly truncated) JSON array and extracts every
// complete top-level object that parses and carries a title. Returns nil
// when nothing usable is found.
func salvageObjects(text string) []Candidate {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return nil
	}

	var out []Candidate
	depth := 0
	objStart := -1
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && objStart >= 0 {
				var c Candidate
				if err := json.Unmarshal([]byte(text[objStart:i+1]), &c); err == nil && c.Title != "" {
					out = append(out, c)
				}
				objStart = -1
			}
		case '"':
			// Skip string content including escaped quotes.
			for i++; i < len(text); i++ {
				if text[i] == '\\' {
					i++
					continue
				}
				if text[i] == '"' {
					break
				}
			}
		}
	}
	return out
}
