package extract

import (
	"context"
	"log/slog"
)

// Structurer turns prepared page content into candidate postings.
type Structurer interface {
	Extract(ctx context.Context, content, sourceHint string) ([]Candidate, error)
}

// Result is the validated output of one extraction.
type Result struct {
	Candidates []Candidate
	Dropped    int  // candidates discarded for missing a title
	Truncated  bool // content hit the byte ceiling before submission
}

// Extractor prepares markup and validates the structuring service's output.
type Extractor struct {
	prep   *Preparer
	svc    Structurer
	logger *slog.Logger
}

// NewExtractor builds an Extractor around the given structuring service.
func NewExtractor(svc Structurer, maxContentBytes int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		prep:   NewPreparer(maxContentBytes),
		svc:    svc,
		logger: logger,
	}
}

// Extract runs the full prepare-submit-validate sequence for one page.
// Candidates without a title are dropped and counted, never fatal.
func (e *Extractor) Extract(ctx context.Context, rawHTML []byte, sourceURL, sourceName string) (*Result, error) {
	if len(rawHTML) == 0 {
		return nil, &Error{Kind: KindMalformed, Message: "empty content from " + sourceURL}
	}

	prepared := e.prep.Prepare(rawHTML, sourceURL)
	if prepared.Truncated {
		e.logger.Warn("extract: content truncated before submission",
			"url", sourceURL, "limit", e.prep.maxBytes)
	}

	hint := sourceName
	if prepared.TitleHint != "" {
		hint = prepared.TitleHint
	}

	candidates, err := e.svc.Extract(ctx, prepared.Content, hint)
	if err != nil {
		return nil, err
	}

	res := &Result{Truncated: prepared.Truncated}
	for _, c := range candidates {
		if c.Title == "" {
			res.Dropped++
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}
	if res.Dropped > 0 {
		e.logger.Warn("extract: dropped title-less candidates",
			"url", sourceURL, "dropped", res.Dropped)
	}
	return res, nil
}
