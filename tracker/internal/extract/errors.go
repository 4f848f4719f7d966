package extract

import "fmt"

// Kind classifies an extraction failure. Rate limiting is its own kind
// because the orchestrator aborts the whole run on it instead of just
// failing the source.
type Kind string

const (
	KindUpstream    Kind = "upstream_failure"
	KindMalformed   Kind = "malformed_response"
	KindRateLimited Kind = "rate_limited"
)

// Error is a classified extraction failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("extract: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
