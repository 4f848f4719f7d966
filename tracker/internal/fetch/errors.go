package fetch

import "fmt"

// Kind classifies a fetch failure. The orchestrator records the kind on the
// source outcome; it never retries inside this package.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindHTTPStatus Kind = "http_status"
	KindBrowser    Kind = "browser"
)

// Error is a classified fetch failure.
type Error struct {
	Kind       Kind
	StatusCode int // set for KindHTTPStatus
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
