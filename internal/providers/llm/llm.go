package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider turns a prompt into a single completion.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Close() error
}

// Failure kinds surfaced to callers. They map one-to-one onto the parse result
// error kinds.
var (
	ErrAuth        = errors.New("llm: authentication failed")
	ErrRateLimited = errors.New("llm: rate limited")
	ErrUpstream    = errors.New("llm: upstream error")
	ErrNetwork     = errors.New("llm: network error")
	ErrEmpty       = errors.New("llm: empty completion")
)

// StatusError carries the upstream HTTP status and wraps one of the kinds above.
type StatusError struct {
	StatusCode int
	Body       string
	Kind       error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// KindForStatus classifies a non-2xx HTTP status.
func KindForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuth
	case status == 429:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
