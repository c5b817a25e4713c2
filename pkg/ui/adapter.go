package ui

import (
	"context"
	"fmt"
	"math"

	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
)

// Container is a display surface for one call: a terminal panel, a TUI
// cell or an in-memory recorder.
type Container interface {
	Loading(msg string) // in-flight state, may be called repeatedly
	Error(msg string)   // terminal failure
	Notice(msg string)  // terminal informational state
	Clear()             // terminal success; the caller renders the data
}

// Fetcher is the part of *fetch.Client the adapter needs.
type Fetcher interface {
	FetchJSONWithRetry(ctx context.Context, path string, req fetch.Request, policy fetch.RetryPolicy) (*fetch.Payload, error)
}

// FetchJSONWithUI fetches path and projects the call onto c.
//
// c shows loadingMessage immediately and a retry line on every retry
// event. When the call resolves c ends in exactly one terminal state:
// Error for a failed call or an error payload, Notice for a payload still
// pending after every attempt, Clear for success. Only a success payload
// is returned; every other outcome returns nil.
func FetchJSONWithUI(ctx context.Context, f Fetcher, path string, c Container, loadingMessage string, policy fetch.RetryPolicy) *fetch.Payload {
	c.Loading(loadingMessage)
	policy = policy.WithOnRetry(func(e fetch.RetryEvent) {
		c.Loading(RetryMessage(e))
	})

	p, err := f.FetchJSONWithRetry(ctx, path, fetch.Request{}, policy)
	switch {
	case err != nil:
		c.Error(ErrorMessage(err))
		return nil
	case p.IsError():
		c.Error(p.ErrorText())
		return nil
	case p.IsPending():
		c.Notice(PendingMessage(p))
		return nil
	}
	c.Clear()
	return p
}

// RetryMessage renders a retry event as "Retrying in Ns (attempt/total)…".
// Waits are rounded up to whole seconds.
func RetryMessage(e fetch.RetryEvent) string {
	secs := int(math.Ceil(e.Wait.Seconds()))
	return fmt.Sprintf("Retrying in %ds (%d/%d)…", secs, e.Attempt, e.MaxAttempts)
}

// PendingMessage is the notice shown when a resource is still warming
// after every attempt.
func PendingMessage(p *fetch.Payload) string {
	if msg := p.Message(); msg != "" {
		return msg + ". Data will be available shortly."
	}
	return "Data is still being prepared. Try again shortly."
}

// ErrorMessage renders a failed call for display.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrCodeUnauthorized):
		return "Session expired. Please log in again."
	case errors.Is(err, errors.ErrCodeForbidden):
		return "You do not have permission to view this."
	case errors.Is(err, errors.ErrCodeTimeout), errors.Is(err, errors.ErrCodeNetwork):
		return "Failed to load: server unreachable."
	}
	return "Failed to load: " + errors.UserMessage(err)
}
