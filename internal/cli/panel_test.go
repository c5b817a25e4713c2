package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/ui"
)

func TestPanelPlainOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	c := New(&out, &errOut, LogInfo)
	p := c.newPanel(context.Background(), "Moon report")
	if p.animate {
		t.Fatal("a buffer is not a terminal")
	}

	p.Loading("Loading moon report...")
	p.Loading(ui.RetryMessage(fetch.RetryEvent{Attempt: 1, MaxAttempts: 6, Wait: 1500 * time.Millisecond}))
	p.Notice("Moon report cache is not ready yet")
	p.Error("Weather provider unavailable")
	p.Clear()

	got := errOut.String()
	for _, want := range []string{
		"Loading moon report...",
		"Retrying in 2s (1/6)…",
		"Moon report cache is not ready yet",
		"Weather provider unavailable",
		"Moon report",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("panel output missing %q:\n%s", want, got)
		}
	}
	if out.Len() != 0 {
		t.Errorf("panel wrote to stdout: %q", out.String())
	}
}

func TestFetchJSONWithUIThroughPanel(t *testing.T) {
	var errOut bytes.Buffer
	c := New(&bytes.Buffer{}, &errOut, LogInfo)
	f := fixedFetcher{p: fetch.MustParsePayload(`{"error":"Invalid mode"}`)}

	if got := ui.FetchJSONWithUI(context.Background(), f, "/api/tonight/best-window", c.newPanel(context.Background(), "Tonight"), "Loading...", fetch.RetryPolicy{}); got != nil {
		t.Errorf("error payload returned %v", got)
	}
	if !strings.Contains(errOut.String(), "Invalid mode") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

type fixedFetcher struct{ p *fetch.Payload }

func (f fixedFetcher) FetchJSONWithRetry(context.Context, string, fetch.Request, fetch.RetryPolicy) (*fetch.Payload, error) {
	return f.p, nil
}
