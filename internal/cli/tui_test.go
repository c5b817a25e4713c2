package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
)

func TestDashboardModelRefreshCycle(t *testing.T) {
	var calls []bool
	refresh := func(force bool) []tile {
		calls = append(calls, force)
		return []tile{{
			Resource: resources.MoonReport,
			Entry:    &resources.Entry{Payload: fetch.MustParsePayload(`{"moon":{"phase_name":"Full Moon"}}`), FetchedAt: time.Now()},
		}}
	}
	m := newDashboardModel(refresh, time.Second)
	if !m.loading {
		t.Fatal("model should start loading")
	}

	msg := m.Init()()
	next, cmd := m.Update(msg)
	m = next.(dashboardModel)
	if m.loading || len(m.tiles) != 1 || m.gen != 1 || cmd == nil {
		t.Fatalf("after load: loading=%v tiles=%d gen=%d", m.loading, len(m.tiles), m.gen)
	}
	if !strings.Contains(m.View(), resources.MoonReport.Label) {
		t.Errorf("view missing tile:\n%s", m.View())
	}

	// a manual refresh bypasses the cache and makes older ticks stale
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(dashboardModel)
	if !m.loading || cmd == nil {
		t.Fatal("r should start a refresh")
	}
	next, _ = m.Update(cmd())
	m = next.(dashboardModel)
	if len(calls) != 2 || calls[0] || !calls[1] {
		t.Errorf("refresh calls = %v", calls)
	}

	if _, cmd := m.Update(tickMsg{gen: 1}); cmd != nil {
		t.Error("stale tick should be ignored")
	}
	next, cmd = m.Update(tickMsg{gen: m.gen})
	if cmd == nil || !next.(dashboardModel).loading {
		t.Error("current tick should reload")
	}
}

func TestDashboardModelQuit(t *testing.T) {
	m := newDashboardModel(func(bool) []tile { return nil }, 0)
	if m.interval != time.Minute {
		t.Errorf("interval = %v", m.interval)
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || next.View() != "" {
		t.Error("q should quit and clear the view")
	}
}
