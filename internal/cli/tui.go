package cli

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// refreshFunc reads the dashboard; refresh bypasses cached copies.
type refreshFunc func(refresh bool) []tile

type tilesMsg struct {
	tiles []tile
	at    time.Time
}

// tickMsg is tagged with the refresh generation that scheduled it, so a
// manual refresh supersedes the pending tick.
type tickMsg struct{ gen int }

// dashboardModel is the bubbletea model behind `dashboard --watch`.
type dashboardModel struct {
	refresh  refreshFunc
	interval time.Duration

	tiles    []tile
	updated  time.Time
	loading  bool
	gen      int
	quitting bool
}

func newDashboardModel(refresh refreshFunc, interval time.Duration) dashboardModel {
	if interval <= 0 {
		interval = time.Minute
	}
	return dashboardModel{refresh: refresh, interval: interval, loading: true}
}

func (m dashboardModel) load(refresh bool) tea.Cmd {
	return func() tea.Msg {
		return tilesMsg{tiles: m.refresh(refresh), at: time.Now()}
	}
}

func (m dashboardModel) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m dashboardModel) Init() tea.Cmd {
	return m.load(false)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.load(true)
			}
		}
	case tilesMsg:
		m.tiles = msg.tiles
		m.updated = msg.at
		m.loading = false
		m.gen++
		return m, m.tick()
	case tickMsg:
		if msg.gen == m.gen && !m.loading {
			m.loading = true
			return m, m.load(false)
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("MyAstroBoard"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("r refresh  q quit"))
	b.WriteString("\n\n")

	if len(m.tiles) > 0 {
		b.WriteString(renderTiles(m.tiles, time.Now()))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(StyleDim.Render("Refreshing..."))
	case !m.updated.IsZero():
		b.WriteString(StyleDim.Render("Updated " + m.updated.Format("15:04:05") + " · next in " + m.interval.String()))
	}
	b.WriteString("\n")
	return b.String()
}
