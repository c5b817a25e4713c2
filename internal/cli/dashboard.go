package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
	"github.com/myastroboard/astroboard/pkg/ui"
)

// dashboardConcurrency bounds parallel requests during a refresh.
const dashboardConcurrency = 4

// tile is the state of one dashboard resource after a refresh.
type tile struct {
	Resource resources.Resource
	Entry    *resources.Entry
	Err      error
}

// tileState classifies t the way a UI container would.
func (t tile) state() ui.State {
	switch {
	case t.Err != nil, t.Entry == nil, t.Entry.Payload.IsError():
		return ui.StateError
	case t.Entry.Payload.IsPending():
		return ui.StateNotice
	}
	return ui.StateCleared
}

// tileView is the JSON/YAML form of a tile.
type tileView struct {
	Name      string `json:"name" yaml:"name"`
	State     string `json:"state" yaml:"state"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
	Cached    bool   `json:"cached" yaml:"cached"`
	FetchedAt string `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	Data      any    `json:"data,omitempty" yaml:"data,omitempty"`
}

func (t tile) view() tileView {
	v := tileView{Name: t.Resource.Name}
	switch t.state() {
	case ui.StateError:
		v.State = "error"
		v.Message = tileError(t)
	case ui.StateNotice:
		v.State = "pending"
		v.Message = ui.PendingMessage(t.Entry.Payload)
	default:
		v.State = "ready"
		v.Data, _ = t.Entry.Payload.Value()
	}
	if t.Entry != nil {
		v.Cached = t.Entry.Cached
		v.FetchedAt = t.Entry.FetchedAt.Format(time.RFC3339)
	}
	return v
}

func tileError(t tile) string {
	if t.Err != nil {
		return ui.ErrorMessage(t.Err)
	}
	if t.Entry != nil {
		return t.Entry.Payload.ErrorText()
	}
	return "no data"
}

// refreshDashboard reads every dashboard resource concurrently. One
// resource failing does not stop the others.
func (c *CLI) refreshDashboard(ctx context.Context, store *resources.Store, refresh bool) []tile {
	rs := resources.Dashboard()
	tiles := make([]tile, len(rs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardConcurrency)
	for i, r := range rs {
		g.Go(func() error {
			e, err := store.GetWithPolicy(gctx, r, refresh, c.policyFor(r))
			tiles[i] = tile{Resource: r, Entry: e, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return tiles
}

// dashboardCommand creates the "dashboard" command.
func (c *CLI) dashboardCommand() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
		refresh  bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show every dashboard report at once",
		Long: `Show every dashboard report at once.

Reports are fetched concurrently through the local cache. With --watch the
dashboard stays open and refreshes on an interval; press r to refresh now
and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if watch {
				return c.watchDashboard(ctx, store, interval)
			}

			pn := c.newPanel(ctx, "Dashboard")
			pn.Loading("Refreshing dashboard...")
			prog := newProgress(c.Logger)
			tiles := c.refreshDashboard(ctx, store, refresh)
			pn.Clear()
			prog.done("Refreshed dashboard", "resources", len(tiles))

			if f := c.outputFormat(outputText); f != outputText {
				views := make([]tileView, len(tiles))
				for i, t := range tiles {
					views[i] = t.view()
				}
				return writeValue(c.out, f, views)
			}
			fmt.Fprintln(c.out, renderTiles(tiles, time.Now()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing in a full-screen view")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "refresh interval for --watch")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached copies")
	return cmd
}

// renderTiles renders tiles as a table.
func renderTiles(tiles []tile, now time.Time) string {
	rows := make([][]string, 0, len(tiles))
	for _, t := range tiles {
		var state, age string
		switch t.state() {
		case ui.StateError:
			state = styleIconError.Render(iconError)
		case ui.StateNotice:
			state = styleIconWarning.Render(iconPending)
		default:
			state = styleIconSuccess.Render(iconSuccess)
		}
		if t.Entry != nil {
			age = freshness(t.Entry.Cached, t.Entry.Age(now).Round(time.Second).String())
		}
		rows = append(rows, []string{state, t.Resource.Label, summarize(t), age})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Report", "Summary", "Age").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// summarize reduces a tile to one line.
func summarize(t tile) string {
	switch t.state() {
	case ui.StateError:
		return StyleError.Render(tileError(t))
	case ui.StateNotice:
		return StyleWarning.Render(ui.PendingMessage(t.Entry.Payload))
	}
	p := t.Entry.Payload
	switch t.Resource.Name {
	case resources.MoonReport.Name:
		if v, err := fetch.Decode[resources.MoonReportData](p); err == nil {
			return fmt.Sprintf("%s, %.0f%% lit", v.Moon.PhaseName, v.Moon.IlluminationPercent)
		}
	case resources.DarkWindow.Name:
		if v, err := fetch.Decode[resources.DarkWindowData](p); err == nil {
			return span(v.NextDarkNight.Start, v.NextDarkNight.End)
		}
	case resources.MoonPlanner.Name:
		if v, err := fetch.Decode[resources.MoonPlannerData](p); err == nil && len(v.Nights) > 0 {
			best := v.Nights[0]
			for _, n := range v.Nights[1:] {
				if n.AstrophotoScore > best.AstrophotoScore {
					best = n
				}
			}
			return fmt.Sprintf("best night %s (score %.0f)", best.Date, best.AstrophotoScore)
		}
	case resources.SunToday.Name:
		if v, err := fetch.Decode[map[string]any](p); err == nil {
			return fmt.Sprintf("sunset %v", v["sunset"])
		}
	case resources.AstroCurrent.Name:
		if v, err := fetch.Decode[map[string]any](p); err == nil {
			return fmt.Sprintf("%v, clouds %v%%", v["conditions"], v["cloud_cover"])
		}
	default:
		if v, err := fetch.Decode[resources.BestWindowData](p); err == nil && v.BestWindow.Start != "" {
			return fmt.Sprintf("%s (%.1f h)", span(v.BestWindow.Start, v.BestWindow.End), v.BestWindow.DurationHours)
		}
	}
	return StyleDim.Render("ready")
}

// watchDashboard runs the full-screen dashboard until the user quits.
func (c *CLI) watchDashboard(ctx context.Context, store *resources.Store, interval time.Duration) error {
	m := newDashboardModel(func(refresh bool) []tile {
		return c.refreshDashboard(ctx, store, refresh)
	}, interval)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithInput(c.in), tea.WithOutput(c.out))
	_, err := prog.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
