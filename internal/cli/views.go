package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
	"github.com/myastroboard/astroboard/pkg/ui"
)

// resourceFetcher adapts a Store read of one resource to ui.Fetcher and
// keeps the entry so views can show its freshness.
type resourceFetcher struct {
	store   *resources.Store
	r       resources.Resource
	refresh bool
	entry   *resources.Entry
}

func (f *resourceFetcher) FetchJSONWithRetry(ctx context.Context, path string, req fetch.Request, policy fetch.RetryPolicy) (*fetch.Payload, error) {
	e, err := f.store.GetWithPolicy(ctx, f.r, f.refresh, policy)
	if err != nil {
		return nil, err
	}
	f.entry = e
	return e.Payload, nil
}

// view reads r behind a panel and decodes the success payload into T.
// Any other outcome has been shown by the panel and yields ErrReported.
func view[T any](ctx context.Context, c *CLI, r resources.Resource, refresh bool) (T, *resources.Entry, error) {
	var zero T
	store, closeStore, err := c.newStore(ctx)
	if err != nil {
		return zero, nil, err
	}
	defer closeStore()

	f := &resourceFetcher{store: store, r: r, refresh: refresh}
	p := ui.FetchJSONWithUI(ctx, f, r.Path, c.newPanel(ctx, r.Label), "Loading "+strings.ToLower(r.Label)+"...", c.policyFor(r))
	if p == nil {
		return zero, nil, ErrReported
	}
	v, err := fetch.Decode[T](p)
	return v, f.entry, err
}

// render writes v as JSON or YAML, or calls text for the text format.
func (c *CLI) render(v any, text func(io.Writer)) error {
	format := c.outputFormat(outputText)
	if format == outputText {
		text(c.out)
		return nil
	}
	return writeValue(c.out, format, v)
}

func printFreshness(w io.Writer, e *resources.Entry) {
	if e == nil {
		return
	}
	age := e.Age(time.Now()).Round(time.Second)
	fmt.Fprintln(w, "  "+freshness(e.Cached, age.String()+" old"))
}

// moonCommand creates the "moon" command.
func (c *CLI) moonCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "moon",
		Short: "Show the moon report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, entry, err := view[resources.MoonReportData](cmd.Context(), c, resources.MoonReport, refresh)
			if err != nil {
				return err
			}
			return c.render(report, func(w io.Writer) {
				m := report.Moon
				printTitle(w, "Moon · "+report.Location.Name)
				printKeyValue(w, "Phase", m.PhaseName)
				printKeyValue(w, "Illumination", fmt.Sprintf("%.1f%%", m.IlluminationPercent))
				printKeyValue(w, "Altitude", fmt.Sprintf("%.1f°", m.AltitudeDeg))
				printKeyValue(w, "Moonrise", m.NextMoonrise)
				printKeyValue(w, "Moonset", m.NextMoonset)
				printKeyValue(w, "Next full moon", m.NextFullMoon)
				printKeyValue(w, "Next new moon", m.NextNewMoon)
				printKeyValue(w, "Dark night", span(m.NextDarkNightStart, m.NextDarkNightEnd))
				printFreshness(w, entry)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached copy")
	return cmd
}

// sunCommand creates the "sun" command.
func (c *CLI) sunCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "sun",
		Short: "Show today's sun and twilight times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			times, entry, err := view[map[string]any](cmd.Context(), c, resources.SunToday, refresh)
			if err != nil {
				return err
			}
			return c.render(times, func(w io.Writer) {
				printTitle(w, "Sun today")
				printFields(w, times)
				printFreshness(w, entry)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached copy")
	return cmd
}

// tonightCommand creates the "tonight" command.
func (c *CLI) tonightCommand() *cobra.Command {
	var (
		mode    string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "tonight",
		Short: "Show tonight's best observing window",
		Long: `Show tonight's best observing window.

Modes:
  strict        moon below the horizon for the whole window
  practical     moon low enough not to spoil most targets
  illumination  moon illumination under the configured threshold`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resources.BestWindow(mode)
			if err != nil {
				return err
			}
			data, entry, err := view[resources.BestWindowData](cmd.Context(), c, r, refresh)
			if err != nil {
				return err
			}
			return c.render(data, func(w io.Writer) {
				bw := data.BestWindow
				printTitle(w, "Tonight · "+mode+" mode")
				printKeyValue(w, "Window", span(bw.Start, bw.End))
				printKeyValue(w, "Duration", fmt.Sprintf("%.1f h", bw.DurationHours))
				printKeyValue(w, "Moon", bw.MoonCondition)
				printKeyValue(w, "Score", fmt.Sprintf("%.0f", bw.Score))
				printFreshness(w, entry)
			})
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "strict", "window mode: strict, practical or illumination")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached copy")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"strict", "practical", "illumination"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// weatherCommand creates the "weather" command.
func (c *CLI) weatherCommand() *cobra.Command {
	var (
		analysis bool
		refresh  bool
	)
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show current observing conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := resources.AstroCurrent
			if analysis {
				r = resources.AstroWeather
			}
			fields, entry, err := view[map[string]any](cmd.Context(), c, r, refresh)
			if err != nil {
				return err
			}
			return c.render(fields, func(w io.Writer) {
				printTitle(w, r.Label)
				printFields(w, fields)
				printFreshness(w, entry)
			})
		},
	}
	cmd.Flags().BoolVar(&analysis, "analysis", false, "show the astro weather analysis instead")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached copy")
	return cmd
}

// catalogueCommand creates the "catalogue" command.
func (c *CLI) catalogueCommand() *cobra.Command {
	var (
		showLog bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "catalogue [name]",
		Short: "List target catalogues or show tonight's targets in one",
		Long: `List target catalogues or show tonight's targets in one.

Without a name the available catalogues are listed. Reports are computed
once per night and cached for 12 hours; Astrodex flags in a cached report
may lag behind recent edits until --refresh.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.listCatalogues(cmd.Context(), refresh)
			}
			if showLog {
				return c.showCatalogueLog(cmd.Context(), args[0])
			}
			return c.showCatalogueReport(cmd.Context(), args[0], refresh)
		},
	}
	cmd.Flags().BoolVar(&showLog, "log", false, "show the report computation log instead")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached copy")
	return cmd
}

func (c *CLI) listCatalogues(ctx context.Context, refresh bool) error {
	list, entry, err := view[resources.CatalogueList](ctx, c, resources.Catalogues, refresh)
	if err != nil {
		return err
	}
	return c.render(list, func(w io.Writer) {
		printTitle(w, "Target catalogues")
		for _, name := range list.Catalogues {
			fmt.Fprintln(w, "  "+name)
		}
		printFreshness(w, entry)
	})
}

func (c *CLI) showCatalogueReport(ctx context.Context, name string, refresh bool) error {
	r, err := resources.CatalogueReport(name)
	if err != nil {
		return err
	}
	data, entry, err := view[resources.CatalogueReportData](ctx, c, r, refresh)
	if err != nil {
		return err
	}
	return c.render(data, func(w io.Writer) {
		printTitle(w, r.Label+" · "+strconv.Itoa(len(data.Report))+" objects")
		if len(data.Report) > 0 {
			fmt.Fprintln(w, catalogueTable(data.Report))
		}
		if names := bodyNames(data.Bodies); names != "" {
			printKeyValue(w, "Bodies", names)
		}
		if names := bodyNames(data.Comets); names != "" {
			printKeyValue(w, "Comets", names)
		}
		printFreshness(w, entry)
	})
}

func (c *CLI) showCatalogueLog(ctx context.Context, name string) error {
	r, err := resources.CatalogueLog(name)
	if err != nil {
		return err
	}
	lg, _, err := view[resources.CatalogueLogData](ctx, c, r, true)
	if err != nil {
		return err
	}
	return c.render(lg, func(w io.Writer) {
		printTitle(w, r.Label)
		fmt.Fprint(w, lg.LogContent)
	})
}

func catalogueTable(targets []resources.CatalogueTarget) string {
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		seen := ""
		if t.InAstrodex {
			seen = "✓"
		}
		rows = append(rows, []string{t.ID, t.Name, t.Type, fmt.Sprintf("%.1f", t.Mag), fmt.Sprintf("%.2f", t.Foto), seen})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Type", "Mag", "Foto", "Astrodex").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 5:
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func bodyNames(bodies []resources.CatalogueBody) string {
	names := make([]string, 0, len(bodies))
	for _, b := range bodies {
		names = append(names, b.TargetName)
	}
	return strings.Join(names, ", ")
}

// printFields prints the scalar fields of m sorted by key.
func printFields(w io.Writer, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any, []any:
			continue
		case nil:
			printKeyValue(w, label(k), "")
		default:
			printKeyValue(w, label(k), fmt.Sprint(v))
		}
	}
}

// label turns "astronomical_twilight_end" into "Astronomical twilight end".
func label(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func span(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return start + " → " + end
}
