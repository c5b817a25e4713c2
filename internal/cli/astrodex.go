package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
	"github.com/myastroboard/astroboard/pkg/ui"
)

// astrodexCommand creates the "astrodex" command group.
func (c *CLI) astrodexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "astrodex",
		Short: "List and edit your Astrodex collection",
	}
	cmd.AddCommand(c.astrodexListCommand())
	cmd.AddCommand(c.astrodexAddCommand())
	cmd.AddCommand(c.astrodexRemoveCommand())
	return cmd
}

func (c *CLI) astrodexListCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the objects in your Astrodex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, entry, err := view[resources.AstrodexData](cmd.Context(), c, resources.Astrodex, refresh)
			if err != nil {
				return err
			}
			return c.render(data, func(w io.Writer) {
				printTitle(w, "Astrodex · "+strconv.Itoa(len(data.Items))+" objects")
				if len(data.Items) > 0 {
					fmt.Fprintln(w, astrodexTable(data.Items))
				}
				printFreshness(w, entry)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached copy")
	return cmd
}

func astrodexTable(items []resources.AstrodexItem) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Name, it.Type, it.Constellation, it.Notes, it.ID})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Type", "Constellation", "Notes", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1: // header
				return headerStyle
			case col == 4:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func (c *CLI) astrodexAddCommand() *cobra.Command {
	var item resources.AstrodexItem
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an object to your Astrodex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item.Name = args[0]
			ctx := cmd.Context()
			store, closeStore, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			return c.reportMutation(c.newPanel(ctx, "Astrodex"), "Adding "+item.Name+"...", func() (*fetch.Payload, error) {
				return store.AddAstrodexItem(ctx, item)
			}, "Added %s", item.Name)
		},
	}
	cmd.Flags().StringVar(&item.Type, "type", "", "object type, e.g. galaxy")
	cmd.Flags().StringVar(&item.Constellation, "constellation", "", "constellation")
	cmd.Flags().StringVar(&item.Notes, "notes", "", "free-form notes")
	return cmd
}

func (c *CLI) astrodexRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an object from your Astrodex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			return c.reportMutation(c.newPanel(ctx, "Astrodex"), "Removing...", func() (*fetch.Payload, error) {
				return store.DeleteAstrodexItem(ctx, args[0])
			}, "Removed %s", args[0])
		},
	}
}

// reportMutation runs write behind pn and prints a success line.
func (c *CLI) reportMutation(pn *panel, loading string, write func() (*fetch.Payload, error), format string, args ...any) error {
	pn.Loading(loading)
	p, err := write()
	switch {
	case err != nil:
		pn.Error(ui.ErrorMessage(err))
		return ErrReported
	case p.IsError():
		pn.Error(p.ErrorText())
		return ErrReported
	}
	pn.Clear()
	if f := c.outputFormat(outputText); f != outputText {
		return writePayload(c.out, f, p)
	}
	printSuccess(c.out, format, args...)
	return nil
}
