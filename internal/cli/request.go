package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
	"github.com/myastroboard/astroboard/pkg/ui"
)

type getOpts struct {
	retryPending bool
	attempts     int
	refresh      bool
}

// getCommand creates the "get" command.
func (c *CLI) getCommand() *cobra.Command {
	var opts getOpts
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Fetch an API path and print the JSON response",
		Long: `Fetch an API path and print the JSON response.

Known dashboard resources are read through the local cache and use the
warm-up retry policy, so a server that is still computing its reports is
polled until the data is ready. Other paths are fetched once.`,
		Example: `  astroboard get /api/moon/dark-window
  astroboard get /api/tonight/best-window?mode=practical -o yaml
  astroboard get /api/weather/forecast --attempts 5`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var paths []string
			for _, r := range resources.Catalogue() {
				paths = append(paths, r.Path+"\t"+r.Label)
			}
			return paths, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGet(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.retryPending, "retry-pending", false, "retry while the server answers {\"status\":\"pending\"}")
	cmd.Flags().IntVar(&opts.attempts, "attempts", 0, "maximum attempts (default from config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore the cached copy")
	return cmd
}

func (c *CLI) runGet(ctx context.Context, path string, opts getOpts) error {
	if err := errors.ValidateAPIPath(path); err != nil {
		return err
	}
	store, closeStore, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	policy := c.plainPolicy()
	if r, ok := resources.ForPath(path); ok {
		policy = c.policyFor(r)
		if opts.refresh {
			if err := store.Invalidate(ctx, r); err != nil {
				c.Logger.Warn("could not drop cached copy", "resource", r.Name, "err", err)
			}
		}
	}
	if opts.retryPending {
		policy.ShouldRetryData = fetch.RetryPending
	}
	if opts.attempts > 0 {
		policy.MaxAttempts = opts.attempts
	}

	p := ui.FetchJSONWithUI(ctx, store, path, c.newPanel(ctx, path), "Loading "+path+"...", policy)
	if p == nil {
		return ErrReported
	}
	return writePayload(c.out, c.outputFormat(outputJSON), p)
}

// sendCommand creates the "post", "put" and "delete" commands.
func (c *CLI) sendCommand(verb string) *cobra.Command {
	method := strings.ToUpper(verb)
	var data string
	cmd := &cobra.Command{
		Use:   verb + " <path>",
		Short: fmt.Sprintf("Send a %s request and print the JSON response", method),
		Long: fmt.Sprintf(`Send a %s request and print the JSON response.

Writes are sent once, never retried. Cached resources the write affects
are dropped from the local cache after the server answers.`, method),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSend(cmd.Context(), method, args[0], data)
		},
	}
	if verb != "delete" {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body; @file reads a file, - reads stdin")
	}
	return cmd
}

// readBody resolves --data into JSON bytes, or nil when empty.
func (c *CLI) readBody(data string) (json.RawMessage, error) {
	var raw []byte
	var err error
	switch {
	case data == "":
		return nil, nil
	case data == "-":
		raw, err = io.ReadAll(c.in)
	case strings.HasPrefix(data, "@"):
		raw, err = os.ReadFile(data[1:])
	default:
		raw = []byte(data)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if !json.Valid(raw) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request body is not valid JSON")
	}
	return raw, nil
}

func (c *CLI) runSend(ctx context.Context, method, path, data string) error {
	if err := errors.ValidateAPIPath(path); err != nil {
		return err
	}
	raw, err := c.readBody(data)
	if err != nil {
		return err
	}
	var body any
	if raw != nil {
		body = raw
	}

	store, closeStore, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	pn := c.newPanel(ctx, method+" "+path)
	pn.Loading("Sending...")
	p, err := store.Mutate(ctx, method, path, body, resources.Affected(path)...)
	switch {
	case err != nil:
		pn.Error(ui.ErrorMessage(err))
		return ErrReported
	case p.IsError():
		pn.Error(p.ErrorText())
		return ErrReported
	}
	pn.Clear()
	return writePayload(c.out, c.outputFormat(outputJSON), p)
}
