package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/pkg/cache"
	"github.com/myastroboard/astroboard/pkg/resources"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the server caches and manage the local response cache",
	}

	cmd.AddCommand(c.cacheStatusCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheStatusCommand creates the "cache status" subcommand.
func (c *CLI) cacheStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which server-side report caches are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _, err := view[resources.CacheStatus](cmd.Context(), c, resources.CacheState, true)
			if err != nil {
				return err
			}
			return c.render(status, func(w io.Writer) {
				printTitle(w, resources.CacheState.Label)
				pending := status.Pending()
				if status.Ready || len(pending) == 0 {
					printSuccess(w, "All report caches are ready")
					return
				}
				printWarning(w, "Still computing: %s", strings.Join(pending, ", "))
			})
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all locally cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := c.openCache(cmd.Context())
			defer ch.Close()
			if err := ch.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess(c.out, "Cleared the %s cache", c.cfg.Cache.Backend)
			if loc := c.cacheLocation(); loc != "" {
				printDetail(c.out, "Location: %s", loc)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where responses are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := c.cacheLocation()
			if loc == "" {
				return fmt.Errorf("the %s cache backend has no location", c.cfg.Cache.Backend)
			}
			fmt.Fprintln(c.out, loc)
			return nil
		},
	}
}

// cacheLocation returns the directory or address of the configured backend.
func (c *CLI) cacheLocation() string {
	switch c.cfg.Cache.Backend {
	case cache.BackendFile, "":
		if c.cfg.Cache.Dir != "" {
			return c.cfg.Cache.Dir
		}
		dir, err := cache.DefaultDir()
		if err != nil {
			return ""
		}
		return dir
	case cache.BackendRedis:
		return "redis://" + c.cfg.Cache.RedisAddr
	case cache.BackendMongo:
		return c.cfg.Cache.MongoURI
	}
	return ""
}
