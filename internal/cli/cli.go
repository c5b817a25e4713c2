// Package cli implements the astroboard command-line interface.
package cli

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/internal/config"
	"github.com/myastroboard/astroboard/pkg/buildinfo"
	"github.com/myastroboard/astroboard/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "astroboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrReported is returned by commands that have already shown their
// failure to the user. main exits non-zero without printing it again.
var ErrReported = errors.New("failure already reported")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out io.Writer // command results
	err io.Writer // progress panels and status lines
	in  io.Reader

	flags globalFlags
	cfg   config.Config
}

type globalFlags struct {
	configPath string
	url        string
	output     string
	noCache    bool
	timeout    time.Duration
}

// New creates a CLI writing results to out and logs and progress to errOut.
func New(out, errOut io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(errOut, level),
		out:    out,
		err:    errOut,
		in:     os.Stdin,
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetInput replaces stdin for prompts.
func (c *CLI) SetInput(r io.Reader) {
	c.in = r
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "astroboard talks to a MyAstroBoard dashboard from the terminal",
		Long: `astroboard is a terminal client for the MyAstroBoard astrophotography dashboard.

It reads the moon, sun, weather and observing-window reports the server
computes, retrying while the server's caches warm up, and keeps a local
response cache so repeated views are instant.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.resolveConfig(cmd) },
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)
	root.SetErr(c.err)

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/astroboard/config.toml)")
	pf.StringVarP(&c.flags.url, "url", "u", "", "dashboard URL (default "+config.DefaultURL+")")
	pf.StringVarP(&c.flags.output, "output", "o", "", "output format: text, json or yaml")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "bypass the local response cache")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "per-attempt request timeout")

	_ = root.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]string{outputText, outputJSON, outputYAML}, cobra.ShellCompDirectiveNoFileComp))

	root.AddCommand(c.getCommand())
	root.AddCommand(c.sendCommand("post"))
	root.AddCommand(c.sendCommand("put"))
	root.AddCommand(c.sendCommand("delete"))
	root.AddCommand(c.dashboardCommand())
	root.AddCommand(c.moonCommand())
	root.AddCommand(c.sunCommand())
	root.AddCommand(c.tonightCommand())
	root.AddCommand(c.weatherCommand())
	root.AddCommand(c.catalogueCommand())
	root.AddCommand(c.astrodexCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.stubServerCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// resolveConfig layers command-line flags over the file and environment.
func (c *CLI) resolveConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.URL = c.flags.url
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: c.flags.timeout}
	}
	if c.flags.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validateOutput(c.flags.output); err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("configuration", "url", cfg.URL, "cache", cfg.Cache.Backend, "timeout", cfg.Timeout.Duration)
	return nil
}

// outputFormat returns the --output value or def when unset.
func (c *CLI) outputFormat(def string) string {
	if c.flags.output == "" {
		return def
	}
	return c.flags.output
}
