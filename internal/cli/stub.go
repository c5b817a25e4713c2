package cli

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/internal/stubserver"
)

// stubServerCommand creates the "stub-server" command.
func (c *CLI) stubServerCommand() *cobra.Command {
	var (
		addr string
		cfg  stubserver.Config
	)
	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Run a local dashboard backend with canned data",
		Long: `Run a local dashboard backend with canned data.

The stub answers the report endpoints with a pending payload for the first
--warmup-calls requests, fails weather requests with 503 for the first
--flaky-calls requests, and accepts admin/admin and observer/observer.`,
		Example: `  astroboard stub-server --addr 127.0.0.1:5000 --warmup-calls 2
  astroboard --url http://127.0.0.1:5000 login -U admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger = c.Logger
			srv := stubserver.New(cfg)
			return srv.ListenAndServe(cmd.Context(), addr, func(a net.Addr) {
				c.Logger.Info("stub server listening", "addr", "http://"+a.String(),
					"warmup_calls", cfg.WarmupCalls, "flaky_calls", cfg.FlakyCalls)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "listen address")
	cmd.Flags().IntVar(&cfg.WarmupCalls, "warmup-calls", 3, "pending answers per report before data")
	cmd.Flags().IntVar(&cfg.FlakyCalls, "flaky-calls", 0, "503 answers per weather endpoint before data")
	cmd.Flags().DurationVar(&cfg.Latency, "latency", 0, "delay added to every response")
	return cmd
}
