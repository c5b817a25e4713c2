package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/pkg/buildinfo"
	"github.com/myastroboard/astroboard/pkg/resources"
)

type versionView struct {
	buildinfo.Info `yaml:",inline"`
	Server         string `json:"server,omitempty" yaml:"server,omitempty"`
}

// versionCommand creates the "version" command.
func (c *CLI) versionCommand() *cobra.Command {
	var server bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := versionView{Info: buildinfo.Get()}
			if server {
				info, _, err := view[resources.Version](cmd.Context(), c, resources.VersionInfo, false)
				if err != nil {
					return err
				}
				v.Server = info.Version
			}
			return c.render(v, func(w io.Writer) {
				fmt.Fprintln(w, buildinfo.String())
				if v.Server != "" {
					fmt.Fprintf(w, "server: %s (%s)\n", v.Server, c.cfg.URL)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "also query the dashboard's version")
	return cmd
}
