package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"panelwrap/config"
	"panelwrap/internal/dispatch"
)

// doctorCmd reports per-script provenance without dispatching anything: no
// environment is built, nothing is executed, nothing is written to the audit
// log. Exit status is 0 when every script passes, otherwise the first
// failing check's code.
func doctorCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check target script provenance without dispatching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var firstErr error
			for _, c := range []dispatch.Command{dispatch.CommandAutodeploy, dispatch.CommandMemwatch} {
				path := cfg.Scripts[string(c)]
				if err := dispatch.CheckScript(cfg, c); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s: %v\n", c, path, err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s: ok\n", c, path)
			}
			return firstErr
		},
	}
}
