// panelwrap is a privileged dispatcher for the panel maintenance scripts.
//
// It is meant to be installed setuid (or called through sudo) so that the
// panel web process can trigger exactly two administrative actions without
// holding general elevated access. Each invocation validates its input,
// verifies the target script's provenance, and replaces the process image
// with the script under a sanitized environment. Success therefore never
// returns an exit status; every failure exits with a code specific to its
// kind.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"panelwrap/config"
	"panelwrap/internal/audit"
	"panelwrap/internal/dispatch"
	"panelwrap/internal/logging"
	"panelwrap/internal/support/buildinfo"
)

func main() {
	logging.Configure(false)

	cfg := config.Load()
	log := audit.New(cfg.AuditLog)

	root := newRoot(cfg, log)
	if err := root.Execute(); err != nil {
		code := dispatch.ExitCode(err)
		if code == dispatch.ExitUsage {
			// Usage failures are rejected by the CLI layer before the
			// dispatcher runs, so their audit line is written here.
			logUsageFailure(log, err)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(code)
	}
}

func newRoot(cfg config.Config, log *audit.Logger) *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "panelwrap",
		Short:         "Privileged dispatcher for panel maintenance scripts",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Configure(debug)
		},
		// A bare invocation is a usage error, not a help request: the
		// caller on the other side of the trust boundary is a program.
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New("missing command")
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(autodeployCmd(cfg, log))
	root.AddCommand(memwatchCmd(cfg, log))
	root.AddCommand(doctorCmd(cfg))
	return root
}

func autodeployCmd(cfg config.Config, log *audit.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "autodeploy [url]",
		Short: "Hand the process over to the autodeploy script",
		Long: "Validates the optional download URL, then replaces this process with " +
			cfg.Scripts[config.CommandAutodeploy] + ". The URL is passed to the script as DOWNLOAD_URL.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchOne(cfg, log, dispatch.CommandAutodeploy, args)
		},
	}
}

func memwatchCmd(cfg config.Config, log *audit.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "memwatch [pidfile]",
		Short: "Hand the process over to the memwatch script",
		Long: "Validates the optional pid file path, then replaces this process with " +
			cfg.Scripts[config.CommandMemwatch] + ". The path is passed to the script as ET_PID_FILE.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchOne(cfg, log, dispatch.CommandMemwatch, args)
		},
	}
}

// dispatchOne runs the full pipeline. It returns only on failure; on
// success the process image has been replaced.
func dispatchOne(cfg config.Config, log *audit.Logger, cmd dispatch.Command, args []string) error {
	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}
	return dispatch.New(cfg, log).Run(dispatch.NewRequest(cmd, arg))
}

// logUsageFailure records rejected invocations that never reached the
// dispatcher, keeping the "every invocation leaves a trace" property intact
// for unknown commands and malformed flags.
func logUsageFailure(log *audit.Logger, err error) {
	log.Log(audit.Record{
		UID:     os.Getuid(),
		EUID:    os.Geteuid(),
		GID:     os.Getgid(),
		Command: firstPositionalArg(os.Args[1:]),
		Outcome: "rejected: " + err.Error(),
	})
}

func firstPositionalArg(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return "(none)"
}
