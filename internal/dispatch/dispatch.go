// Package dispatch validates one administrative command and replaces the
// process image with its target script.
//
// The pipeline is linear with no backtracking: parse command, validate the
// optional argument, check script provenance, build the replacement
// environment, log, transfer. Any failure is terminal. Every invocation,
// accepted or rejected, leaves an audit line before the decision it
// documents takes effect.
package dispatch

import (
	"fmt"

	"panelwrap/config"
	"panelwrap/internal/audit"
	"panelwrap/internal/check"
)

// Dispatcher runs the dispatch pipeline against an immutable configuration.
type Dispatcher struct {
	cfg config.Config
	log *audit.Logger
}

// New returns a dispatcher writing its audit trail through log.
func New(cfg config.Config, log *audit.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, log: log}
}

// Run dispatches the request. On success it does not return: the process is
// running the target script by the time exec completes. Every returned error
// is terminal and maps to a distinct exit code via ExitCode.
func (d *Dispatcher) Run(req Request) error {
	rec := func(outcome string) audit.Record {
		return audit.Record{
			UID:      req.UID,
			EUID:     req.EUID,
			GID:      req.GID,
			Command:  string(req.Command),
			Argument: req.Argument,
			Outcome:  outcome,
		}
	}
	d.log.Log(rec("invoked"))

	script, ok := d.cfg.Scripts[string(req.Command)]
	if !ok {
		d.log.Log(rec("unknown command"))
		return fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command)
	}

	if err := validateArgument(req.Command, req.Argument); err != nil {
		d.log.Log(rec(err.Error()))
		return err
	}

	if err := checkScript(script, d.cfg.ServiceAccount); err != nil {
		d.log.Log(rec(err.Error()))
		return err
	}

	env := buildEnviron(req.Command, req.Argument)
	check.Invariant(env.Len() <= 3, "sanitized environment exceeds three entries")

	// Checked again at the boundary. The window between this check and the
	// exec itself stays open; closing it would require executing by held
	// descriptor, which is deliberately not done here.
	if err := checkScript(script, d.cfg.ServiceAccount); err != nil {
		d.log.Log(rec(err.Error()))
		return err
	}

	d.log.Log(rec("executing " + script))
	if err := transferTo(script, env); err != nil {
		d.log.Log(rec(err.Error()))
		return err
	}
	return nil // unreachable when exec succeeded
}
