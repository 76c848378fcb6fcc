package dispatch

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"

	"panelwrap/config"
)

// Filesystem and account seams, overridden in tests.
var (
	accessPath = func(path string) error {
		return unix.Access(path, unix.X_OK)
	}
	statOwner = func(path string) (uint32, error) {
		var st unix.Stat_t
		if err := unix.Stat(path, &st); err != nil {
			return 0, err
		}
		return st.Uid, nil
	}
	lookupAccount = user.Lookup
)

// CheckScript verifies provenance of the target script for cmd: the current
// identity can execute it, and it is owned by root or the service account.
// The account is resolved in the system account database on every call so an
// administrator change takes effect immediately.
func CheckScript(cfg config.Config, cmd Command) error {
	script, ok := cfg.Scripts[string(cmd)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return checkScript(script, cfg.ServiceAccount)
}

func checkScript(path, serviceAccount string) error {
	if err := accessPath(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrScriptNotExecutable, path, err)
	}

	owner, err := statOwner(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrScriptOwnership, path, err)
	}
	if owner == 0 {
		return nil
	}
	if acct, err := lookupAccount(serviceAccount); err == nil {
		if uid, err := strconv.ParseUint(acct.Uid, 10, 32); err == nil && uint32(uid) == owner {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not owned by root or %s", ErrScriptOwnership, path, serviceAccount)
}
