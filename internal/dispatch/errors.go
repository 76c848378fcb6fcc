package dispatch

import "errors"

// Exit codes, one per failure kind. Success never exits: the process image
// is replaced by the target script.
const (
	ExitUsage               = 2
	ExitInvalidArgument     = 3
	ExitScriptNotExecutable = 4
	ExitScriptOwnership     = 5
	ExitTransferFailed      = 6
	ExitEnvironFailed       = 10
)

var (
	// ErrUnknownCommand indicates the requested command is not in the
	// dispatch table.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrScriptNotExecutable indicates the current identity lacks execute
	// permission on the target script.
	ErrScriptNotExecutable = errors.New("script not executable")
	// ErrScriptOwnership indicates the target script is owned by neither
	// root nor the service account.
	ErrScriptOwnership = errors.New("script ownership invalid")
)

// ArgumentError indicates the optional argument violated its command's
// grammar.
type ArgumentError struct {
	Command Command
	Reason  string
}

func (e *ArgumentError) Error() string { return e.Reason }

// EnvironError indicates the replacement environment could not be converted
// for exec.
type EnvironError struct {
	Key string
}

func (e *EnvironError) Error() string { return "cannot build environment entry " + e.Key }

// TransferError indicates exec itself failed; the process is still running
// the dispatcher.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string { return "execve " + e.Path + " failed: " + e.Err.Error() }

func (e *TransferError) Unwrap() error { return e.Err }

// ExitCode maps a dispatch error to the process exit status. Errors that
// did not come from the dispatcher (flag parsing, unknown subcommands) are
// usage errors.
func ExitCode(err error) int {
	var argErr *ArgumentError
	var envErr *EnvironError
	var xferErr *TransferError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &argErr):
		return ExitInvalidArgument
	case errors.Is(err, ErrScriptNotExecutable):
		return ExitScriptNotExecutable
	case errors.Is(err, ErrScriptOwnership):
		return ExitScriptOwnership
	case errors.As(err, &xferErr):
		return ExitTransferFailed
	case errors.As(err, &envErr):
		return ExitEnvironFailed
	default:
		return ExitUsage
	}
}
