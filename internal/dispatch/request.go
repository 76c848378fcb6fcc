package dispatch

import "os"

// Command names one of the dispatchable administrative actions. The set is
// closed; configuration can repoint script paths but never add commands.
type Command string

const (
	CommandAutodeploy Command = "autodeploy"
	CommandMemwatch   Command = "memwatch"
)

// Request is one caller invocation, immutable once built.
type Request struct {
	Command  Command
	Argument string // empty means no argument was given
	UID      int    // real uid
	EUID     int    // effective uid
	GID      int    // real gid
}

// Identity seams, overridden in tests.
var (
	getuid  = os.Getuid
	geteuid = os.Geteuid
	getgid  = os.Getgid
)

// NewRequest captures the caller's identity alongside the command and its
// optional argument.
func NewRequest(cmd Command, arg string) Request {
	return Request{
		Command:  cmd,
		Argument: arg,
		UID:      getuid(),
		EUID:     geteuid(),
		GID:      getgid(),
	}
}
