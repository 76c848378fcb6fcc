// Package audit appends one line per dispatcher event to a fixed log file.
//
// The log is the only state that survives an invocation. Writes are
// open-append-close per line so concurrent invocations interleave safely on
// the filesystem's atomic append guarantee; no locking is performed. A log
// that cannot be opened is skipped silently: audit unavailability must not
// deny an otherwise authorized action.
package audit

import (
	"fmt"
	"os"
	"time"
)

// Record carries the fixed set of fields every audit line is built from.
// Call sites fill fields instead of formatting free-form strings so the
// shape of the trail is checked at compile time.
type Record struct {
	Time     time.Time // zero means "now"
	UID      int       // caller's real uid
	EUID     int       // caller's effective uid
	GID      int       // caller's real gid
	Command  string
	Argument string // empty means no argument was given
	Outcome  string // short outcome message, e.g. "invoked", "invalid download URL"
}

func (r Record) line() string {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	arg := r.Argument
	if arg == "" {
		arg = "(none)"
	}
	return fmt.Sprintf("%s: uid=%d euid=%d gid=%d cmd=%s arg=%s: %s\n",
		ts.Format(time.RFC3339), r.UID, r.EUID, r.GID, r.Command, arg, r.Outcome)
}

// Logger writes records to a single append-only file.
type Logger struct {
	path string
}

// New returns a logger for the given log path. The file is not opened here;
// each Log call opens and closes it.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Log appends one line for the record. Failures to open or write are
// swallowed: the caller proceeds whether or not the line landed.
func (l *Logger) Log(r Record) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	_, _ = f.WriteString(r.line())
	_ = f.Close()
}
