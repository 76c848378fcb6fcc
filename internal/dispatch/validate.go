package dispatch

import "strings"

const (
	maxURLLen     = 2048
	maxPIDFileLen = 4096
)

// pidfilePrefixes are matched literally. No canonicalization is performed,
// so `..` segments under an allowed prefix pass the grammar; the trust
// assumption is that callers cannot plant symlinks or traversals inside
// these directories. Flagged, not fixed.
var pidfilePrefixes = []string{"/var/run/", "/var/tmp/", "/tmp/"}

// validateArgument applies the command-specific grammar. An absent argument
// is always valid; both scripts have argumentless defaults.
func validateArgument(cmd Command, arg string) error {
	if arg == "" {
		return nil
	}
	// os.Args can never carry NUL, but the grammar excludes it regardless of
	// how the request was built.
	if strings.IndexByte(arg, 0) >= 0 {
		return &ArgumentError{Command: cmd, Reason: "argument contains NUL"}
	}
	switch cmd {
	case CommandAutodeploy:
		return validateDownloadURL(arg)
	case CommandMemwatch:
		return validatePIDFilePath(arg)
	}
	return ErrUnknownCommand
}

// validateDownloadURL accepts http:// and https:// by exact prefix only.
// No further URL parsing: the value is handed to the script verbatim in
// DOWNLOAD_URL and never interpolated into a command line.
func validateDownloadURL(u string) error {
	if len(u) > maxURLLen {
		return &ArgumentError{Command: CommandAutodeploy, Reason: "invalid download URL"}
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return nil
	}
	return &ArgumentError{Command: CommandAutodeploy, Reason: "invalid download URL"}
}

// validatePIDFilePath accepts absolute paths under the runtime and temp
// directories by literal prefix.
func validatePIDFilePath(p string) error {
	if len(p) > maxPIDFileLen || !strings.HasPrefix(p, "/") {
		return &ArgumentError{Command: CommandMemwatch, Reason: "invalid pid file path"}
	}
	for _, prefix := range pidfilePrefixes {
		if strings.HasPrefix(p, prefix) {
			return nil
		}
	}
	return &ArgumentError{Command: CommandMemwatch, Reason: "invalid pid file path"}
}
