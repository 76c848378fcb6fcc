package dispatch

import "golang.org/x/sys/unix"

// execve is replaced in tests; the real call never returns on success.
var execve = unix.Exec

// transferTo replaces the current process image with the script, invoked
// with only its own name and the sanitized environment. On success this
// function does not return: the process is now running the script. Any
// returned error is therefore a failure, and the caller must treat it as
// terminal; no retry makes sense after a failed exec.
func transferTo(path string, env Environ) error {
	envs, err := env.Slice()
	if err != nil {
		return err
	}
	if err := execve(path, []string{path}, envs); err != nil {
		return &TransferError{Path: path, Err: err}
	}
	return nil
}
