//go:build debug

// Package check holds invariants that only fire in debug builds. A setuid
// release binary must never panic with internal state in the message, so the
// release half compiles these away.
package check

// Invariant panics if cond is false. Only active in debug builds.
func Invariant(cond bool, msg string) {
	if !cond {
		panic("invariant violated: " + msg)
	}
}
