// Package buildinfo carries version metadata stamped at build time.
package buildinfo

// Version is overridden via
// -ldflags "-X panelwrap/internal/support/buildinfo.Version=v1.2.3".
var Version = "dev"
