// Package config holds the immutable dispatcher configuration.
//
// The configuration is built once in main and passed down; nothing in it is
// mutated after Load returns. Defaults are compiled in. An optional overlay
// is read from a fixed path — never from the environment, because the binary
// may run setuid and every inherited variable is attacker-controlled — and is
// honored only when the file itself passes the same kind of trust check the
// dispatcher applies to its target scripts.
package config

import (
	"io/fs"
	"log/slog"
	"os"
	"syscall"

	"gopkg.in/yaml.v3"
)

// Path is the only location the overlay is ever read from.
const Path = "/etc/panelwrap/config.yaml"

// The two dispatchable commands. The set is closed: an overlay cannot add
// commands, only repoint the script paths of these two.
const (
	CommandAutodeploy = "autodeploy"
	CommandMemwatch   = "memwatch"
)

// Config is the dispatcher's complete startup configuration.
type Config struct {
	// AuditLog is the append-only audit file.
	AuditLog string `yaml:"audit-log"`
	// ServiceAccount is the system account allowed to own target scripts
	// besides root. It is resolved in the account database at check time,
	// never cached as a numeric id.
	ServiceAccount string `yaml:"service-account"`
	// Scripts maps command name to the fixed absolute script path.
	Scripts map[string]string `yaml:"scripts"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		AuditLog:       "/var/log/panel/panel-wrapper.log",
		ServiceAccount: "panel",
		Scripts: map[string]string{
			CommandAutodeploy: "/opt/panel/scripts/autodeploy.sh",
			CommandMemwatch:   "/opt/panel/scripts/memwatch.sh",
		},
	}
}

// trusted reports whether the overlay file may influence a privileged
// dispatch: owned by root and not writable by group or other. Overridable
// in tests, which cannot create root-owned files.
var trusted = func(fi fs.FileInfo) bool {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return st.Uid == 0 && fi.Mode().Perm()&0o022 == 0
}

// Load returns the effective configuration. A missing overlay is the normal
// case. An unreadable, untrusted, or malformed overlay is ignored with a
// warning; configuration problems must never turn into a denial or, worse,
// into honoring attacker-writable settings.
func Load() Config {
	return loadFrom(Path)
}

func loadFrom(path string) Config {
	cfg := Default()

	fi, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("config overlay unreadable, using defaults", "path", path, "err", err)
		}
		return cfg
	}
	if !trusted(fi) {
		slog.Warn("config overlay not root-owned or too permissive, using defaults", "path", path)
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("config overlay unreadable, using defaults", "path", path, "err", err)
		return cfg
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		slog.Warn("config overlay malformed, using defaults", "path", path, "err", err)
		return cfg
	}

	if overlay.AuditLog != "" {
		cfg.AuditLog = overlay.AuditLog
	}
	if overlay.ServiceAccount != "" {
		cfg.ServiceAccount = overlay.ServiceAccount
	}
	// Only the two known commands are honored; stray keys cannot widen the
	// command set.
	for _, name := range []string{CommandAutodeploy, CommandMemwatch} {
		if p, ok := overlay.Scripts[name]; ok && p != "" {
			cfg.Scripts[name] = p
		}
	}
	return cfg
}
