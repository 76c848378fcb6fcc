package dispatch

import "strings"

// Environ is the small ordered mapping handed to the target script. It is
// built from scratch per invocation; nothing from the caller's inherited
// environment ever enters it. The mapping is converted to exec's key=value
// form in a single step at the transfer boundary.
type Environ struct {
	entries []envEntry
}

type envEntry struct {
	key, value string
}

// Set appends the entry, replacing an existing key in place so order stays
// stable.
func (e *Environ) Set(key, value string) {
	for i := range e.entries {
		if e.entries[i].key == key {
			e.entries[i].value = value
			return
		}
	}
	e.entries = append(e.entries, envEntry{key: key, value: value})
}

// Len returns the number of entries.
func (e *Environ) Len() int { return len(e.entries) }

// Slice converts the mapping to exec's key=value form. An entry that cannot
// be represented (empty key, '=' or NUL in the key, NUL in the value) fails
// the whole conversion.
func (e *Environ) Slice() ([]string, error) {
	out := make([]string, 0, len(e.entries))
	for _, kv := range e.entries {
		if kv.key == "" || strings.ContainsAny(kv.key, "=\x00") || strings.IndexByte(kv.value, 0) >= 0 {
			return nil, &EnvironError{Key: kv.key}
		}
		out = append(out, kv.key+"="+kv.value)
	}
	return out, nil
}

// buildEnviron produces the replacement environment: fixed PATH and LANG,
// plus the one command-specific entry when an argument was supplied. The
// grammar has already constrained the value; it is passed verbatim.
func buildEnviron(cmd Command, arg string) Environ {
	var env Environ
	env.Set("PATH", "/usr/bin:/bin")
	env.Set("LANG", "C")
	if arg != "" {
		switch cmd {
		case CommandAutodeploy:
			env.Set("DOWNLOAD_URL", arg)
		case CommandMemwatch:
			env.Set("ET_PID_FILE", arg)
		}
	}
	return env
}
