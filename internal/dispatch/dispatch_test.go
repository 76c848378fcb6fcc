package dispatch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"panelwrap/config"
	"panelwrap/internal/audit"
)

type execCapture struct {
	calls int
	path  string
	argv  []string
	envv  []string
	err   error // returned instead of replacing the image
}

func stubExec(t *testing.T, cap *execCapture) {
	t.Helper()
	original := execve
	t.Cleanup(func() { execve = original })
	execve = func(path string, argv, envv []string) error {
		cap.calls++
		cap.path, cap.argv, cap.envv = path, argv, envv
		return cap.err
	}
}

func trustedScripts(t *testing.T) {
	t.Helper()
	stubProvenance(t,
		func(string) error { return nil },
		func(string) (uint32, error) { return 0, nil },
		nil,
	)
}

func testConfig(t *testing.T) (config.Config, string) {
	t.Helper()
	cfg := config.Default()
	cfg.AuditLog = filepath.Join(t.TempDir(), "wrapper.log")
	return cfg, cfg.AuditLog
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRunAutodeployTransfersWithSanitizedEnvironment(t *testing.T) {
	cfg, logPath := testConfig(t)
	trustedScripts(t)
	cap := &execCapture{}
	stubExec(t, cap)

	req := Request{Command: CommandAutodeploy, Argument: "https://example.com/a.tgz", UID: 1000, EUID: 0, GID: 1000}
	if err := New(cfg, audit.New(logPath)).Run(req); err != nil {
		t.Fatalf("run: %v", err)
	}

	if cap.calls != 1 {
		t.Fatalf("exec calls = %d, want 1", cap.calls)
	}
	if cap.path != "/opt/panel/scripts/autodeploy.sh" {
		t.Fatalf("exec path = %q", cap.path)
	}
	if diff := cmp.Diff([]string{"/opt/panel/scripts/autodeploy.sh"}, cap.argv); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
	wantEnv := []string{"PATH=/usr/bin:/bin", "LANG=C", "DOWNLOAD_URL=https://example.com/a.tgz"}
	if diff := cmp.Diff(wantEnv, cap.envv); diff != "" {
		t.Fatalf("environment mismatch (-want +got):\n%s", diff)
	}

	lines := readLines(t, logPath)
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "uid=1000 euid=0 gid=1000 cmd=autodeploy") || !strings.Contains(lines[0], "invoked") {
		t.Fatalf("unexpected invocation line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "executing /opt/panel/scripts/autodeploy.sh") {
		t.Fatalf("unexpected transfer line: %q", lines[1])
	}
}

func TestRunMemwatchWithoutArgument(t *testing.T) {
	cfg, logPath := testConfig(t)
	trustedScripts(t)
	cap := &execCapture{}
	stubExec(t, cap)

	req := Request{Command: CommandMemwatch, UID: 1000, EUID: 0, GID: 1000}
	if err := New(cfg, audit.New(logPath)).Run(req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"PATH=/usr/bin:/bin", "LANG=C"}, cap.envv); diff != "" {
		t.Fatalf("environment mismatch (-want +got):\n%s", diff)
	}
}

func TestRunUnknownCommandNeverExecs(t *testing.T) {
	cfg, logPath := testConfig(t)
	cap := &execCapture{}
	stubExec(t, cap)

	err := New(cfg, audit.New(logPath)).Run(Request{Command: Command("frobnicate"), UID: 1000})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if ExitCode(err) != ExitUsage {
		t.Fatalf("exit code = %d, want %d", ExitCode(err), ExitUsage)
	}
	if cap.calls != 0 {
		t.Fatal("exec must not run for unknown commands")
	}

	lines := readLines(t, logPath)
	if len(lines) != 2 || !strings.Contains(lines[1], "unknown command") {
		t.Fatalf("unexpected audit lines: %q", lines)
	}
}

func TestRunInvalidArgumentStopsBeforeProvenance(t *testing.T) {
	cfg, logPath := testConfig(t)
	stubProvenance(t,
		func(string) error { t.Fatal("provenance must not run for invalid arguments"); return nil },
		nil, nil,
	)
	cap := &execCapture{}
	stubExec(t, cap)

	err := New(cfg, audit.New(logPath)).Run(Request{Command: CommandAutodeploy, Argument: "ftp://x"})
	if ExitCode(err) != ExitInvalidArgument {
		t.Fatalf("exit code = %d, want %d (err %v)", ExitCode(err), ExitInvalidArgument, err)
	}
	if cap.calls != 0 {
		t.Fatal("exec must not run for invalid arguments")
	}
	lines := readLines(t, logPath)
	if len(lines) != 2 || !strings.Contains(lines[1], "invalid download URL") {
		t.Fatalf("unexpected audit lines: %q", lines)
	}
}

func TestRunProvenanceFailureNeverExecs(t *testing.T) {
	cfg, logPath := testConfig(t)
	stubProvenance(t,
		func(string) error { return errors.New("permission denied") },
		nil, nil,
	)
	cap := &execCapture{}
	stubExec(t, cap)

	err := New(cfg, audit.New(logPath)).Run(Request{Command: CommandMemwatch, Argument: "/tmp/etlegacy.pid"})
	if !errors.Is(err, ErrScriptNotExecutable) {
		t.Fatalf("expected ErrScriptNotExecutable, got %v", err)
	}
	if cap.calls != 0 {
		t.Fatal("exec must not run when provenance fails")
	}
}

func TestRunTransferFailureIsTerminal(t *testing.T) {
	cfg, logPath := testConfig(t)
	trustedScripts(t)
	cap := &execCapture{err: unix.ENOENT}
	stubExec(t, cap)

	err := New(cfg, audit.New(logPath)).Run(Request{Command: CommandAutodeploy})
	var xferErr *TransferError
	if !errors.As(err, &xferErr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if !errors.Is(err, unix.ENOENT) {
		t.Fatalf("expected wrapped ENOENT, got %v", err)
	}
	if ExitCode(err) != ExitTransferFailed {
		t.Fatalf("exit code = %d, want %d", ExitCode(err), ExitTransferFailed)
	}
	if cap.calls != 1 {
		t.Fatalf("exec calls = %d, want 1", cap.calls)
	}

	lines := readLines(t, logPath)
	last := lines[len(lines)-1]
	if !strings.Contains(last, "execve /opt/panel/scripts/autodeploy.sh failed") {
		t.Fatalf("unexpected failure line: %q", last)
	}
}

func TestRunTwiceIsIndependent(t *testing.T) {
	cfg, logPath := testConfig(t)
	trustedScripts(t)
	cap := &execCapture{}
	stubExec(t, cap)

	d := New(cfg, audit.New(logPath))
	req := Request{Command: CommandMemwatch, Argument: "/var/run/etlegacy.pid", UID: 1000, EUID: 0, GID: 1000}
	for i := 0; i < 2; i++ {
		if err := d.Run(req); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if cap.calls != 2 {
		t.Fatalf("exec calls = %d, want 2", cap.calls)
	}
	if lines := readLines(t, logPath); len(lines) != 4 {
		t.Fatalf("expected 4 audit lines, got %d", len(lines))
	}
}

func TestNewRequestCapturesIdentity(t *testing.T) {
	origUID, origEUID, origGID := getuid, geteuid, getgid
	t.Cleanup(func() { getuid, geteuid, getgid = origUID, origEUID, origGID })
	getuid = func() int { return 1000 }
	geteuid = func() int { return 0 }
	getgid = func() int { return 1000 }

	req := NewRequest(CommandAutodeploy, "https://example.com/a.tgz")
	want := Request{Command: CommandAutodeploy, Argument: "https://example.com/a.tgz", UID: 1000, EUID: 0, GID: 1000}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}
