package probe

import (
	"context"
	"io"
	"testing"

	"github.com/hearthcore/hearth/internal/procexec"
)

func TestHasDesktopPrivilegePrompt(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"display set", map[string]string{"DISPLAY": ":0"}, true},
		{"wayland set", map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, true},
		{"session type x11", map[string]string{"XDG_SESSION_TYPE": "x11"}, true},
		{"session type wayland", map[string]string{"XDG_SESSION_TYPE": "wayland"}, true},
		{"session type tty", map[string]string{"XDG_SESSION_TYPE": "tty"}, false},
		{"nothing set", map[string]string{}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			getenv := func(k string) string { return c.env[k] }
			p := New(nil, nil, getenv, nil, "linux")
			if got := p.HasDesktopPrivilegePrompt(); got != c.want {
				t.Errorf("HasDesktopPrivilegePrompt() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestResolveBinary_NotFound(t *testing.T) {
	lookPath := func(name string) (string, error) { return "", errNotFound }
	p := New(nil, lookPath, nil, nil, "linux")
	got := p.ResolveBinary("ollama")
	if got.Found {
		t.Error("expected not found")
	}
}

func TestResolveBinary_Found(t *testing.T) {
	lookPath := func(name string) (string, error) { return "/usr/bin/ollama", nil }
	p := New(nil, lookPath, nil, nil, "linux")
	got := p.ResolveBinary("ollama")
	if !got.Found || got.Path != "/usr/bin/ollama" {
		t.Errorf("ResolveBinary() = %+v", got)
	}
}

func TestProbeHelperStatus_NotConfigured(t *testing.T) {
	p := New(nil, nil, nil, nil, "linux")
	got := p.ProbeHelperStatus(context.Background(), "")
	if got.Configured || got.Available {
		t.Errorf("expected not configured, got %+v", got)
	}
}

func TestProbeHelperStatus_ConfiguredMissing(t *testing.T) {
	statFile := func(path string) bool { return false }
	p := New(nil, nil, nil, statFile, "linux")
	got := p.ProbeHelperStatus(context.Background(), "/opt/hearth/helper.sh")
	if !got.Configured || got.Available {
		t.Errorf("expected configured-missing, got %+v", got)
	}
}

func TestProbeHelperStatus_AvailableValidJSON(t *testing.T) {
	statFile := func(path string) bool { return true }
	spawn := scriptedSpawn(`{"systemctl":true,"service":false,"curl":true}`, "", 0)
	runner := procexec.NewRunner(spawn, nil)
	p := New(runner, nil, nil, statFile, "linux")

	got := p.ProbeHelperStatus(context.Background(), "/opt/hearth/helper.sh")
	if !got.Available || !got.StatusProbeOk {
		t.Fatalf("expected available + statusProbeOk, got %+v", got)
	}
	if got.Capabilities == nil || !got.Capabilities.Systemctl || got.Capabilities.Service || !got.Capabilities.Curl {
		t.Errorf("Capabilities = %+v", got.Capabilities)
	}
}

func TestProbeHelperStatus_AvailableUnparseable(t *testing.T) {
	statFile := func(path string) bool { return true }
	spawn := scriptedSpawn("not json", "", 0)
	runner := procexec.NewRunner(spawn, nil)
	p := New(runner, nil, nil, statFile, "linux")

	got := p.ProbeHelperStatus(context.Background(), "/opt/hearth/helper.sh")
	if !got.Available {
		t.Error("expected available = true")
	}
	if got.StatusProbeOk {
		t.Error("expected statusProbeOk = false for unparseable payload")
	}
}

func TestProbeSudoNonInteractive_PolicyDenied(t *testing.T) {
	spawn := scriptedSpawn("", "user is not allowed to run sudo on host", 1)
	runner := procexec.NewRunner(spawn, nil)
	p := New(runner, nil, nil, nil, "linux")

	got := p.ProbeSudoNonInteractive(context.Background())
	if !got.PolicyDenied {
		t.Errorf("expected PolicyDenied, got %+v", got)
	}
}

func TestProbeSudoNonInteractive_RequiresTty(t *testing.T) {
	spawn := scriptedSpawn("", "sudo: a password is required", 1)
	runner := procexec.NewRunner(spawn, nil)
	p := New(runner, nil, nil, nil, "linux")

	got := p.ProbeSudoNonInteractive(context.Background())
	if !got.RequiresTty {
		t.Errorf("expected RequiresTty, got %+v", got)
	}
}

func TestProbeSudoNonInteractive_Available(t *testing.T) {
	spawn := scriptedSpawn("", "", 0)
	runner := procexec.NewRunner(spawn, nil)
	p := New(runner, nil, nil, nil, "linux")

	got := p.ProbeSudoNonInteractive(context.Background())
	if !got.NonInteractiveAvailable {
		t.Errorf("expected NonInteractiveAvailable, got %+v", got)
	}
}

// --- test fakes ---

type stubErr string

func (e stubErr) Error() string { return string(e) }

var errNotFound = stubErr("not found")

type scriptedExitError struct{ code int }

func (e scriptedExitError) Error() string { return "exit status" }
func (e scriptedExitError) ExitCode() int { return e.code }

type scriptedProcess struct {
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter
	stdout  string
	stderr  string
	code    int
}

func newScriptedProc(stdout, stderr string, code int) *scriptedProcess {
	or, ow := io.Pipe()
	er, ew := io.Pipe()
	return &scriptedProcess{stdoutR: or, stdoutW: ow, stderrR: er, stderrW: ew, stdout: stdout, stderr: stderr, code: code}
}

func (s *scriptedProcess) StdoutPipe() (io.ReadCloser, error) { return s.stdoutR, nil }
func (s *scriptedProcess) StderrPipe() (io.ReadCloser, error) { return s.stderrR, nil }

func (s *scriptedProcess) Start() error {
	go func() {
		_, _ = s.stdoutW.Write([]byte(s.stdout))
		_ = s.stdoutW.Close()
		_, _ = s.stderrW.Write([]byte(s.stderr))
		_ = s.stderrW.Close()
	}()
	return nil
}

func (s *scriptedProcess) Wait() error {
	if s.code == 0 {
		return nil
	}
	return scriptedExitError{code: s.code}
}

func (s *scriptedProcess) Terminate() error { return nil }
func (s *scriptedProcess) Kill() error      { return nil }

func scriptedSpawn(stdout, stderr string, code int) procexec.Spawn {
	return func(ctx context.Context, name string, args []string, env []string) (procexec.Process, error) {
		return newScriptedProc(stdout, stderr, code), nil
	}
}
