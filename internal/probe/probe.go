// Package probe resolves binaries on PATH, detects whether a graphical
// privilege prompt is available, and probes sudo and the privileged helper
// script for their readiness, all without ever escalating privilege itself.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hearthcore/hearth/internal/procexec"
)

const (
	helperProbeTimeout = 1200 * time.Millisecond
	sudoProbeTimeout    = 1200 * time.Millisecond
)

var (
	sudoersDeniedMarkers = []string{
		"not in the sudoers",
		"is not allowed to run sudo",
		"may not run sudo",
	}
	sudoTtyMarkers = []string{
		"a terminal is required",
		"no tty present",
		"a password is required",
		"askpass",
	}
)

// LookPathFunc resolves a binary name to an absolute path, like
// exec.LookPath. Injected so tests can sandbox PATH resolution.
type LookPathFunc func(name string) (string, error)

// StatFunc reports whether path exists. Injected for the same reason.
type StatFunc func(path string) bool

// Probe bundles the environment inspection operations behind injectable
// dependencies (runner, PATH lookup, env getter, file existence, platform).
type Probe struct {
	runner   *procexec.Runner
	lookPath LookPathFunc
	getenv   func(string) string
	statFile StatFunc
	goos     string
}

// New constructs a Probe. Any nil dependency falls back to its production
// default (os/exec.LookPath, os.Getenv, os.Stat, runtime.GOOS).
func New(runner *procexec.Runner, lookPath LookPathFunc, getenv func(string) string, statFile StatFunc, goos string) *Probe {
	if runner == nil {
		runner = procexec.NewRunner(nil, nil)
	}
	if lookPath == nil {
		lookPath = defaultLookPath
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if statFile == nil {
		statFile = defaultStatFile
	}
	if goos == "" {
		goos = runtime.GOOS
	}
	return &Probe{runner: runner, lookPath: lookPath, getenv: getenv, statFile: statFile, goos: goos}
}

func defaultStatFile(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolveBinary looks up name on PATH. On Windows, matching is
// case-insensitive and strips the resolved path's extension before
// comparing against the requested name.
func (p *Probe) ResolveBinary(name string) BinaryResolution {
	path, err := p.lookPath(name)
	if err != nil || path == "" {
		return BinaryResolution{Found: false}
	}

	if p.goos == "windows" {
		base := filepath.Base(path)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		if !strings.EqualFold(base, name) {
			return BinaryResolution{Found: false}
		}
	}

	return BinaryResolution{Found: true, Path: path}
}

// HasDesktopPrivilegePrompt reports whether a graphical session is present
// that a PolicyKit agent could paint a prompt into.
func (p *Probe) HasDesktopPrivilegePrompt() bool {
	if p.getenv("DISPLAY") != "" {
		return true
	}
	if p.getenv("WAYLAND_DISPLAY") != "" {
		return true
	}
	switch p.getenv("XDG_SESSION_TYPE") {
	case "x11", "wayland":
		return true
	}
	return false
}

// ProbeHelperStatus classifies the privileged helper script at helperPath
// and, if present, runs its "status" subcommand to learn its capabilities.
func (p *Probe) ProbeHelperStatus(ctx context.Context, helperPath string) HelperProbe {
	if helperPath == "" {
		return HelperProbe{Configured: false, Available: false, Reason: "no helper path configured"}
	}

	if !p.statFile(helperPath) {
		return HelperProbe{
			Path:       helperPath,
			Configured: true,
			Available:  false,
			Reason:     "configured-missing: helper file not found",
		}
	}

	result := HelperProbe{Path: helperPath, Configured: true, Available: true}

	res, err := p.runner.Run(ctx, helperPath, []string{"status"}, nil, helperProbeTimeout, nil)
	if err != nil || res.ExitCode == nil || *res.ExitCode != 0 {
		result.Reason = "helper status probe failed"
		return result
	}

	var payload struct {
		Systemctl bool `json:"systemctl"`
		Service   bool `json:"service"`
		Curl      bool `json:"curl"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &payload); err != nil {
		result.StatusProbeOk = false
		result.Reason = "unparseable status payload"
		return result
	}

	result.StatusProbeOk = true
	result.Capabilities = &Capabilities{Systemctl: payload.Systemctl, Service: payload.Service, Curl: payload.Curl}
	return result
}

// ProbeSudoNonInteractive runs `sudo -n true` and classifies the result.
// Classification order matters: sudoers-policy denial is checked before
// tty-required, matching the CommandRunner failure classification table.
func (p *Probe) ProbeSudoNonInteractive(ctx context.Context) SudoProbe {
	res, err := p.runner.Run(ctx, "sudo", []string{"-n", "true"}, nil, sudoProbeTimeout, nil)
	if err != nil {
		return SudoProbe{}
	}

	combined := strings.ToLower(res.Stdout + "\n" + res.Stderr)

	if res.ExitCode != nil && *res.ExitCode == 0 {
		return SudoProbe{NonInteractiveAvailable: true}
	}

	for _, marker := range sudoersDeniedMarkers {
		if strings.Contains(combined, marker) {
			return SudoProbe{PolicyDenied: true}
		}
	}
	for _, marker := range sudoTtyMarkers {
		if strings.Contains(combined, marker) {
			return SudoProbe{RequiresTty: true}
		}
	}

	return SudoProbe{}
}

func defaultLookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return path, nil
}
