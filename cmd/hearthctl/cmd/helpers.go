package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hearthcore/hearth/internal/audit"
	"github.com/hearthcore/hearth/internal/migrate"
	"github.com/hearthcore/hearth/internal/policy"
	"github.com/hearthcore/hearth/internal/policy/guards"
	_ "github.com/hearthcore/hearth/internal/policy/guards/builtin" // registers the built-in guard set
	"github.com/hearthcore/hearth/internal/privileged"
	"github.com/hearthcore/hearth/internal/probe"
	"github.com/hearthcore/hearth/internal/procexec"
	"github.com/hearthcore/hearth/internal/runtime"
)

var appDirFlag string

// appDir resolves the directory hearthctl persists policy, cadence, update
// state, and audit logs under. --app-dir overrides the default
// ~/.config/hearth, matching the desktop host's own state directory so the
// CLI and the UI agree on one on-disk truth.
func appDir() (string, error) {
	if appDirFlag != "" {
		return appDirFlag, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "hearth")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: GetLogLevel()}))
}

func newAuditLog(dir string) (*audit.Log, error) {
	return audit.New(filepath.Join(dir, "logs"), nil)
}

func newPolicy(dir string) (*policy.Policy, error) {
	return policy.Load(filepath.Join(dir, "policy.json"))
}

func newGuardConfig(dir string) (*policy.GuardConfig, error) {
	return policy.LoadGuardConfig(filepath.Join(dir, "guards.yaml"))
}

func newProbe() *probe.Probe {
	return probe.New(nil, nil, nil, nil, "")
}

func newExecutor(p *probe.Probe, helperPath string) *privileged.Executor {
	return privileged.NewExecutor(procexec.NewRunner(nil, nil), helperPath)
}

func selectionInputFrom(h probe.HelperProbe, requiresPackageOp bool, aptGetAvailable bool) privileged.SelectionInput {
	return privileged.SelectionInput{
		HelperConfigured:            h.Configured,
		HelperAvailable:             h.Available,
		PkexecAvailable:             h.PkexecAvailable,
		DesktopPromptAvailable:      h.DesktopPromptAvailable,
		SudoNonInteractiveAvailable: h.SudoNonInteractiveAvailable,
		RequiresPackageOp:           requiresPackageOp,
		AptGetAvailable:             aptGetAvailable,
	}
}

func newRuntimeOrchestrator(p *probe.Probe, helperPath string) *runtime.Orchestrator {
	return runtime.NewOrchestrator(p, nil, nil, helperPath)
}

func newSchemaRegistry() *migrate.SchemaRegistry {
	r := migrate.NewSchemaRegistry()
	r.Register(1, 2)
	r.Register(2, 3)
	return r
}

// guardRegistry builds a Registry seeded with every guard the builtin
// package registered against the package-global registry at import time.
func guardRegistry() *guards.Registry {
	r := guards.NewRegistry()
	for _, name := range guards.List() {
		if g, ok := guards.Get(name); ok {
			r.Register(g)
		}
	}
	return r
}
