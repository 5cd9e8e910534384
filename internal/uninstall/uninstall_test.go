package uninstall

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/policy"
	"github.com/hearthcore/hearth/internal/policy/guards"
	"github.com/hearthcore/hearth/internal/privileged"
)

func TestRun_InvalidConfirmationToken(t *testing.T) {
	o := NewOrchestrator(privileged.NewExecutor(nil, ""), nil, nil, t.TempDir(), "hearth", nil)
	res := o.Run(context.Background(), privileged.StrategySudoNonInteractive, Request{
		PackageMode:       PackageModeRemove,
		ConfirmationToken: "wrong-token",
	})

	if res.ErrorCode != errcode.InvalidConfirmation {
		t.Errorf("ErrorCode = %v, want %v", res.ErrorCode, errcode.InvalidConfirmation)
	}
}

func TestRun_RemoveCleansLocalPaths(t *testing.T) {
	home := t.TempDir()
	configDir := filepath.Join(home, ".config", "hearth")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(privileged.NewExecutor(nil, ""), nil, nil, home, "hearth", nil)
	res := o.Run(context.Background(), privileged.StrategyFailure, Request{
		PackageMode:       "", // no package action, local cleanup only
		RemoveUserData:    true,
		ConfirmationToken: ConfirmationToken,
	})

	if res.ErrorCode != "" {
		t.Fatalf("unexpected error: %v", res.ErrorCode)
	}
	if _, err := os.Stat(configDir); !os.IsNotExist(err) {
		t.Error("expected config dir to be removed")
	}
}

func TestRun_PurgeBlockedByGuard(t *testing.T) {
	registry := guards.NewRegistry()
	registry.Register(&denyGuard{})
	guardConfig := &policy.GuardConfig{Guards: map[string][]string{"uninstall.purge": {"always-deny"}}}

	o := NewOrchestrator(privileged.NewExecutor(nil, ""), guardConfig, registry, t.TempDir(), "hearth", nil)
	res := o.Run(context.Background(), privileged.StrategyFailure, Request{
		PackageMode:       PackageModePurge,
		ConfirmationToken: ConfirmationToken,
	})

	if res.ErrorCode == "" {
		t.Error("expected purge to be blocked by guard")
	}
}

type denyGuard struct{}

func (denyGuard) Name() string        { return "always-deny" }
func (denyGuard) Description() string { return "" }
func (denyGuard) Check(_ context.Context, _ *guards.Environment) (bool, error) { return false, nil }
