package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearthcore/hearth/internal/policy/guards"
)

func TestLoadGuardConfig_Missing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadGuardConfig(filepath.Join(dir, "guards.yaml"))
	if err != nil {
		t.Fatalf("LoadGuardConfig() error = %v", err)
	}
	if len(cfg.Guards) != 0 {
		t.Errorf("expected empty guard map, got %v", cfg.Guards)
	}
}

func TestLoadGuardConfig_Parses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guards.yaml")
	contents := "version: 1\nguards:\n  uninstall.purge:\n    - confirmation-token-present\n    - no-other-apply-in-progress\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGuardConfig(path)
	if err != nil {
		t.Fatalf("LoadGuardConfig() error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	names := cfg.Guards["uninstall.purge"]
	if len(names) != 2 || names[0] != "confirmation-token-present" || names[1] != "no-other-apply-in-progress" {
		t.Errorf("Guards[uninstall.purge] = %v", names)
	}
}

func TestGuardConfig_EvaluateAction(t *testing.T) {
	registry := guards.NewRegistry()
	registry.Register(&fakeGuard{name: "always-true", result: true})
	registry.Register(&fakeGuard{name: "always-false", result: false})

	cfg := &GuardConfig{Guards: map[string][]string{
		"uninstall.purge": {"always-true"},
		"blocked.action":  {"always-false"},
		"typo.action":     {"not-registered"},
	}}

	ctx := context.Background()
	env := &guards.Environment{}

	if ok, failed := cfg.EvaluateAction(ctx, registry, "no-guards-configured", env); !ok || failed != "" {
		t.Errorf("action with no guards = %v, %q, want true, \"\"", ok, failed)
	}
	if ok, failed := cfg.EvaluateAction(ctx, registry, "uninstall.purge", env); !ok || failed != "" {
		t.Errorf("uninstall.purge = %v, %q, want true, \"\"", ok, failed)
	}
	if ok, failed := cfg.EvaluateAction(ctx, registry, "blocked.action", env); ok || failed != "always-false" {
		t.Errorf("blocked.action = %v, %q, want false, \"always-false\"", ok, failed)
	}
	if ok, failed := cfg.EvaluateAction(ctx, registry, "typo.action", env); ok || failed != "not-registered" {
		t.Errorf("typo.action (fail closed) = %v, %q, want false, \"not-registered\"", ok, failed)
	}
}

type fakeGuard struct {
	name   string
	result bool
}

func (g *fakeGuard) Name() string        { return g.name }
func (g *fakeGuard) Description() string { return "" }
func (g *fakeGuard) Check(_ context.Context, _ *guards.Environment) (bool, error) {
	return g.result, nil
}
