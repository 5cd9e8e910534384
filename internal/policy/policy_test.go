package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileSeedsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.json")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for scope, mode := range p.List() {
		if mode != ModeDeny {
			t.Errorf("scope %s = %s, want deny by default", scope, mode)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default policy to be persisted: %v", err)
	}
}

func TestLoad_CorruptFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, mode := range p.List() {
		if mode != ModeDeny {
			t.Error("expected all-deny fallback")
		}
	}
}

func TestCheck_DecisionTable(t *testing.T) {
	dir := t.TempDir()
	p, err := Load(filepath.Join(dir, "policy.json"))
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := p.Set(ScopeRuntimeInstall, ModeAllow); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Set(ScopeFilesystemRead, ModeAsk); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Set(ScopeFilesystemWrite, ModeDeny); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		scope          Scope
		wantAllowed    bool
		wantPrompt     bool
	}{
		{ScopeRuntimeInstall, true, false},
		{ScopeFilesystemRead, false, true},
		{ScopeFilesystemWrite, false, false},
		{Scope("unknown.scope"), false, false},
	}

	for _, c := range cases {
		got := p.Check(c.scope)
		if got.Allowed != c.wantAllowed || got.RequiresPrompt != c.wantPrompt {
			t.Errorf("Check(%s) = %+v, want allowed=%v prompt=%v", c.scope, got, c.wantAllowed, c.wantPrompt)
		}
	}
}

func TestSet_IdempotentAndPersisted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.json")
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := p.Set(ScopeSystemExec, ModeAllow); err != nil {
		t.Fatal(err)
	}

	firstBytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	before, after, err := p.Set(ScopeSystemExec, ModeAllow)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("Set() with unchanged mode should produce identical before/after")
	}

	secondBytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(firstBytes) != string(secondBytes) {
		t.Error("persisted file should be byte-identical when mode is unchanged")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Check(ScopeSystemExec).Allowed != true {
		t.Error("reload should echo the persisted mode")
	}
}

func TestSet_UnknownScopeRejected(t *testing.T) {
	dir := t.TempDir()
	p, err := Load(filepath.Join(dir, "policy.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Set(Scope("bogus"), ModeAllow); err == nil {
		t.Error("expected error for unknown scope")
	}
}
