// Package policy implements the PermissionPolicy scope/mode store: a fixed
// set of privileged-action scopes, each bound to allow/ask/deny, persisted
// atomically and checked before any privileged action runs.
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/hearthcore/hearth/internal/secureio"
)

// Scope names a privileged-action category. The set is fixed; unknown
// scopes are always treated as deny.
type Scope string

const (
	ScopeRuntimeInstall       Scope = "runtime.install"
	ScopeFilesystemRead       Scope = "tools.filesystem.read"
	ScopeFilesystemWrite      Scope = "tools.filesystem.write"
	ScopeSystemExec           Scope = "tools.system.exec"
)

// knownScopes is the fixed, closed set of recognized scopes.
var knownScopes = map[Scope]bool{
	ScopeRuntimeInstall:  true,
	ScopeFilesystemRead:  true,
	ScopeFilesystemWrite: true,
	ScopeSystemExec:      true,
}

// Mode is a scope's policy setting.
type Mode string

const (
	ModeAllow Mode = "allow"
	ModeAsk   Mode = "ask"
	ModeDeny  Mode = "deny"
)

const currentSchemaVersion = 1

// document is the on-disk shape of the policy file.
type document struct {
	SchemaVersion int             `json:"schemaVersion"`
	Scopes        map[Scope]Mode `json:"scopes"`
}

// CheckResult is the decision PermissionPolicy.Check returns for a scope.
type CheckResult struct {
	Allowed         bool
	RequiresPrompt  bool
	Message         string
}

// Policy is the in-memory, disk-backed scope policy store.
type Policy struct {
	path string
	doc  document
}

// defaultDocument is the hard-coded safe default: every scope denied.
func defaultDocument() document {
	scopes := make(map[Scope]Mode, len(knownScopes))
	for s := range knownScopes {
		scopes[s] = ModeDeny
	}
	return document{SchemaVersion: currentSchemaVersion, Scopes: scopes}
}

// Load reads the policy document from path. On any read or parse failure it
// falls back to the hard-coded safe default and re-persists it immediately,
// matching the "persistence errors fall back to safe defaults and
// re-persist" propagation policy.
func Load(path string) (*Policy, error) {
	p := &Policy{path: path}

	data, err := secureio.ReadFile(path)
	if err != nil {
		p.doc = defaultDocument()
		if saveErr := p.persist(); saveErr != nil {
			return nil, fmt.Errorf("persist default policy: %w", saveErr)
		}
		return p, nil
	}

	var doc document
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil || doc.Scopes == nil {
		p.doc = defaultDocument()
		if saveErr := p.persist(); saveErr != nil {
			return nil, fmt.Errorf("persist default policy: %w", saveErr)
		}
		return p, nil
	}

	p.doc = doc
	return p, nil
}

func (p *Policy) persist() error {
	data, err := json.MarshalIndent(p.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	return secureio.WriteAtomic(p.path, data, 0o600)
}

// List returns a defensive snapshot of every known scope's current mode.
func (p *Policy) List() map[Scope]Mode {
	out := make(map[Scope]Mode, len(knownScopes))
	for s := range knownScopes {
		mode, ok := p.doc.Scopes[s]
		if !ok {
			mode = ModeDeny
		}
		out[s] = mode
	}
	return out
}

// Check evaluates whether action against scope is currently permitted. An
// unknown scope always resolves to deny.
func (p *Policy) Check(scope Scope) CheckResult {
	if !knownScopes[scope] {
		return CheckResult{Allowed: false, RequiresPrompt: false, Message: fmt.Sprintf("unknown scope: %s", scope)}
	}

	mode, ok := p.doc.Scopes[scope]
	if !ok {
		mode = ModeDeny
	}

	switch mode {
	case ModeAllow:
		return CheckResult{Allowed: true, RequiresPrompt: false, Message: "allowed by policy"}
	case ModeAsk:
		return CheckResult{Allowed: false, RequiresPrompt: true, Message: "requires confirmation"}
	default:
		return CheckResult{Allowed: false, RequiresPrompt: false, Message: "denied by policy"}
	}
}

// Set updates scope's mode and persists the document atomically. It returns
// the document's JSON before and after the change (pretty-printed, stable
// key order) so callers can embed a diff in the audit trail; if mode is
// unchanged the before/after strings are identical and no write to disk
// occurs, matching the "idempotent policy" testable property.
func (p *Policy) Set(scope Scope, mode Mode) (before, after string, err error) {
	if !knownScopes[scope] {
		return "", "", fmt.Errorf("unknown scope: %s", scope)
	}
	switch mode {
	case ModeAllow, ModeAsk, ModeDeny:
	default:
		return "", "", fmt.Errorf("unknown mode: %s", mode)
	}

	beforeBytes, err := json.MarshalIndent(p.doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal before state: %w", err)
	}
	before = string(beforeBytes)

	if p.doc.Scopes[scope] == mode {
		return before, before, nil
	}

	if p.doc.Scopes == nil {
		p.doc.Scopes = make(map[Scope]Mode)
	}
	p.doc.Scopes[scope] = mode

	afterBytes, err := json.MarshalIndent(p.doc, "", "  ")
	if err != nil {
		return before, "", fmt.Errorf("marshal after state: %w", err)
	}
	after = string(afterBytes)

	if err := p.persist(); err != nil {
		return before, after, fmt.Errorf("persist policy: %w", err)
	}

	return before, after, nil
}
