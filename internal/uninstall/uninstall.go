// Package uninstall implements the UninstallOrchestrator: confirmation-token
// gating, privileged-action plan ordering, and safe local cleanup.
package uninstall

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/policy"
	"github.com/hearthcore/hearth/internal/policy/guards"
	"github.com/hearthcore/hearth/internal/privileged"
	"github.com/hearthcore/hearth/internal/secureio"
)

// ConfirmationToken is the fixed token the caller must echo back before any
// destructive uninstall action is planned.
const ConfirmationToken = "UNINSTALL-CONFIRM"

// PackageMode selects between a package remove (keep config) and a purge
// (also remove config shipped by the package manager).
type PackageMode string

const (
	PackageModeRemove PackageMode = "remove"
	PackageModePurge  PackageMode = "purge"
)

// Request is the caller-supplied uninstall request.
type Request struct {
	PackageMode            PackageMode
	RemoveUserData          bool
	RemoveRuntimeSystem     bool
	RemoveRuntimeUserData   bool
	ConfirmationToken       string
}

// Result reports what the orchestrator actually did.
type Result struct {
	Performed []string
	Warnings  []string
	NextSteps []string
	ErrorCode errcode.Code
}

// Orchestrator drives the uninstall flow.
type Orchestrator struct {
	executor    *privileged.Executor
	guardConfig *policy.GuardConfig
	guards      *guards.Registry
	homeDir     string
	appName     string
	applyInProgress func() bool
}

// NewOrchestrator builds an Orchestrator. A nil guardConfig means no action
// has any guard attached. applyInProgress, if nil, always reports false.
func NewOrchestrator(executor *privileged.Executor, guardConfig *policy.GuardConfig, registry *guards.Registry, homeDir, appName string, applyInProgress func() bool) *Orchestrator {
	if guardConfig == nil {
		guardConfig = &policy.GuardConfig{Guards: map[string][]string{}}
	}
	if registry == nil {
		registry = guards.NewRegistry()
	}
	if applyInProgress == nil {
		applyInProgress = func() bool { return false }
	}
	return &Orchestrator{
		executor:        executor,
		guardConfig:     guardConfig,
		guards:          registry,
		homeDir:         homeDir,
		appName:         appName,
		applyInProgress: applyInProgress,
	}
}

// Run executes the uninstall request: token check, guard evaluation for a
// purge, privileged action plan, then local cleanup.
func (o *Orchestrator) Run(ctx context.Context, strategy privileged.Strategy, req Request) Result {
	if req.ConfirmationToken != ConfirmationToken {
		return Result{
			ErrorCode: errcode.InvalidConfirmation,
			Performed: requestedFlags(req),
			NextSteps: []string{"retry with the exact confirmation token"},
		}
	}

	if req.PackageMode == PackageModePurge {
		env := &guards.Environment{
			ConfirmationToken: req.ConfirmationToken,
			ExpectedToken:     ConfirmationToken,
			ApplyInProgress:   o.applyInProgress(),
		}
		if ok, failedGuard := o.guardConfig.EvaluateAction(ctx, o.guards, "uninstall.purge", env); !ok {
			return Result{
				ErrorCode: errcode.InvalidConfirmation,
				Warnings:  []string{"blocked by guard: " + failedGuard},
			}
		}
	}

	var performed []string
	var warnings []string

	plan := buildPlan(req)
	if len(plan) > 0 {
		res := o.executor.Execute(ctx, strategy, plan, nil)
		if !res.Succeeded {
			return Result{
				Performed: performed,
				Warnings:  warnings,
				ErrorCode: res.ErrorCode,
				NextSteps: []string{"re-run uninstall after resolving the privilege error"},
			}
		}
		performed = append(performed, "package "+string(req.PackageMode))
		if req.RemoveRuntimeSystem {
			performed = append(performed, "runtime system teardown")
		}
	}

	if req.RemoveUserData || req.RemoveRuntimeUserData {
		cleaned, cleanupWarnings := o.cleanupLocalPaths(req)
		performed = append(performed, cleaned...)
		warnings = append(warnings, cleanupWarnings...)
	}

	return Result{
		Performed: performed,
		Warnings:  warnings,
		NextSteps: []string{"restart the application to complete removal"},
	}
}

// requestedFlags describes the flags req carried, not what was actually
// done, so a caller whose token was rejected can still echo back and let
// the user replay the request with a corrected token.
func requestedFlags(req Request) []string {
	flags := []string{"packageMode=" + string(req.PackageMode)}
	if req.RemoveUserData {
		flags = append(flags, "removeUserData")
	}
	if req.RemoveRuntimeSystem {
		flags = append(flags, "removeRuntimeSystem")
	}
	if req.RemoveRuntimeUserData {
		flags = append(flags, "removeRuntimeUserData")
	}
	return flags
}

func buildPlan(req Request) privileged.Plan {
	var plan privileged.Plan
	switch req.PackageMode {
	case PackageModePurge:
		plan = append(plan, privileged.Action{HelperAction: "package-purge", ShellCommand: "apt-get purge -y hearth"})
	case PackageModeRemove:
		plan = append(plan, privileged.Action{HelperAction: "package-remove", ShellCommand: "apt-get remove -y hearth"})
	}

	if req.RemoveRuntimeSystem {
		plan = append(plan,
			privileged.Action{HelperAction: "runtime-service-stop", ShellCommand: "systemctl stop ollama || service ollama stop"},
			privileged.Action{HelperAction: "runtime-service-disable", ShellCommand: "systemctl disable ollama || true"},
			privileged.Action{HelperAction: "runtime-remove-install-dir", ShellCommand: "rm -rf /usr/share/ollama /usr/local/lib/ollama"},
			privileged.Action{HelperAction: "runtime-remove-user", ShellCommand: "userdel ollama || true"},
			privileged.Action{HelperAction: "runtime-remove-group", ShellCommand: "groupdel ollama || true"},
		)
	}

	return plan
}

// cleanupLocalPaths removes the optional local data directories req selects
// (the app's config, cache and data directories for RemoveUserData, the
// runtime's ~/.ollama for RemoveRuntimeUserData), skipping and warning on
// any path secureio rejects as unsafe.
func (o *Orchestrator) cleanupLocalPaths(req Request) ([]string, []string) {
	var candidates []string
	if req.RemoveUserData {
		candidates = append(candidates,
			filepath.Join(o.homeDir, ".config", o.appName),
			filepath.Join(o.homeDir, ".cache", o.appName),
			filepath.Join(o.homeDir, ".local", "share", o.appName),
		)
	}
	if req.RemoveRuntimeUserData {
		candidates = append(candidates, filepath.Join(o.homeDir, ".ollama"))
	}

	var performed []string
	var warnings []string

	for _, path := range candidates {
		if !secureio.IsSafeCleanupPath(path, o.homeDir) {
			warnings = append(warnings, "skipped unsafe cleanup path: "+path)
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := secureio.RemoveAllSafe(path, o.homeDir); err != nil {
			warnings = append(warnings, "failed to remove "+path+": "+err.Error())
			continue
		}
		performed = append(performed, "removed "+path)
	}

	return performed, warnings
}
