package builtin

import (
	"context"

	"github.com/hearthcore/hearth/internal/policy/guards"
)

// NoConcurrentApplyGuard checks that no update apply attempt is currently in
// progress, so uninstall and apply never race against each other.
type NoConcurrentApplyGuard struct{}

func init() {
	guards.Register(&NoConcurrentApplyGuard{})
}

// Name returns the guard's unique identifier.
func (g *NoConcurrentApplyGuard) Name() string {
	return "no-other-apply-in-progress"
}

// Description returns a human-readable description of the guard.
func (g *NoConcurrentApplyGuard) Description() string {
	return "Verifies no update apply attempt is currently underway"
}

// Check verifies no concurrent apply is in flight.
func (g *NoConcurrentApplyGuard) Check(_ context.Context, env *guards.Environment) (bool, error) {
	return !env.ApplyInProgress, nil
}
