// Package builtin provides the built-in guards available for use in
// guards.yaml, registered against the global registry on import.
package builtin

import (
	"context"

	"github.com/hearthcore/hearth/internal/policy/guards"
)

// ConfirmationTokenGuard checks that the caller echoed back the
// confirmation token an orchestrator minted for a destructive action.
type ConfirmationTokenGuard struct{}

func init() {
	guards.Register(&ConfirmationTokenGuard{})
}

// Name returns the guard's unique identifier.
func (g *ConfirmationTokenGuard) Name() string {
	return "confirmation-token-present"
}

// Description returns a human-readable description of the guard.
func (g *ConfirmationTokenGuard) Description() string {
	return "Verifies the caller supplied the expected confirmation token"
}

// Check verifies the confirmation token was supplied and matches.
func (g *ConfirmationTokenGuard) Check(_ context.Context, env *guards.Environment) (bool, error) {
	if env.ExpectedToken == "" {
		return false, nil
	}
	return env.ConfirmationToken == env.ExpectedToken, nil
}
