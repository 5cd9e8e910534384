package policy

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hearthcore/hearth/internal/policy/guards"
)

// GuardConfig is the parsed shape of ~/.config/hearth/guards.yaml: an
// action key (e.g. "uninstall.purge") mapped to the ordered list of guard
// names that must all be satisfied before that action may proceed.
type GuardConfig struct {
	Version int                 `yaml:"version"`
	Guards  map[string][]string `yaml:"guards"`
}

// LoadGuardConfig reads the guard configuration from path. A missing file is
// not an error: it means no action has any guard attached, identical to
// behavior before the guard layer existed.
func LoadGuardConfig(path string) (*GuardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GuardConfig{Guards: map[string][]string{}}, nil
		}
		return nil, fmt.Errorf("read guard config: %w", err)
	}

	var cfg GuardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse guard config: %w", err)
	}
	if cfg.Guards == nil {
		cfg.Guards = map[string][]string{}
	}
	return &cfg, nil
}

// EvaluateAction checks the guard list (if any) configured for action
// against registry, using env for the in-memory guard state. An action with
// no configured guards always passes. A registered-but-unsatisfied guard, or
// a guard name unrecognized by registry, fails closed and names the guard
// that blocked the action.
func (c *GuardConfig) EvaluateAction(ctx context.Context, registry *guards.Registry, action string, env *guards.Environment) (bool, string) {
	names, ok := c.Guards[action]
	if !ok || len(names) == 0 {
		return true, ""
	}
	return registry.Evaluate(ctx, names, env)
}
