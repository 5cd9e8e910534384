package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/config"
	"github.com/hearthcore/hearth/internal/privileged"
	"github.com/hearthcore/hearth/internal/runtime"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the local model runtime if it is not already reachable",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func servicePlans() map[privileged.Strategy]privileged.Plan {
	plan := privileged.Plan{{ShellCommand: "systemctl --user start ollama || ollama serve &"}}
	return map[privileged.Strategy]privileged.Plan{
		privileged.StrategyPkexecHelper:       plan,
		privileged.StrategyPkexec:             plan,
		privileged.StrategySudoNonInteractive: plan,
	}
}

func restartPlans() map[privileged.Strategy]privileged.Plan {
	plan := privileged.Plan{{ShellCommand: "systemctl --user restart ollama"}}
	return map[privileged.Strategy]privileged.Plan{
		privileged.StrategyPkexecHelper:       plan,
		privileged.StrategyPkexec:             plan,
		privileged.StrategySudoNonInteractive: plan,
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	cfg, err := config.Load(dir, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p := newProbe()
	executor := newExecutor(p, "")
	orch := newRuntimeOrchestrator(p, "")
	strategies := []privileged.Strategy{privileged.StrategyPkexecHelper, privileged.StrategyPkexec, privileged.StrategySudoNonInteractive}

	event := orch.Start(context.Background(), executor, cfg.Endpoint, servicePlans(), strategies, func() time.Time { return time.Now() })
	if event.Phase == runtime.PhaseError {
		return fmt.Errorf("start failed (%s): %s", event.ErrorCode, event.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), event.Message)
	return nil
}
