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

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Restart the local model runtime, falling back to start",
	RunE:  runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
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

	event := orch.Repair(context.Background(), executor, cfg.Endpoint, restartPlans(), servicePlans(), strategies, func() time.Time { return time.Now() })
	if event.Phase == runtime.PhaseError {
		return fmt.Errorf("repair failed (%s): %s", event.ErrorCode, event.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), event.Message)
	return nil
}
