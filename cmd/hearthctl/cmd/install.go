package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/policy"
	"github.com/hearthcore/hearth/internal/privileged"
	"github.com/hearthcore/hearth/internal/runtime"
)

var installYes bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the local model runtime",
	Long: `Install installs the local model runtime (ollama) via the best available
privileged-execution strategy for this host: a configured privileged helper,
pkexec with a desktop consent prompt, or non-interactive sudo.`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "skip the confirmation prompt")
}

func runInstall(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}

	pol, err := newPolicy(dir)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	check := pol.Check(policy.ScopeRuntimeInstall)
	if !check.Allowed && !check.RequiresPrompt {
		return fmt.Errorf("install denied by policy: %s", check.Message)
	}
	if check.RequiresPrompt && !installYes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\nRe-run with --yes to proceed.\n", check.Message)
		return nil
	}

	logger := newLogger()
	p := newProbe()
	helper := p.ProbeHelperStatus(context.Background(), "")
	strategy := privileged.SelectStrategy(selectionInputFrom(helper, true, helper.Capabilities != nil))
	logger.Debug("selected privileged-execution strategy", "strategy", strategy, "agentLevel", helper.AgentLevel)
	if strategy == privileged.StrategyFailure {
		return fmt.Errorf("no privileged-execution strategy available on this host")
	}

	plan := privileged.Plan{{ShellCommand: "curl -fsSL https://ollama.com/install.sh | sh"}}
	executor := newExecutor(p, "")
	orch := newRuntimeOrchestrator(p, "")

	onEvent := func(e runtime.ProgressEvent) {
		if e.Percent != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %.0f%% %s\n", e.Phase, *e.Percent, e.Message)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", e.Phase, e.Message)
	}

	final := orch.Install(context.Background(), executor, strategy, plan, true, onEvent, nil)
	if final.Phase == runtime.PhaseError {
		return fmt.Errorf("install failed (%s): %s", final.ErrorCode, final.Message)
	}
	return nil
}
