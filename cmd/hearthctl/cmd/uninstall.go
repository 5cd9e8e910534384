package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/privileged"
	"github.com/hearthcore/hearth/internal/uninstall"
)

var (
	uninstallPurge               bool
	uninstallRemoveUserData      bool
	uninstallRemoveRuntimeSystem bool
	uninstallRemoveRuntimeData   bool
	uninstallToken               string
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the application and, optionally, its data and the local runtime",
	Long: `Uninstall requires the exact confirmation token to be echoed back via
--confirm, guarding against an accidental invocation ever reaching a
destructive action.`,
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolVar(&uninstallPurge, "purge", false, "also remove config shipped by the package manager")
	uninstallCmd.Flags().BoolVar(&uninstallRemoveUserData, "remove-user-data", false, "remove local application data")
	uninstallCmd.Flags().BoolVar(&uninstallRemoveRuntimeSystem, "remove-runtime", false, "also remove the local model runtime package")
	uninstallCmd.Flags().BoolVar(&uninstallRemoveRuntimeData, "remove-runtime-data", false, "also remove the runtime's downloaded models")
	uninstallCmd.Flags().StringVar(&uninstallToken, "confirm", "", "confirmation token, exactly: "+uninstall.ConfirmationToken)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	if uninstallToken != uninstall.ConfirmationToken {
		return fmt.Errorf("refusing to uninstall: pass --confirm %s to proceed", uninstall.ConfirmationToken)
	}

	guardCfg, err := newGuardConfig(dir)
	if err != nil {
		return fmt.Errorf("load guard config: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home dir: %w", err)
	}

	p := newProbe()
	executor := newExecutor(p, "")
	orch := uninstall.NewOrchestrator(executor, guardCfg, guardRegistry(), home, "hearth", nil)

	mode := uninstall.PackageModeRemove
	if uninstallPurge {
		mode = uninstall.PackageModePurge
	}

	req := uninstall.Request{
		PackageMode:           mode,
		RemoveUserData:        uninstallRemoveUserData,
		RemoveRuntimeSystem:   uninstallRemoveRuntimeSystem,
		RemoveRuntimeUserData: uninstallRemoveRuntimeData,
		ConfirmationToken:     uninstallToken,
	}

	helper := p.ProbeHelperStatus(context.Background(), "")
	strategy := privileged.SelectStrategy(selectionInputFrom(helper, true, helper.Capabilities != nil))

	result := orch.Run(context.Background(), strategy, req)
	if result.ErrorCode != "" {
		return fmt.Errorf("uninstall failed (%s): %v", result.ErrorCode, result.Warnings)
	}

	for _, step := range result.Performed {
		fmt.Fprintln(cmd.OutOrStdout(), "done:", step)
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(cmd.OutOrStdout(), "warning:", w)
	}
	for _, n := range result.NextSteps {
		fmt.Fprintln(cmd.OutOrStdout(), "next:", n)
	}
	return nil
}
