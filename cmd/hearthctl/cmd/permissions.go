package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/audit"
	"github.com/hearthcore/hearth/internal/diffutil"
	"github.com/hearthcore/hearth/internal/policy"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Inspect and edit the permission policy",
}

var permissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every scope's current mode",
	RunE:  runPermissionsList,
}

var permissionsCheckCmd = &cobra.Command{
	Use:   "check <scope>",
	Short: "Report whether an action against a scope is currently permitted",
	Args:  cobra.ExactArgs(1),
	RunE:  runPermissionsCheck,
}

var permissionsSetCmd = &cobra.Command{
	Use:   "set <scope> <allow|ask|deny>",
	Short: "Set a scope's mode",
	Args:  cobra.ExactArgs(2),
	RunE:  runPermissionsSet,
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.AddCommand(permissionsListCmd, permissionsCheckCmd, permissionsSetCmd)
}

func runPermissionsList(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	pol, err := newPolicy(dir)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	scopes := pol.List()
	names := make([]string, 0, len(scopes))
	for s := range scopes {
		names = append(names, string(s))
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", name, scopes[policy.Scope(name)])
	}
	return nil
}

func runPermissionsCheck(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	pol, err := newPolicy(dir)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	result := pol.Check(policy.Scope(args[0]))
	fmt.Fprintf(cmd.OutOrStdout(), "allowed=%t requiresPrompt=%t %s\n", result.Allowed, result.RequiresPrompt, result.Message)
	return nil
}

func runPermissionsSet(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	pol, err := newPolicy(dir)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	before, after, err := pol.Set(policy.Scope(args[0]), policy.Mode(args[1]))
	if err != nil {
		return fmt.Errorf("set policy: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", args[0], args[1])

	if before == after {
		return nil
	}
	diff, err := diffutil.Unified("policy.json", before, after)
	if err != nil {
		return fmt.Errorf("diff policy change: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), diff)

	log, err := newAuditLog(dir)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	additions, deletions := diffutil.CountChanges(diff)
	return log.Append(audit.Event{
		Level:  audit.LevelInfo,
		Code:   "policy_scope_changed",
		Family: audit.FamilyOther,
		Scope:  args[0],
		Meta:   map[string]interface{}{"mode": args[1], "diff": diff, "diffAdditions": additions, "diffDeletions": deletions},
	})
}
