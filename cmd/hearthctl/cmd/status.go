package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/config"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report local runtime reachability and binary/helper state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit machine-readable JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	cfg, err := config.Load(dir, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	orch := newRuntimeOrchestrator(newProbe(), "")
	st, err := orch.Status(context.Background(), cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "endpoint:        %s (%s)\n", cfg.Endpoint, st.EndpointClass)
	fmt.Fprintf(cmd.OutOrStdout(), "reachable:       %t\n", st.EndpointReachable)
	fmt.Fprintf(cmd.OutOrStdout(), "installed models: %d\n", st.InstalledModels)
	fmt.Fprintf(cmd.OutOrStdout(), "binary found:    %t (%s)\n", st.BinaryFound, st.BinaryPath)
	fmt.Fprintf(cmd.OutOrStdout(), "helper:          configured=%t available=%t agent=%s\n",
		st.Helper.Configured, st.Helper.Available, st.Helper.AgentLevel)
	return nil
}
