package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/manifest"
	"github.com/hearthcore/hearth/internal/procexec"
	"github.com/hearthcore/hearth/internal/registry"
	"github.com/hearthcore/hearth/internal/update"
	"github.com/hearthcore/hearth/internal/update/applier"
	"github.com/hearthcore/hearth/internal/update/postapply"
	"github.com/hearthcore/hearth/internal/version"
)

// reexecSelf relaunches the current executable with its original arguments,
// used as the RelaunchApplier fallback for an update artifact that is
// neither an AppImage nor a .deb.
func reexecSelf() error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	c := exec.Command(self, os.Args[1:]...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Start()
}

var (
	updateOwner   string
	updateRepo    string
	updateChannel string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check, download, and apply application updates",
}

var updateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configured provider for a newer compatible release",
	RunE:  runUpdateCheck,
}

var updateDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the available update's selected artifact",
	RunE:  runUpdateDownload,
}

var updateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the staged update artifact",
	RunE:  runUpdateApply,
}

var updateRollbackStatusCmd = &cobra.Command{
	Use:   "rollback-status",
	Short: "Report the post-apply boot validation status, if an attempt is pending",
	RunE:  runUpdateRollbackStatus,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.AddCommand(updateCheckCmd, updateDownloadCmd, updateApplyCmd, updateRollbackStatusCmd)

	updateCmd.PersistentFlags().StringVar(&updateOwner, "owner", "hearthcore", "release provider owner/org")
	updateCmd.PersistentFlags().StringVar(&updateRepo, "repo", "hearth", "release provider repository")
	updateCmd.PersistentFlags().StringVar(&updateChannel, "channel", "stable", "update channel")
}

func statePath(dir string) string {
	return filepath.Join(dir, "update-state.json")
}

func attemptPath(dir string) string {
	return filepath.Join(dir, "post-apply-attempt.json")
}

func newStateMachine(dir string) *update.StateMachine {
	client := registry.NewClient("")
	provider := manifest.NewGitHubProvider(client, updateOwner, updateRepo)
	opts := manifest.DiscoverOptions{
		Channel:  updateChannel,
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
		PackagePreference: []manifest.PackageType{
			manifest.PackageTypeAppImage,
			manifest.PackageTypeDeb,
		},
	}
	compat := update.CompatibilityInput{
		IPCBridgeAvailable:    true,
		UserDataSchemaVersion: 1,
	}
	downloader := update.NewArtifactDownloader(client, filepath.Join(dir, "updates", "downloads"))
	return update.New(statePath(dir), provider, opts, newSchemaRegistry(), compat, downloader.Download)
}

func runUpdateCheck(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	sm := newStateMachine(dir)
	st, err := sm.Check(context.Background())
	if err != nil {
		return fmt.Errorf("check for updates: %w", err)
	}
	return printUpdateState(cmd, st)
}

func runUpdateDownload(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	sm := newStateMachine(dir)
	st, err := sm.Download()
	if err != nil {
		return fmt.Errorf("download update: %w", err)
	}
	return printUpdateState(cmd, st)
}

func runUpdateApply(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	sm := newStateMachine(dir)
	st, err := sm.Load()
	if err != nil {
		return fmt.Errorf("load update state: %w", err)
	}
	if st.Phase != update.PhaseStaged {
		return fmt.Errorf("no staged update to apply (phase: %s)", st.Phase)
	}

	auditLog, err := newAuditLog(dir)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	coord := postapply.New(attemptPath(dir), auditLog, nil, nil, postapply.Config{
		BootHealthyHandshakeRequired: true,
		UpdatesDownloadsDir:          filepath.Join(dir, "updates", "downloads"),
	})
	if err := coord.RecordAttempt(postapply.Attempt{
		PreviousVersion: version.Get(),
		TargetVersion:   st.StagedVersion,
		Mode:            modeFor(st.StagedArtifactPath),
		RollbackDebPath: rollbackDebPath(st),
	}); err != nil {
		return fmt.Errorf("record apply attempt: %w", err)
	}

	a := applier.Select(st.StagedArtifactPath, nil, nil, procexec.NewRunner(nil, nil), nil, reexecSelf)
	outcome := a.Apply(context.Background(), st.StagedArtifactPath)
	if !outcome.Succeeded {
		if _, applyErr := sm.ApplyFailed(outcome.ErrorCode, outcome.Message); applyErr != nil {
			return fmt.Errorf("apply failed (%s): %s; additionally failed to record the failure: %w", outcome.ErrorCode, outcome.Message, applyErr)
		}
		return fmt.Errorf("apply failed (%s): %s", outcome.ErrorCode, outcome.Message)
	}

	fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
	if outcome.Exit {
		os.Exit(0)
	}
	return nil
}

func runUpdateRollbackStatus(cmd *cobra.Command, args []string) error {
	dir, err := appDir()
	if err != nil {
		return fmt.Errorf("resolve app dir: %w", err)
	}
	auditLog, err := newAuditLog(dir)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	coord := postapply.New(attemptPath(dir), auditLog, nil, nil, postapply.Config{
		BootHealthyHandshakeRequired: true,
	})
	status, err := coord.StartValidation(version.Get())
	if err != nil {
		return fmt.Errorf("start validation: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), status)
	return nil
}

func modeFor(artifactPath string) postapply.Mode {
	switch filepath.Ext(artifactPath) {
	case ".appimage", ".AppImage":
		return postapply.ModeAppImage
	case ".deb":
		return postapply.ModeDeb
	default:
		return postapply.ModeRelaunch
	}
}

func rollbackDebPath(st *update.State) string {
	if filepath.Ext(st.StagedArtifactPath) == ".deb" {
		return st.StagedArtifactPath
	}
	return ""
}

func printUpdateState(cmd *cobra.Command, st *update.State) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}
	if st.Phase == update.PhaseError {
		return fmt.Errorf("update pipeline in error state: %s", st.LastErrorCode)
	}
	return nil
}

