package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hearthcore/hearth/internal/version"
)

var (
	quietFlag   bool
	verboseFlag bool
	logLevel    = slog.LevelInfo

	rootCmd = &cobra.Command{
		Use:   "hearthctl",
		Short: "Operate the Hearth local runtime and update pipeline",
		Long: `hearthctl drives the parts of Hearth that run outside the desktop UI:
installing and starting the local model runtime, checking for and applying
application updates, managing the permission policy that gates privileged
actions, and exporting the audit log.`,
		Version: version.Get(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case quietFlag:
				logLevel = slog.LevelError
			case verboseFlag:
				logLevel = slog.LevelDebug
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress informational output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&appDirFlag, "app-dir", "", "override the application state directory (default: ~/.config/hearth)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetLogLevel returns the log level derived from the quiet/verbose flags.
func GetLogLevel() slog.Level {
	return logLevel
}
