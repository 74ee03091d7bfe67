package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Graph3x/pwdantic/cmd/pwdantic/shared"
)

var Command = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "pwdantic",
	Short: "diff, replay and apply table schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf(`invalid command: "%s"`, args[0])
		}
		return cmd.Help()
	},
}

func init() { //nolint:gochecknoinits
	Command.CompletionOptions.HiddenDefaultCmd = true
	Command.TraverseChildren = true
	Command.SilenceErrors = true
	Command.SilenceUsage = true

	shared.State.Flags.LogFormat = Command.PersistentFlags().StringP(
		"log-format",
		"l",
		"",
		fmt.Sprintf("[PWDANTIC_LOG_FORMAT] '%s' or '%s', the log line format", shared.LogFormatText, shared.LogFormatJSON),
	)
	shared.State.Flags.Database = Command.PersistentFlags().StringP(
		"database",
		"d",
		"",
		"[DATABASE_URL] a connection string for the driver",
	)
	shared.State.Flags.Driver = Command.PersistentFlags().String(
		"driver",
		"",
		"[PWDANTIC_DRIVER] 'sqlite', 'postgres' or 'mysql'",
	)
	shared.State.Flags.ConfigFile = Command.PersistentFlags().StringP(
		"configfile",
		"f",
		"",
		"[PWDANTIC_CONFIGFILE] a path to a configuration file",
	)
	shared.State.Flags.Snapshots = Command.PersistentFlags().StringP(
		"snapshots",
		"s",
		"",
		"[PWDANTIC_SNAPSHOTS] a directory to save table snapshots in after migrating",
	)
	shared.State.Flags.SQLLogLevel = Command.PersistentFlags().String(
		"sql-log-level",
		"",
		"[PWDANTIC_SQL_LOG_LEVEL] 'silent', 'error', 'warn' or 'info'",
	)
	_ = Command.MarkPersistentFlagDirname("snapshots")

	Command.AddGroup(
		&cobra.Group{
			ID:    "offline",
			Title: "Offline:",
		},
		&cobra.Group{
			ID:    "migrating",
			Title: "Migrating:",
		},
		&cobra.Group{
			ID:    "dev",
			Title: "Development:",
		},
	)

	// offline
	Command.AddCommand(diffCmd)
	Command.AddCommand(applyCmd)

	// migrating
	Command.AddCommand(migrateCmd)
	Command.AddCommand(execCmd)

	// dev
	Command.AddCommand(configCmd)
	Command.SetHelpCommandGroupID("dev")
}
