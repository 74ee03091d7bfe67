package root

import (
	"github.com/spf13/cobra"

	"github.com/Graph3x/pwdantic/cmd/pwdantic/shared"
	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
)

var ApplyFlags struct { //nolint:gochecknoglobals
	Out *string
}

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "apply SNAPSHOT MIGRATION",
	Short: "Replay a migration document over a column snapshot",
	Long: shared.CLIHelp(`
Applies the steps of a migration document to a column snapshot without
touching any database, and prints the resulting columns as a table snapshot.

The steps are sorted into their application order first. A migration that
moves the primary key must both remove it from one column and add it to
another; anything else is rejected.
	`),
	Example: `pwdantic apply old.yaml migration.yaml
pwdantic apply old.json migration.json --out new.json`,
	GroupID:          "offline",
	TraverseChildren: true,
	Args:             cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shared.State.Parse(); err != nil {
			return err
		}
		logger, _, err := shared.State.Logger()
		if err != nil {
			return err
		}

		original, err := shared.ReadSnapshot(args[0])
		if err != nil {
			return err
		}
		migration, err := shared.ReadMigration(args[1])
		if err != nil {
			return err
		}

		result, err := migrations.ApplyMigration(original.Columns, migration)
		if err != nil {
			return err
		}
		logger.Info("applied",
			"table", migration.Table,
			"steps", migration.Len(),
			"columns", len(result),
		)
		return shared.Write(cmd.OutOrStdout(), *ApplyFlags.Out, models.NewTableSnapshot(migration.Table, result))
	},
}

func init() { //nolint:gochecknoinits
	ApplyFlags.Out = applyCmd.Flags().StringP("out", "o", "-", "write the resulting snapshot to this file, '-' for stdout")
}
