package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Graph3x/pwdantic/cmd/pwdantic/shared"
	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
)

var DiffFlags struct { //nolint:gochecknoglobals
	Table *string
	Out   *string
}

var diffCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "diff OLD NEW",
	Short: "Print the migration between two column snapshots",
	Long: shared.CLIHelp(`
Compares two column snapshots and prints the steps that migrate a table from
OLD to NEW, one per line, in the order they would be applied.

A snapshot file is either a table snapshot saved by "pwdantic migrate" or a
plain list of columns. Files ending in .json are read as JSON, everything else
as YAML:

    - name: id
      type: integer
      primary_key: true
    - name: name
      type: string
      default: anonymous

Columns that only changed their name are detected as renames when exactly one
column of the old snapshot has the same shape. Pass "--out" to save the
migration as a document that "pwdantic apply" and "pwdantic exec" can read.
	`),
	Example: `pwdantic diff --table hero old.yaml new.yaml
pwdantic diff old.json new.json --out migration.yaml`,
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
		target, err := shared.ReadSnapshot(args[1])
		if err != nil {
			return err
		}
		table := shared.NewVariable("table", *DiffFlags.Table, target.Table, original.Table)
		if err := shared.Validate(table); err != nil {
			return err
		}

		migration := migrations.GenerateMigration(table.Value(), original.Columns, target.Columns)
		for _, step := range migration.Steps {
			fmt.Fprintln(cmd.OutOrStdout(), step)
		}
		logger.Info("diff",
			"table", migration.Table,
			"steps", migration.Len(),
			"destructive", migration.IsDestructive(),
		)

		if *DiffFlags.Out != "" {
			return shared.Write(cmd.OutOrStdout(), *DiffFlags.Out, models.NewMigrationDocument(migration))
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits
	DiffFlags.Table = diffCmd.Flags().StringP("table", "t", "", "the table the snapshots describe")
	DiffFlags.Out = diffCmd.Flags().StringP("out", "o", "", "write the migration document to this file, '-' for stdout")
}
