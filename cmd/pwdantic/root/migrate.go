package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Graph3x/pwdantic/cmd/pwdantic/shared"
	"github.com/Graph3x/pwdantic/internal/migrations"
)

var MigrateFlags struct { //nolint:gochecknoglobals
	Table  *string
	Force  *bool
	DryRun *bool
}

var migrateCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "migrate TARGET",
	Short: "Migrate a live table to the columns of a snapshot",
	Long: shared.CLIHelp(`
Brings a table in the configured database in line with the TARGET column
snapshot. A missing table is created. Otherwise the live columns are read back
from the database, diffed against TARGET, and the resulting migration is run in
a single transaction.

Migrations that drop or retype a column, or move the primary key, can lose
data. They are refused unless "--force" is passed.

With "--dry-run" the steps and the SQL they render to are printed and nothing
is executed.

If a snapshot directory is configured, a snapshot of the table is saved there
after a successful migration.
	`),
	Example: `pwdantic migrate --table hero hero.yaml
pwdantic migrate --table hero hero.yaml --dry-run
pwdantic migrate --table hero hero.yaml --force`,
	GroupID:          "migrating",
	TraverseChildren: true,
	Args:             cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shared.State.Parse(); err != nil {
			return err
		}
		slogger, mlogger, err := shared.State.Logger()
		if err != nil {
			return err
		}

		target, err := shared.ReadSnapshot(args[0])
		if err != nil {
			return err
		}
		table := shared.NewVariable("table", *MigrateFlags.Table, target.Table)
		if err := shared.Validate(table); err != nil {
			return err
		}

		db, driver, closeDB, err := shared.OpenDB()
		if err != nil {
			return err
		}
		defer closeDB()
		ctx := cmd.Context()

		if *MigrateFlags.DryRun {
			exists, err := driver.TableExists(ctx, db, table.Value())
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintln(cmd.OutOrStdout(), driver.CreateTableSQL(table.Value(), target.Columns))
				return nil
			}
			current, err := driver.ReadColumns(ctx, db, table.Value())
			if err != nil {
				return err
			}
			migration := migrations.GenerateMigration(table.Value(), current, target.Columns)
			plan, err := migrations.PlanMigration(current, migration)
			if err != nil {
				return err
			}
			statements, err := driver.MigrationSQL(plan)
			if err != nil {
				return err
			}
			for _, step := range plan.Steps {
				fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n", step.Step)
			}
			for _, statement := range statements {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", statement)
			}
			slogger.Info("dry run", "table", table.Value(), "steps", migration.Len(), "destructive", migration.IsDestructive())
			return nil
		}

		manager := migrations.NewMigrationManager(db, driver, mlogger)
		manager.SnapshotDir = shared.State.Snapshots().Value()
		result, err := manager.Migrate(ctx, table.Value(), target.Columns, *MigrateFlags.Force)
		if err != nil {
			return err
		}
		slogger.Info("done", "table", result.Table, "created", result.Created, "changed", result.Changed())
		return nil
	},
}

func init() { //nolint:gochecknoinits
	MigrateFlags.Table = migrateCmd.Flags().StringP("table", "t", "", "the table to migrate, defaults to the table of the snapshot")
	MigrateFlags.Force = migrateCmd.Flags().Bool("force", false, "allow migrations that can lose data")
	MigrateFlags.DryRun = migrateCmd.Flags().Bool("dry-run", false, "print the SQL instead of running it")
}
