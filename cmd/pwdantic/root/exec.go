package root

import (
	"github.com/spf13/cobra"

	"github.com/Graph3x/pwdantic/cmd/pwdantic/shared"
	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
)

var ExecFlags struct { //nolint:gochecknoglobals
	Force *bool
}

var execCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "exec MIGRATION",
	Short: "Run a hand-written migration document against the database",
	Long: shared.CLIHelp(`
Runs the steps of a migration document, as written by "pwdantic diff --out",
against the table it names. The steps are validated against the live columns
before anything is executed. Destructive migrations need "--force".
	`),
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

		migration, err := shared.ReadMigration(args[0])
		if err != nil {
			return err
		}

		db, driver, closeDB, err := shared.OpenDB()
		if err != nil {
			return err
		}
		defer closeDB()

		manager := migrations.NewMigrationManager(db, driver, mlogger)
		plan, err := manager.Execute(cmd.Context(), migration, *ExecFlags.Force)
		if err != nil {
			return err
		}
		if dir := shared.State.Snapshots().Value(); dir != "" {
			if err := models.NewTableSnapshot(plan.Table, plan.Result).Save(dir); err != nil {
				return err
			}
		}
		slogger.Info("done", "table", plan.Table, "steps", len(plan.Steps))
		return nil
	},
}

func init() { //nolint:gochecknoinits
	ExecFlags.Force = execCmd.Flags().Bool("force", false, "allow migrations that can lose data")
}
