package migrations_test

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
)

func TestApplyMigrationRejectsUnpairedPrimaryKey(t *testing.T) {
	t.Parallel()
	for _, step := range []models.Step{
		models.AddConstraint{ColumnName: "unq_string", Constraint: models.ConstraintPrimary},
		models.RemoveConstraint{ColumnName: "pk", Constraint: models.ConstraintPrimary},
	} {
		result, err := migrations.ApplyMigration(originalColumns(), models.NewMigration("migration_test", step))
		assert.Error(t, err)
		check.True(t, errors.Is(err, migrations.ErrInvalidMigration))
		check.True(t, result == nil)

		var invalid *migrations.InvalidMigrationError
		check.True(t, errors.As(err, &invalid))
		check.Equal(t, "migration_test", invalid.Table)
		check.Equal(t, step, invalid.Step)
	}
}

func TestApplyMigrationRejectsDoublePrimaryKeyRemoval(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("t",
		models.AddConstraint{ColumnName: "a", Constraint: models.ConstraintPrimary},
		models.RemoveConstraint{ColumnName: "b", Constraint: models.ConstraintPrimary},
		models.RemoveConstraint{ColumnName: "c", Constraint: models.ConstraintPrimary},
	)
	_, err := migrations.ApplyMigration(nil, m)
	check.True(t, errors.Is(err, migrations.ErrInvalidMigration))
}

func TestApplyMigrationMovesPrimaryKey(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("migration_test",
		models.AddConstraint{ColumnName: "unq_string", Constraint: models.ConstraintPrimary},
		models.RemoveConstraint{ColumnName: "pk", Constraint: models.ConstraintPrimary},
	)
	result, err := migrations.ApplyMigration(originalColumns(), m)
	assert.Nil(t, err)
	pk, ok := models.PrimaryKeyColumn(result)
	check.True(t, ok)
	check.Equal(t, "unq_string", pk)

	primaries := 0
	for _, col := range result {
		if col.PrimaryKey {
			primaries++
		}
	}
	check.Equal(t, 1, primaries)
}

func TestApplyManualMigration(t *testing.T) {
	t.Parallel()
	original := originalColumns()
	m := models.NewMigration("migration_test",
		models.RenameColumn{OldName: "nullable_int", NewName: "the_same_int"},
		models.RenameColumn{OldName: "modify_me", NewName: "i_am_modified"},
		models.AddConstraint{ColumnName: "modify_me", Constraint: models.ConstraintNullable},
		models.RemoveConstraint{ColumnName: "modify_me", Constraint: models.ConstraintUnique},
		models.AddColumn{Column: models.ColumnSchema{
			Name:     "new_col",
			DataType: models.TypeString,
			Nullable: true,
			Default:  models.StringPtr("default"),
		}},
	)
	check.Equal(t, false, m.IsDestructive())

	result, err := migrations.ApplyMigration(original, m)
	assert.Nil(t, err)
	check.Equal(t, []models.ColumnSchema{
		{Name: "pk", DataType: models.TypeInteger, PrimaryKey: true},
		{Name: "unq_string", DataType: models.TypeString, Unique: true, Default: models.StringPtr("asdf")},
		{Name: "the_same_int", DataType: models.TypeInteger, Nullable: true},
		{Name: "i_am_modified", DataType: models.TypeInteger, Nullable: true},
		{Name: "new_col", DataType: models.TypeString, Nullable: true, Default: models.StringPtr("default")},
	}, result)

	// Constraint steps run before renames, so they still see the old name.
	check.Equal(t, models.KindAddColumn, m.Steps[0].Kind())
	check.Equal(t, models.KindRenameColumn, m.Steps[3].Kind())
	check.Equal(t, originalColumns(), original)
}

func TestApplyMigrationChangesDefaultsBeforeAddingColumns(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("t",
		models.AddColumn{Column: models.ColumnSchema{Name: "x", DataType: models.TypeString}},
		models.ChangeDefault{ColumnName: "x", NewDefault: models.StringPtr("d")},
	)
	result, err := migrations.ApplyMigration(nil, m)
	assert.Nil(t, err)

	kinds := make([]models.StepKind, 0, len(m.Steps))
	for _, step := range m.Steps {
		kinds = append(kinds, step.Kind())
	}
	check.Equal(t, []models.StepKind{models.KindChangeDefault, models.KindAddColumn}, kinds)
	check.Equal(t, []models.ColumnSchema{{Name: "x", DataType: models.TypeString}}, result)
	check.True(t, result[0].Default == nil)
}

func TestApplyMigrationIgnoresAbsentColumns(t *testing.T) {
	t.Parallel()
	original := originalColumns()
	m := models.NewMigration("migration_test",
		models.DropColumn{ColumnName: "missing"},
		models.RenameColumn{OldName: "missing", NewName: "found"},
		models.RetypeColumn{ColumnName: "missing", NewType: models.TypeBytes},
		models.AddConstraint{ColumnName: "missing", Constraint: models.ConstraintUnique},
		models.ChangeDefault{ColumnName: "missing", NewDefault: models.StringPtr("x")},
	)
	result, err := migrations.ApplyMigration(original, m)
	assert.Nil(t, err)
	check.Equal(t, original, result)
}

func TestApplyMigrationDoesNotShareDefaults(t *testing.T) {
	t.Parallel()
	original := originalColumns()
	def := "changed"
	m := models.NewMigration("migration_test", models.ChangeDefault{ColumnName: "unq_string", NewDefault: &def})
	result, err := migrations.ApplyMigration(original, m)
	assert.Nil(t, err)
	def = "mutated"
	check.Equal(t, "changed", *result[1].Default)
	check.Equal(t, "asdf", *original[1].Default)

	*result[1].Default = "again"
	check.Equal(t, "asdf", *original[1].Default)
}

func TestPlanMigrationRecordsEveryStep(t *testing.T) {
	t.Parallel()
	m := migrations.GenerateMigration("migration_test", originalColumns(), targetColumns())
	plan, err := migrations.PlanMigration(originalColumns(), m)
	assert.Nil(t, err)
	check.Equal(t, "migration_test", plan.Table)
	check.Equal(t, originalColumns(), plan.Original)
	check.Equal(t, targetColumns(), plan.Result)
	check.Equal(t, m.Len(), len(plan.Steps))
	check.Equal(t, plan.Original, plan.Steps[0].Before)
	check.Equal(t, plan.Result, plan.Steps[len(plan.Steps)-1].After)
	for i := 1; i < len(plan.Steps); i++ {
		check.Equal(t, plan.Steps[i-1].After, plan.Steps[i].Before)
	}
	check.Equal(t, map[string]string{
		"pk":           "pk",
		"unq_string":   "unq_string",
		"the_same_int": "nullable_int",
	}, plan.Origins())
}
