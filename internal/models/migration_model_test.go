package models_test

import (
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/Graph3x/pwdantic/internal/models"
)

func TestSortOrdersByPhase(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("t",
		models.RenameColumn{OldName: "a", NewName: "b"},
		models.DropColumn{ColumnName: "c"},
		models.RemoveConstraint{ColumnName: "d", Constraint: models.ConstraintUnique},
		models.AddConstraint{ColumnName: "e", Constraint: models.ConstraintNullable},
		models.RetypeColumn{ColumnName: "f", OldType: models.TypeInteger, NewType: models.TypeString},
		models.AddColumn{Column: models.ColumnSchema{Name: "g", DataType: models.TypeInteger}},
		models.ChangeDefault{ColumnName: "h", NewDefault: models.StringPtr("1")},
	)
	m.Sort()

	var kinds []models.StepKind
	for _, s := range m.Steps {
		kinds = append(kinds, s.Kind())
	}
	check.Equal(t, []models.StepKind{
		models.KindChangeDefault,
		models.KindAddColumn,
		// equal phases keep their input order
		models.KindRemoveConstraint,
		models.KindAddConstraint,
		models.KindRetypeColumn,
		models.KindDropColumn,
		models.KindRenameColumn,
	}, kinds)
}

func TestSortIsStable(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("t",
		models.DropColumn{ColumnName: "z"},
		models.AddColumn{Column: models.ColumnSchema{Name: "b", DataType: models.TypeInteger}},
		models.DropColumn{ColumnName: "y"},
		models.AddColumn{Column: models.ColumnSchema{Name: "a", DataType: models.TypeInteger}},
	)
	m.Sort()
	check.Equal(t, []models.Step{
		models.AddColumn{Column: models.ColumnSchema{Name: "b", DataType: models.TypeInteger}},
		models.AddColumn{Column: models.ColumnSchema{Name: "a", DataType: models.TypeInteger}},
		models.DropColumn{ColumnName: "z"},
		models.DropColumn{ColumnName: "y"},
	}, m.Steps)
}

func TestIsDestructive(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("t",
		models.RenameColumn{OldName: "a", NewName: "b"},
		models.ChangeDefault{ColumnName: "b"},
		models.AddConstraint{ColumnName: "b", Constraint: models.ConstraintUnique},
		models.AddColumn{Column: models.ColumnSchema{Name: "c", DataType: models.TypeString}},
	)
	check.Equal(t, false, m.IsDestructive())

	m.Steps = append(m.Steps, models.DropColumn{ColumnName: "d"})
	check.True(t, m.IsDestructive())

	for _, s := range []models.Step{
		models.RetypeColumn{ColumnName: "a", NewType: models.TypeString},
		models.AddConstraint{ColumnName: "a", Constraint: models.ConstraintPrimary},
		models.RemoveConstraint{ColumnName: "a", Constraint: models.ConstraintPrimary},
	} {
		check.True(t, models.NewMigration("t", s).IsDestructive())
	}
	check.Equal(t, false, models.NewMigration("t").IsDestructive())
}

func TestStepStrings(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		step     models.Step
		expected string
	}{
		{models.AddColumn{Column: models.ColumnSchema{Name: "a"}}, "ADD a"},
		{models.DropColumn{ColumnName: "a"}, "DROP a"},
		{models.RenameColumn{OldName: "a", NewName: "b"}, "RENAME a to b"},
		{models.RetypeColumn{ColumnName: "a", OldType: models.TypeInteger, NewType: models.TypeString}, "RETYPE a from integer to string"},
		{models.AddConstraint{ColumnName: "a", Constraint: models.ConstraintUnique}, "ADD unique to a"},
		{models.RemoveConstraint{ColumnName: "a", Constraint: models.ConstraintNullable}, "REMOVE nullable from a"},
		{models.ChangeDefault{ColumnName: "a", NewDefault: models.StringPtr("x")}, "DEFAULT a to x"},
		{models.ChangeDefault{ColumnName: "a"}, "DEFAULT a to NULL"},
	} {
		check.Equal(t, tc.expected, tc.step.String())
	}
}

func TestCountSteps(t *testing.T) {
	t.Parallel()
	m := models.NewMigration("t",
		models.AddConstraint{ColumnName: "a", Constraint: models.ConstraintPrimary},
		models.AddConstraint{ColumnName: "b", Constraint: models.ConstraintUnique},
		models.RemoveConstraint{ColumnName: "c", Constraint: models.ConstraintPrimary},
	)
	n := m.CountSteps(func(s models.Step) bool { return s.Kind() == models.KindAddConstraint })
	check.Equal(t, 2, n)
	check.Equal(t, 3, m.Len())
}

func TestOriginsFollowRenames(t *testing.T) {
	t.Parallel()
	id := models.ColumnSchema{Name: "id", DataType: models.TypeInteger, PrimaryKey: true}
	a := models.ColumnSchema{Name: "a", DataType: models.TypeString}
	b := models.ColumnSchema{Name: "b", DataType: models.TypeString}
	renamed := a
	renamed.Name = "c"
	added := models.ColumnSchema{Name: "d", DataType: models.TypeInteger}

	plan := &models.MigrationPlan{
		Table:    "t",
		Original: []models.ColumnSchema{id, a, b},
		Result:   []models.ColumnSchema{id, renamed, added},
		Steps: []models.AppliedStep{
			{
				Step:   models.AddColumn{Column: added},
				Before: []models.ColumnSchema{id, a, b},
				After:  []models.ColumnSchema{id, a, b, added},
			},
			{
				Step:   models.DropColumn{ColumnName: "b"},
				Before: []models.ColumnSchema{id, a, b, added},
				After:  []models.ColumnSchema{id, a, added},
			},
			{
				Step:   models.RenameColumn{OldName: "a", NewName: "c"},
				Before: []models.ColumnSchema{id, a, added},
				After:  []models.ColumnSchema{id, renamed, added},
			},
		},
	}
	check.Equal(t, map[string]string{"id": "id", "c": "a"}, plan.Origins())
}
