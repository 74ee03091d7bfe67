package migrations

import (
	"fmt"

	"github.com/Graph3x/pwdantic/internal/models"
)

// ApplyMigration replays m onto a copy of original and returns the resulting
// columns. The caller's columns are never modified, but m is sorted in place.
//
// Application is all-or-nothing: on error no columns are returned.
func ApplyMigration(original []models.ColumnSchema, m *models.Migration) ([]models.ColumnSchema, error) {
	plan, err := PlanMigration(original, m)
	if err != nil {
		return nil, err
	}
	return plan.Result, nil
}

// PlanMigration is ApplyMigration that also records the column list around
// every step, for storage drivers that render SQL step by step.
func PlanMigration(original []models.ColumnSchema, m *models.Migration) (*models.MigrationPlan, error) {
	m.Sort()

	a := &applier{
		migration: m,
		columns:   models.CloneColumns(original),
	}
	plan := &models.MigrationPlan{
		Table:    m.Table,
		Original: models.CloneColumns(original),
		Steps:    make([]models.AppliedStep, 0, len(m.Steps)),
	}

	for _, step := range m.Steps {
		before := models.CloneColumns(a.columns)
		if err := step.Accept(a); err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, models.AppliedStep{
			Step:   step,
			Before: before,
			After:  models.CloneColumns(a.columns),
		})
	}

	plan.Result = a.columns
	return plan, nil
}

// applier folds steps over a working column list. Steps naming a column
// that does not exist are no-ops.
type applier struct {
	migration *models.Migration
	columns   []models.ColumnSchema
}

var _ models.StepVisitor = (*applier)(nil)

func (a *applier) VisitAddColumn(s models.AddColumn) error {
	a.columns = append(a.columns, s.Column.Clone())
	return nil
}

func (a *applier) VisitDropColumn(s models.DropColumn) error {
	if i := models.FindColumn(a.columns, s.ColumnName); i >= 0 {
		a.columns = append(a.columns[:i], a.columns[i+1:]...)
	}
	return nil
}

func (a *applier) VisitRenameColumn(s models.RenameColumn) error {
	a.update(s.OldName, func(col *models.ColumnSchema) { col.Name = s.NewName })
	return nil
}

func (a *applier) VisitRetypeColumn(s models.RetypeColumn) error {
	a.update(s.ColumnName, func(col *models.ColumnSchema) { col.DataType = s.NewType })
	return nil
}

func (a *applier) VisitChangeDefault(s models.ChangeDefault) error {
	a.update(s.ColumnName, func(col *models.ColumnSchema) {
		col.Default = nil
		if s.NewDefault != nil {
			col.Default = models.StringPtr(*s.NewDefault)
		}
	})
	return nil
}

func (a *applier) VisitAddConstraint(s models.AddConstraint) error {
	if s.Constraint == models.ConstraintPrimary {
		if err := a.requirePair(s, models.KindRemoveConstraint); err != nil {
			return err
		}
	}
	return a.setConstraint(s.ColumnName, s.Constraint, true)
}

func (a *applier) VisitRemoveConstraint(s models.RemoveConstraint) error {
	if s.Constraint == models.ConstraintPrimary {
		if err := a.requirePair(s, models.KindAddConstraint); err != nil {
			return err
		}
	}
	return a.setConstraint(s.ColumnName, s.Constraint, false)
}

// requirePair enforces that a primary key is only ever moved: the
// migration must contain exactly one primary key step of the opposite kind.
func (a *applier) requirePair(step models.Step, pairKind models.StepKind) error {
	pairs := a.migration.CountSteps(func(other models.Step) bool {
		return other.Kind() == pairKind && isPrimaryStep(other)
	})
	if pairs != 1 {
		return &InvalidMigrationError{
			Table:  a.migration.Table,
			Step:   step,
			Reason: fmt.Sprintf("primary key changes must be paired with exactly one %s step, found %d", pairKind, pairs),
		}
	}
	return nil
}

func (a *applier) setConstraint(column string, c models.Constraint, on bool) error {
	a.update(column, func(col *models.ColumnSchema) {
		switch c {
		case models.ConstraintNullable:
			col.Nullable = on
		case models.ConstraintUnique:
			col.Unique = on
		case models.ConstraintPrimary:
			col.PrimaryKey = on
		}
	})
	return nil
}

func (a *applier) update(column string, fn func(*models.ColumnSchema)) {
	if i := models.FindColumn(a.columns, column); i >= 0 {
		fn(&a.columns[i])
	}
}

func isPrimaryStep(s models.Step) bool {
	switch s := s.(type) {
	case models.AddConstraint:
		return s.Constraint == models.ConstraintPrimary
	case models.RemoveConstraint:
		return s.Constraint == models.ConstraintPrimary
	}
	return false
}
