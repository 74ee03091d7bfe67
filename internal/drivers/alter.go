package drivers

import (
	"fmt"

	"github.com/Graph3x/pwdantic/internal/models"
)

// alterDialect renders the column changes that differ between engines that
// support ALTER TABLE for every step kind.
type alterDialect interface {
	base() dialect
	retype(table string, before, after models.ColumnSchema) []string
	setDefault(table string, after models.ColumnSchema) []string
	setNullable(table string, after models.ColumnSchema) []string
	setUnique(table string, col models.ColumnSchema, on bool) []string
	dropPrimaryKey(table string, col models.ColumnSchema) []string
	addPrimaryKey(table string, col models.ColumnSchema) []string
}

// alterRenderer turns a migration plan into ALTER TABLE statements, one
// step at a time. Steps whose column is absent render nothing, matching
// the applier.
type alterRenderer struct {
	dialect    alterDialect
	plan       *models.MigrationPlan
	current    models.AppliedStep
	statements []string
	pkRendered bool
}

var _ models.StepVisitor = (*alterRenderer)(nil)

func renderAlterSQL(d alterDialect, plan *models.MigrationPlan) ([]string, error) {
	r := &alterRenderer{dialect: d, plan: plan}
	for _, applied := range plan.Steps {
		r.current = applied
		if err := applied.Step.Accept(r); err != nil {
			return nil, err
		}
	}
	return r.statements, nil
}

func (r *alterRenderer) table() string {
	return r.dialect.base().ident(r.plan.Table)
}

func (r *alterRenderer) emit(statements ...string) {
	r.statements = append(r.statements, statements...)
}

func (r *alterRenderer) before(name string) (models.ColumnSchema, bool) {
	if i := models.FindColumn(r.current.Before, name); i >= 0 {
		return r.current.Before[i], true
	}
	return models.ColumnSchema{}, false
}

func (r *alterRenderer) after(name string) (models.ColumnSchema, bool) {
	if i := models.FindColumn(r.current.After, name); i >= 0 {
		return r.current.After[i], true
	}
	return models.ColumnSchema{}, false
}

func (r *alterRenderer) VisitAddColumn(s models.AddColumn) error {
	d := r.dialect.base()
	r.emit(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", r.table(), d.columnDefinition(s.Column, false)))
	if s.Column.PrimaryKey {
		r.emit(r.dialect.addPrimaryKey(r.plan.Table, s.Column)...)
	} else if s.Column.Unique {
		r.emit(r.dialect.setUnique(r.plan.Table, s.Column, true)...)
	}
	return nil
}

func (r *alterRenderer) VisitDropColumn(s models.DropColumn) error {
	if _, ok := r.before(s.ColumnName); !ok {
		return nil
	}
	d := r.dialect.base()
	r.emit(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", r.table(), d.ident(s.ColumnName)))
	return nil
}

func (r *alterRenderer) VisitRenameColumn(s models.RenameColumn) error {
	if _, ok := r.before(s.OldName); !ok {
		return nil
	}
	d := r.dialect.base()
	r.emit(fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", r.table(), d.ident(s.OldName), d.ident(s.NewName)))
	return nil
}

func (r *alterRenderer) VisitRetypeColumn(s models.RetypeColumn) error {
	before, ok := r.before(s.ColumnName)
	if !ok {
		return nil
	}
	after, _ := r.after(s.ColumnName)
	r.emit(r.dialect.retype(r.plan.Table, before, after)...)
	return nil
}

func (r *alterRenderer) VisitChangeDefault(s models.ChangeDefault) error {
	if after, ok := r.after(s.ColumnName); ok {
		r.emit(r.dialect.setDefault(r.plan.Table, after)...)
	}
	return nil
}

func (r *alterRenderer) VisitAddConstraint(s models.AddConstraint) error {
	return r.constraint(s.ColumnName, s.Constraint, true)
}

func (r *alterRenderer) VisitRemoveConstraint(s models.RemoveConstraint) error {
	return r.constraint(s.ColumnName, s.Constraint, false)
}

func (r *alterRenderer) constraint(column string, c models.Constraint, on bool) error {
	after, ok := r.after(column)
	if !ok {
		return nil
	}
	switch c {
	case models.ConstraintNullable:
		r.emit(r.dialect.setNullable(r.plan.Table, after)...)
	case models.ConstraintUnique:
		r.emit(r.dialect.setUnique(r.plan.Table, after, on)...)
	case models.ConstraintPrimary:
		return r.transferPrimaryKey()
	}
	return nil
}

// transferPrimaryKey renders the whole primary key move when the first step
// of the pair is reached: the old key is dropped before the new one is
// added, whatever order the pair came in.
func (r *alterRenderer) transferPrimaryKey() error {
	if r.pkRendered {
		return nil
	}
	r.pkRendered = true

	var from, to *models.AppliedStep
	for i := range r.plan.Steps {
		switch r.plan.Steps[i].Step.(type) {
		case models.RemoveConstraint:
			if isPrimary(r.plan.Steps[i].Step) {
				from = &r.plan.Steps[i]
			}
		case models.AddConstraint:
			if isPrimary(r.plan.Steps[i].Step) {
				to = &r.plan.Steps[i]
			}
		}
	}
	if from == nil || to == nil {
		return fmt.Errorf("primary key of %s must be moved with a remove and an add step", r.plan.Table)
	}

	fromCol := from.Step.(models.RemoveConstraint).ColumnName
	toCol := to.Step.(models.AddConstraint).ColumnName
	if i := models.FindColumn(from.Before, fromCol); i >= 0 {
		r.emit(r.dialect.dropPrimaryKey(r.plan.Table, from.Before[i])...)
	}
	if i := models.FindColumn(to.After, toCol); i >= 0 {
		r.emit(r.dialect.addPrimaryKey(r.plan.Table, to.After[i])...)
	}
	return nil
}

func isPrimary(s models.Step) bool {
	switch s := s.(type) {
	case models.AddConstraint:
		return s.Constraint == models.ConstraintPrimary
	case models.RemoveConstraint:
		return s.Constraint == models.ConstraintPrimary
	}
	return false
}
