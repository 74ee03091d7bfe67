package models

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidStep is returned when a step description cannot be turned into
// a migration step.
var ErrInvalidStep = errors.New("invalid migration step")

// StepKind names a migration step variant.
type StepKind string

const (
	KindAddColumn        StepKind = "add_column"
	KindDropColumn       StepKind = "drop_column"
	KindRenameColumn     StepKind = "rename_column"
	KindRetypeColumn     StepKind = "retype_column"
	KindAddConstraint    StepKind = "add_constraint"
	KindRemoveConstraint StepKind = "remove_constraint"
	KindChangeDefault    StepKind = "change_default"
)

// Sort phases. Steps run in ascending phase order; ties keep their order.
const (
	PhaseUnclassified = 0
	PhaseAdd          = 1
	PhaseAlter        = 3
	PhaseDrop         = 4
	PhaseRename       = 5
)

// Step is one operation of a migration. The set of implementations is
// closed: every variant satisfies the unexported marker and must be handled
// by each StepVisitor.
type Step interface {
	Kind() StepKind
	Destructive() bool
	Phase() int
	Accept(StepVisitor) error
	String() string
	step()
}

// StepVisitor dispatches over the step variants.
type StepVisitor interface {
	VisitAddColumn(AddColumn) error
	VisitDropColumn(DropColumn) error
	VisitRenameColumn(RenameColumn) error
	VisitRetypeColumn(RetypeColumn) error
	VisitAddConstraint(AddConstraint) error
	VisitRemoveConstraint(RemoveConstraint) error
	VisitChangeDefault(ChangeDefault) error
}

type AddColumn struct {
	Column ColumnSchema
}

func (s AddColumn) Kind() StepKind { return KindAddColumn }
func (s AddColumn) Destructive() bool { return false }
func (s AddColumn) Phase() int { return PhaseAdd }
func (s AddColumn) Accept(v StepVisitor) error { return v.VisitAddColumn(s) }
func (s AddColumn) String() string { return "ADD " + s.Column.Name }
func (AddColumn) step() {}

type DropColumn struct {
	ColumnName string
}

func (s DropColumn) Kind() StepKind { return KindDropColumn }
func (s DropColumn) Destructive() bool { return true }
func (s DropColumn) Phase() int { return PhaseDrop }
func (s DropColumn) Accept(v StepVisitor) error { return v.VisitDropColumn(s) }
func (s DropColumn) String() string { return "DROP " + s.ColumnName }
func (DropColumn) step() {}

type RenameColumn struct {
	OldName string
	NewName string
}

func (s RenameColumn) Kind() StepKind { return KindRenameColumn }
func (s RenameColumn) Destructive() bool { return false }
func (s RenameColumn) Phase() int { return PhaseRename }
func (s RenameColumn) Accept(v StepVisitor) error { return v.VisitRenameColumn(s) }
func (s RenameColumn) String() string {
	return fmt.Sprintf("RENAME %s to %s", s.OldName, s.NewName)
}
func (RenameColumn) step() {}

type RetypeColumn struct {
	ColumnName string
	OldType    DataType
	NewType    DataType
}

func (s RetypeColumn) Kind() StepKind { return KindRetypeColumn }
func (s RetypeColumn) Destructive() bool { return true }
func (s RetypeColumn) Phase() int { return PhaseAlter }
func (s RetypeColumn) Accept(v StepVisitor) error { return v.VisitRetypeColumn(s) }
func (s RetypeColumn) String() string {
	return fmt.Sprintf("RETYPE %s from %s to %s", s.ColumnName, s.OldType, s.NewType)
}
func (RetypeColumn) step() {}

// AddConstraint turns a constraint on. Only a primary key change is
// destructive.
type AddConstraint struct {
	ColumnName string
	Constraint Constraint
}

func (s AddConstraint) Kind() StepKind { return KindAddConstraint }
func (s AddConstraint) Destructive() bool { return s.Constraint == ConstraintPrimary }
func (s AddConstraint) Phase() int { return PhaseAlter }
func (s AddConstraint) Accept(v StepVisitor) error { return v.VisitAddConstraint(s) }
func (s AddConstraint) String() string {
	return fmt.Sprintf("ADD %s to %s", s.Constraint, s.ColumnName)
}
func (AddConstraint) step() {}

type RemoveConstraint struct {
	ColumnName string
	Constraint Constraint
}

func (s RemoveConstraint) Kind() StepKind { return KindRemoveConstraint }
func (s RemoveConstraint) Destructive() bool { return s.Constraint == ConstraintPrimary }
func (s RemoveConstraint) Phase() int { return PhaseAlter }
func (s RemoveConstraint) Accept(v StepVisitor) error { return v.VisitRemoveConstraint(s) }
func (s RemoveConstraint) String() string {
	return fmt.Sprintf("REMOVE %s from %s", s.Constraint, s.ColumnName)
}
func (RemoveConstraint) step() {}

// ChangeDefault sets a new default; a nil NewDefault drops it. It has no
// dedicated phase and runs with unclassified steps, before AddColumn.
type ChangeDefault struct {
	ColumnName string
	NewDefault *string
}

func (s ChangeDefault) Kind() StepKind { return KindChangeDefault }
func (s ChangeDefault) Destructive() bool { return false }
func (s ChangeDefault) Phase() int { return PhaseUnclassified }
func (s ChangeDefault) Accept(v StepVisitor) error { return v.VisitChangeDefault(s) }
func (s ChangeDefault) String() string {
	if s.NewDefault == nil {
		return fmt.Sprintf("DEFAULT %s to NULL", s.ColumnName)
	}
	return fmt.Sprintf("DEFAULT %s to %s", s.ColumnName, *s.NewDefault)
}
func (ChangeDefault) step() {}

// Migration is an ordered list of steps against one table.
//
// A Migration is owned by a single logical operation: Sort reorders Steps
// in place, so the value must not be shared between goroutines while it is
// being generated, sorted or applied.
type Migration struct {
	Table string
	Steps []Step
}

func NewMigration(table string, steps ...Step) *Migration {
	return &Migration{Table: table, Steps: steps}
}

// IsDestructive reports whether any step can lose data. It is recomputed
// from Steps on every call.
func (m *Migration) IsDestructive() bool {
	for _, s := range m.Steps {
		if s.Destructive() {
			return true
		}
	}
	return false
}

// Sort stably reorders Steps in place by phase.
func (m *Migration) Sort() {
	sort.SliceStable(m.Steps, func(i, j int) bool {
		return m.Steps[i].Phase() < m.Steps[j].Phase()
	})
}

func (m *Migration) Len() int {
	return len(m.Steps)
}

// CountSteps returns how many steps satisfy match.
func (m *Migration) CountSteps(match func(Step) bool) int {
	n := 0
	for _, s := range m.Steps {
		if match(s) {
			n++
		}
	}
	return n
}

// AppliedStep records the column list before and after one step.
type AppliedStep struct {
	Step   Step
	Before []ColumnSchema
	After  []ColumnSchema
}

// MigrationPlan is the full trace of applying a migration to a column list.
// Storage drivers render SQL from it.
type MigrationPlan struct {
	Table    string
	Original []ColumnSchema
	Result   []ColumnSchema
	Steps    []AppliedStep
}

// Origins maps every column of Result to the name it had in Original.
// Columns added by the migration are absent.
func (p *MigrationPlan) Origins() map[string]string {
	origin := make(map[string]string, len(p.Original))
	for _, col := range p.Original {
		origin[col.Name] = col.Name
	}
	for _, applied := range p.Steps {
		switch s := applied.Step.(type) {
		case AddColumn:
			delete(origin, s.Column.Name)
		case DropColumn:
			if FindColumn(applied.Before, s.ColumnName) >= 0 {
				delete(origin, s.ColumnName)
			}
		case RenameColumn:
			if src, ok := origin[s.OldName]; ok && FindColumn(applied.Before, s.OldName) >= 0 {
				delete(origin, s.OldName)
				origin[s.NewName] = src
			}
		}
	}
	return origin
}
