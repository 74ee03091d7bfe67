package models

import (
	"fmt"
)

// StepDocument is the serialized form of a Step used by manual migration
// files. Only the fields relevant to Kind are set.
type StepDocument struct {
	Kind       StepKind      `json:"kind" yaml:"kind"`
	Column     string        `json:"column,omitempty" yaml:"column,omitempty"`
	OldName    string        `json:"old_name,omitempty" yaml:"old_name,omitempty"`
	NewName    string        `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	OldType    DataType      `json:"old_type,omitempty" yaml:"old_type,omitempty"`
	NewType    DataType      `json:"new_type,omitempty" yaml:"new_type,omitempty"`
	Constraint Constraint    `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Default    *string       `json:"default,omitempty" yaml:"default,omitempty"`
	Definition *ColumnSchema `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// MigrationDocument is the serialized form of a Migration.
type MigrationDocument struct {
	Table string         `json:"table" yaml:"table"`
	Steps []StepDocument `json:"steps" yaml:"steps"`
}

func NewMigrationDocument(m *Migration) MigrationDocument {
	doc := MigrationDocument{Table: m.Table, Steps: make([]StepDocument, 0, len(m.Steps))}
	for _, s := range m.Steps {
		doc.Steps = append(doc.Steps, NewStepDocument(s))
	}
	return doc
}

func NewStepDocument(s Step) StepDocument {
	doc := StepDocument{Kind: s.Kind()}
	switch s := s.(type) {
	case AddColumn:
		col := s.Column.Clone()
		doc.Column = col.Name
		doc.Definition = &col
	case DropColumn:
		doc.Column = s.ColumnName
	case RenameColumn:
		doc.OldName = s.OldName
		doc.NewName = s.NewName
	case RetypeColumn:
		doc.Column = s.ColumnName
		doc.OldType = s.OldType
		doc.NewType = s.NewType
	case AddConstraint:
		doc.Column = s.ColumnName
		doc.Constraint = s.Constraint
	case RemoveConstraint:
		doc.Column = s.ColumnName
		doc.Constraint = s.Constraint
	case ChangeDefault:
		doc.Column = s.ColumnName
		doc.Default = s.NewDefault
	}
	return doc
}

// ToMigration converts the document back into a Migration. Steps keep the
// order they were written in; the applier sorts them.
func (d MigrationDocument) ToMigration() (*Migration, error) {
	m := &Migration{Table: d.Table, Steps: make([]Step, 0, len(d.Steps))}
	for i, doc := range d.Steps {
		s, err := doc.ToStep()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		m.Steps = append(m.Steps, s)
	}
	return m, nil
}

func (d StepDocument) ToStep() (Step, error) {
	switch d.Kind {
	case KindAddColumn:
		if d.Definition == nil {
			return nil, fmt.Errorf("%w: %s requires a definition", ErrInvalidStep, d.Kind)
		}
		col := d.Definition.Clone()
		if col.Name == "" {
			col.Name = d.Column
		}
		if err := ValidateColumns([]ColumnSchema{col}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		return AddColumn{Column: col}, nil
	case KindDropColumn:
		if err := d.requireColumn(); err != nil {
			return nil, err
		}
		return DropColumn{ColumnName: d.Column}, nil
	case KindRenameColumn:
		if d.OldName == "" || d.NewName == "" {
			return nil, fmt.Errorf("%w: %s requires old_name and new_name", ErrInvalidStep, d.Kind)
		}
		return RenameColumn{OldName: d.OldName, NewName: d.NewName}, nil
	case KindRetypeColumn:
		if err := d.requireColumn(); err != nil {
			return nil, err
		}
		if !d.NewType.Valid() {
			return nil, fmt.Errorf("%w: unknown new_type %q", ErrInvalidStep, d.NewType)
		}
		if d.OldType != "" && !d.OldType.Valid() {
			return nil, fmt.Errorf("%w: unknown old_type %q", ErrInvalidStep, d.OldType)
		}
		return RetypeColumn{ColumnName: d.Column, OldType: d.OldType, NewType: d.NewType}, nil
	case KindAddConstraint, KindRemoveConstraint:
		if err := d.requireColumn(); err != nil {
			return nil, err
		}
		c, err := ParseConstraint(string(d.Constraint))
		if err != nil {
			return nil, err
		}
		if d.Kind == KindAddConstraint {
			return AddConstraint{ColumnName: d.Column, Constraint: c}, nil
		}
		return RemoveConstraint{ColumnName: d.Column, Constraint: c}, nil
	case KindChangeDefault:
		if err := d.requireColumn(); err != nil {
			return nil, err
		}
		return ChangeDefault{ColumnName: d.Column, NewDefault: d.Default}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidStep, d.Kind)
}

func (d StepDocument) requireColumn() error {
	if d.Column == "" {
		return fmt.Errorf("%w: %s requires a column", ErrInvalidStep, d.Kind)
	}
	return nil
}
