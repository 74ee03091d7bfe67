package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidType is returned when a schema shape cannot be mapped onto
	// one of the supported column data types.
	ErrInvalidType = errors.New("invalid types in your schema")
	// ErrInvalidSchema is returned by ValidateColumns for malformed snapshots.
	ErrInvalidSchema = errors.New("invalid column schema")
)

type DataType string

const (
	TypeInteger  DataType = "integer"
	TypeDateTime DataType = "date-time"
	TypeString   DataType = "string"
	TypeNumber   DataType = "number"
	TypeBoolean  DataType = "boolean"
	TypeBytes    DataType = "bytes"
)

// DataTypes lists every supported column type.
var DataTypes = []DataType{TypeInteger, TypeDateTime, TypeString, TypeNumber, TypeBoolean, TypeBytes}

func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: unknown data type %q", ErrInvalidType, s)
}

func (dt DataType) Valid() bool {
	_, err := ParseDataType(string(dt))
	return err == nil
}

type Constraint string

const (
	ConstraintPrimary  Constraint = "primary"
	ConstraintNullable Constraint = "nullable"
	ConstraintUnique   Constraint = "unique"
)

func ParseConstraint(s string) (Constraint, error) {
	switch c := Constraint(s); c {
	case ConstraintPrimary, ConstraintNullable, ConstraintUnique:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown constraint %q", ErrInvalidStep, s)
}

// ColumnSchema describes one table column. Values are treated as immutable
// once handed to the differ or applier; both work on copies.
type ColumnSchema struct {
	Name       string   `json:"name" yaml:"name"`
	DataType   DataType `json:"type" yaml:"type"`
	Nullable   bool     `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Default    *string  `json:"default,omitempty" yaml:"default,omitempty"`
	PrimaryKey bool     `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique     bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Signature is the structural fingerprint of a column. Two columns with
// equal signatures are interchangeable up to their name.
type Signature struct {
	DataType   DataType
	Nullable   bool
	HasDefault bool
	Default    string
	PrimaryKey bool
	Unique     bool
}

func (c ColumnSchema) Signature() Signature {
	sig := Signature{
		DataType:   c.DataType,
		Nullable:   c.Nullable,
		PrimaryKey: c.PrimaryKey,
		Unique:     c.Unique,
	}
	if c.Default != nil {
		sig.HasDefault = true
		sig.Default = *c.Default
	}
	return sig
}

// Clone returns a deep copy of the column.
func (c ColumnSchema) Clone() ColumnSchema {
	clone := c
	if c.Default != nil {
		d := *c.Default
		clone.Default = &d
	}
	return clone
}

func (c ColumnSchema) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(": ")
	if c.Nullable {
		sb.WriteString("nullable ")
	}
	if c.Unique {
		sb.WriteString("unique ")
	}
	if c.PrimaryKey {
		sb.WriteString("primary ")
	}
	sb.WriteString(string(c.DataType))
	if c.Default != nil {
		fmt.Fprintf(&sb, " (%s)", *c.Default)
	}
	return sb.String()
}

// CloneColumns deep-copies a column list.
func CloneColumns(columns []ColumnSchema) []ColumnSchema {
	if columns == nil {
		return nil
	}
	out := make([]ColumnSchema, len(columns))
	for i, col := range columns {
		out[i] = col.Clone()
	}
	return out
}

// FindColumn returns the index of the column called name, or -1.
func FindColumn(columns []ColumnSchema, name string) int {
	for i, col := range columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// ValidateColumns checks the invariants of a single snapshot: non-empty
// unique names, known data types and at most one primary key.
func ValidateColumns(columns []ColumnSchema) error {
	seen := make(map[string]bool, len(columns))
	var primary []string
	for _, col := range columns {
		if col.Name == "" {
			return fmt.Errorf("%w: column with empty name", ErrInvalidSchema)
		}
		if seen[col.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col.Name)
		}
		seen[col.Name] = true
		if !col.DataType.Valid() {
			return fmt.Errorf("%w: column %q has unknown data type %q", ErrInvalidType, col.Name, col.DataType)
		}
		if col.PrimaryKey {
			primary = append(primary, col.Name)
		}
	}
	if len(primary) > 1 {
		return fmt.Errorf("%w: composite primary keys are not supported (%s)", ErrInvalidSchema, strings.Join(primary, ", "))
	}
	return nil
}

// PrimaryKeyColumn returns the name of the primary key column, if any.
func PrimaryKeyColumn(columns []ColumnSchema) (string, bool) {
	for _, col := range columns {
		if col.PrimaryKey {
			return col.Name, true
		}
	}
	return "", false
}

// StringPtr is a helper for building optional defaults.
func StringPtr(s string) *string {
	return &s
}
