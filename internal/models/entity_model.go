package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// Naming turns Go identifiers into table and column names. The ORM layer
// configures gorm with the same strategy so that both agree.
var Naming = schema.NamingStrategy{SingularTable: true}

var (
	timeType  = reflect.TypeOf(time.Time{})
	uuidType  = reflect.TypeOf(uuid.UUID{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// BindOptions overrides what struct tags declare, mirroring the arguments
// of a model bind call.
type BindOptions struct {
	Table      string
	PrimaryKey string
	Unique     []string
}

type EntityModel struct {
	Name       string
	TableName  string
	Type       reflect.Type
	Fields     []FieldModel
	PrimaryKey string
}

type FieldModel struct {
	Name   string
	Index  []int
	Tags   map[string]string
	Column ColumnSchema
}

// Columns returns the column snapshot described by the model.
func (e *EntityModel) Columns() []ColumnSchema {
	cols := make([]ColumnSchema, 0, len(e.Fields))
	for _, f := range e.Fields {
		cols = append(cols, f.Column.Clone())
	}
	return cols
}

// Field looks a field up by its column name.
func (e *EntityModel) Field(column string) (FieldModel, bool) {
	for _, f := range e.Fields {
		if f.Column.Name == column {
			return f, true
		}
	}
	return FieldModel{}, false
}

func NewEntityModel(entityType reflect.Type, opts BindOptions) (*EntityModel, error) {
	if entityType == nil {
		return nil, fmt.Errorf("%w: nil entity type", ErrInvalidType)
	}
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}
	if entityType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidType, entityType)
	}

	entity := &EntityModel{
		Name:      entityType.Name(),
		TableName: opts.Table,
		Type:      entityType,
	}
	if entity.TableName == "" {
		entity.TableName = Naming.TableName(entityType.Name())
	}

	unique := make(map[string]bool, len(opts.Unique))
	for _, name := range opts.Unique {
		unique[name] = true
	}

	pkBound := false
	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		if field.PkgPath != "" {
			continue
		}

		fieldModel, skip, err := parseFieldModel(field)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", entity.Name, field.Name, err)
		}
		if skip {
			continue
		}
		fieldModel.Index = []int{i}

		col := &fieldModel.Column
		if opts.PrimaryKey != "" {
			col.PrimaryKey = col.Name == opts.PrimaryKey || field.Name == opts.PrimaryKey
			pkBound = pkBound || col.PrimaryKey
		}
		if unique[col.Name] || unique[field.Name] {
			col.Unique = true
		}
		if col.PrimaryKey {
			col.Nullable = false
			entity.PrimaryKey = col.Name
		}

		entity.Fields = append(entity.Fields, fieldModel)
	}

	if opts.PrimaryKey != "" && !pkBound {
		return nil, fmt.Errorf("entity %s: %w: primary key %q matches no field", entity.Name, ErrInvalidSchema, opts.PrimaryKey)
	}
	if err := ValidateColumns(entity.Columns()); err != nil {
		return nil, fmt.Errorf("entity %s: %w", entity.Name, err)
	}
	return entity, nil
}

func parseFieldModel(field reflect.StructField) (FieldModel, bool, error) {
	tags := make(map[string]string)
	if tag := field.Tag.Get("gorm"); tag != "" {
		parseTags(tag, tags)
	}
	if tag := field.Tag.Get("pwdantic"); tag != "" {
		if tag == "-" {
			return FieldModel{}, true, nil
		}
		parseTags(tag, tags)
	}
	if _, ok := tags["-"]; ok {
		return FieldModel{}, true, nil
	}

	dataType, nullable, err := MapGoType(field.Type)
	if err != nil {
		return FieldModel{}, false, err
	}

	col := ColumnSchema{
		Name:     Naming.ColumnName("", field.Name),
		DataType: dataType,
		Nullable: nullable,
	}
	if name, ok := tags["column"]; ok && name != "" {
		col.Name = name
	}
	if hasTag(tags, "primary_key", "primarykey") {
		col.PrimaryKey = true
	}
	if hasTag(tags, "unique", "uniqueindex") {
		col.Unique = true
	}
	if hasTag(tags, "not_null", "not null") {
		col.Nullable = false
	}
	if def, ok := tags["default"]; ok {
		col.Default = &def
	}

	return FieldModel{Name: field.Name, Tags: tags, Column: col}, false, nil
}

// MapGoType maps a Go field type onto a column data type. Pointers are
// nullable; types with no column representation fail with ErrInvalidType.
func MapGoType(t reflect.Type) (DataType, bool, error) {
	nullable := false
	if t.Kind() == reflect.Ptr {
		nullable = true
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return TypeDateTime, nullable, nil
	case t == uuidType:
		return TypeString, nullable, nil
	case t == bytesType || (t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8):
		return TypeBytes, true, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger, nullable, nil
	case reflect.Float32, reflect.Float64:
		return TypeNumber, nullable, nil
	case reflect.Bool:
		return TypeBoolean, nullable, nil
	case reflect.String:
		return TypeString, nullable, nil
	}
	return "", false, fmt.Errorf("%w: unsupported field type %s", ErrInvalidType, t)
}

// parseTags splits "a;b:c" style tags. Keys are lower-cased so that gorm's
// camel-case keys and the snake-case keys compare equal.
func parseTags(tagStr string, tags map[string]string) {
	parts := strings.Split(tagStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, ":") {
			kv := strings.SplitN(part, ":", 2)
			tags[strings.ToLower(strings.TrimSpace(kv[0]))] = kv[1]
		} else {
			tags[strings.ToLower(part)] = ""
		}
	}
}

func hasTag(tags map[string]string, keys ...string) bool {
	for _, key := range keys {
		if _, ok := tags[key]; ok {
			return true
		}
	}
	return false
}
