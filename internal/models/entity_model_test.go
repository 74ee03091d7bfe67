package models_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/Graph3x/pwdantic/internal/models"
)

type migrationTestModelOld struct {
	Pk          *int64
	UnqString   string `pwdantic:"default:asdf"`
	NullableInt *int64
	ModifyMe    int64
}

type migrationTestModelNew struct {
	Pk         *int64
	UnqString  string
	TheSameInt *int64
	NewCol     *string `pwdantic:"default:default"`
}

func TestEntityModelColumns(t *testing.T) {
	t.Parallel()
	old, err := models.NewEntityModel(reflect.TypeOf(migrationTestModelOld{}), models.BindOptions{
		Table:      "migration_test",
		PrimaryKey: "pk",
		Unique:     []string{"unq_string", "modify_me"},
	})
	assert.Nil(t, err)
	check.Equal(t, "migration_test", old.TableName)
	check.Equal(t, "pk", old.PrimaryKey)
	check.Equal(t, []models.ColumnSchema{
		{Name: "pk", DataType: models.TypeInteger, PrimaryKey: true},
		{Name: "unq_string", DataType: models.TypeString, Unique: true, Default: models.StringPtr("asdf")},
		{Name: "nullable_int", DataType: models.TypeInteger, Nullable: true},
		{Name: "modify_me", DataType: models.TypeInteger, Unique: true},
	}, old.Columns())

	updated, err := models.NewEntityModel(reflect.TypeOf(&migrationTestModelNew{}), models.BindOptions{
		Table:      "migration_test",
		PrimaryKey: "unq_string",
		Unique:     []string{"pk"},
	})
	assert.Nil(t, err)
	check.Equal(t, "unq_string", updated.PrimaryKey)
	check.Equal(t, []models.ColumnSchema{
		{Name: "pk", DataType: models.TypeInteger, Nullable: true, Unique: true},
		{Name: "unq_string", DataType: models.TypeString, PrimaryKey: true},
		{Name: "the_same_int", DataType: models.TypeInteger, Nullable: true},
		{Name: "new_col", DataType: models.TypeString, Nullable: true, Default: models.StringPtr("default")},
	}, updated.Columns())
}

type hero struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `pwdantic:"column:hero_name;not_null"`
	SecretName string `gorm:"uniqueIndex"`
	Age        *int
	Rating     float64
	Active     bool
	Token      uuid.UUID
	Born       time.Time
	Avatar     []byte
	Scratch    string `pwdantic:"-"`
	internal   string
}

func TestEntityModelFromTags(t *testing.T) {
	t.Parallel()
	entity, err := models.NewEntityModel(reflect.TypeOf(hero{}), models.BindOptions{})
	assert.Nil(t, err)
	check.Equal(t, "hero", entity.TableName)
	check.Equal(t, "id", entity.PrimaryKey)
	check.Equal(t, []models.ColumnSchema{
		{Name: "id", DataType: models.TypeInteger, PrimaryKey: true},
		{Name: "hero_name", DataType: models.TypeString},
		{Name: "secret_name", DataType: models.TypeString, Unique: true},
		{Name: "age", DataType: models.TypeInteger, Nullable: true},
		{Name: "rating", DataType: models.TypeNumber},
		{Name: "active", DataType: models.TypeBoolean},
		{Name: "token", DataType: models.TypeString},
		{Name: "born", DataType: models.TypeDateTime},
		{Name: "avatar", DataType: models.TypeBytes, Nullable: true},
	}, entity.Columns())

	field, ok := entity.Field("hero_name")
	check.True(t, ok)
	check.Equal(t, "Name", field.Name)
	check.Equal(t, []int{1}, field.Index)
	_, ok = entity.Field("scratch")
	check.Equal(t, false, ok)
}

func TestEntityModelBindOptionsOverrideTags(t *testing.T) {
	t.Parallel()
	entity, err := models.NewEntityModel(reflect.TypeOf(hero{}), models.BindOptions{
		Table:      "heroes",
		PrimaryKey: "SecretName",
	})
	assert.Nil(t, err)
	check.Equal(t, "heroes", entity.TableName)
	check.Equal(t, "secret_name", entity.PrimaryKey)
	pk, ok := models.PrimaryKeyColumn(entity.Columns())
	check.True(t, ok)
	check.Equal(t, "secret_name", pk)
}

func TestEntityModelRejectsUnknownPrimaryKey(t *testing.T) {
	t.Parallel()
	for _, pk := range []string{"nickname", "secret"} {
		entity, err := models.NewEntityModel(reflect.TypeOf(hero{}), models.BindOptions{PrimaryKey: pk})
		assert.Error(t, err)
		check.True(t, errors.Is(err, models.ErrInvalidSchema))
		check.True(t, entity == nil)
	}
}

type badEntity struct {
	ID    int64
	Attrs map[string]string
}

func TestEntityModelRejectsUnsupportedTypes(t *testing.T) {
	t.Parallel()
	_, err := models.NewEntityModel(reflect.TypeOf(badEntity{}), models.BindOptions{})
	assert.Error(t, err)
	check.True(t, errors.Is(err, models.ErrInvalidType))

	_, err = models.NewEntityModel(reflect.TypeOf(42), models.BindOptions{})
	check.True(t, errors.Is(err, models.ErrInvalidType))

	_, err = models.NewEntityModel(nil, models.BindOptions{})
	check.True(t, errors.Is(err, models.ErrInvalidType))
}

func TestMapGoType(t *testing.T) {
	t.Parallel()
	var (
		i   int
		s   *string
		f   float32
		b   *bool
		u   uint8
		ts  *time.Time
		raw []byte
	)
	for _, tc := range []struct {
		value    any
		dataType models.DataType
		nullable bool
	}{
		{i, models.TypeInteger, false},
		{s, models.TypeString, true},
		{f, models.TypeNumber, false},
		{b, models.TypeBoolean, true},
		{u, models.TypeInteger, false},
		{ts, models.TypeDateTime, true},
		{raw, models.TypeBytes, true},
	} {
		dataType, nullable, err := models.MapGoType(reflect.TypeOf(tc.value))
		assert.Nil(t, err)
		check.Equal(t, tc.dataType, dataType)
		check.Equal(t, tc.nullable, nullable)
	}

	_, _, err := models.MapGoType(reflect.TypeOf([]string{}))
	check.True(t, errors.Is(err, models.ErrInvalidType))
}
