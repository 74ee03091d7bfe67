package pwdantic

import (
	"reflect"

	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
)

type (
	ColumnSchema  = models.ColumnSchema
	DataType      = models.DataType
	Constraint    = models.Constraint
	Migration     = models.Migration
	MigrationPlan = models.MigrationPlan
	Step          = models.Step
	StepVisitor   = models.StepVisitor
	TableSnapshot = models.TableSnapshot

	AddColumn        = models.AddColumn
	DropColumn       = models.DropColumn
	RenameColumn     = models.RenameColumn
	RetypeColumn     = models.RetypeColumn
	AddConstraint    = models.AddConstraint
	RemoveConstraint = models.RemoveConstraint
	ChangeDefault    = models.ChangeDefault

	MigrationDocument = models.MigrationDocument
	StepDocument      = models.StepDocument

	MigrationManager      = migrations.MigrationManager
	MigrationResult       = migrations.MigrationResult
	InvalidMigrationError = migrations.InvalidMigrationError
)

const (
	TypeInteger  = models.TypeInteger
	TypeDateTime = models.TypeDateTime
	TypeString   = models.TypeString
	TypeNumber   = models.TypeNumber
	TypeBoolean  = models.TypeBoolean
	TypeBytes    = models.TypeBytes

	ConstraintPrimary  = models.ConstraintPrimary
	ConstraintNullable = models.ConstraintNullable
	ConstraintUnique   = models.ConstraintUnique
)

var (
	ErrInvalidType                   = models.ErrInvalidType
	ErrInvalidSchema                 = models.ErrInvalidSchema
	ErrInvalidStep                   = models.ErrInvalidStep
	ErrInvalidMigration              = migrations.ErrInvalidMigration
	ErrDestructiveMigrationNotForced = migrations.ErrDestructiveMigrationNotForced
)

// GenerateMigration returns the steps that turn the original columns of
// table into target.
func GenerateMigration(table string, original, target []ColumnSchema) *Migration {
	return migrations.GenerateMigration(table, original, target)
}

// ApplyMigration replays m over original without touching a database.
func ApplyMigration(original []ColumnSchema, m *Migration) ([]ColumnSchema, error) {
	return migrations.ApplyMigration(original, m)
}

func PlanMigration(original []ColumnSchema, m *Migration) (*MigrationPlan, error) {
	return migrations.PlanMigration(original, m)
}

func NewMigration(table string, steps ...Step) *Migration {
	return models.NewMigration(table, steps...)
}

// ExtractColumns returns the column schema of entity's type.
func ExtractColumns(entity any, opts BindOptions) ([]ColumnSchema, error) {
	model, err := models.NewEntityModel(reflect.TypeOf(entity), opts)
	if err != nil {
		return nil, err
	}
	return model.Columns(), nil
}
