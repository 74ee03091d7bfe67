package drivers

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/models"
)

// DatabaseDriver translates column schemas and migration plans to and from
// one storage engine's dialect.
type DatabaseDriver interface {
	Name() string
	Connect(connectionString string, logLevel string) (*gorm.DB, error)
	GetSQLDB(db *gorm.DB) (*sql.DB, error)

	MapDataType(dataType models.DataType) string
	ParseDataType(sqlType string) (models.DataType, error)

	TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error)
	ReadColumns(ctx context.Context, db *gorm.DB, table string) ([]models.ColumnSchema, error)

	CreateTableSQL(table string, columns []models.ColumnSchema) string
	DropTableSQL(table string) string
	MigrationSQL(plan *models.MigrationPlan) ([]string, error)
}

// ColumnInfo is one row of a driver's schema information query.
type ColumnInfo struct {
	Name         string
	DataType     string
	IsNullable   bool
	IsPrimary    bool
	IsUnique     bool
	DefaultValue *string
}

// Names lists every driver name DriverFor accepts.
var Names = []string{"sqlite", "sqlite3", "postgres", "postgresql", "mysql"} //nolint:gochecknoglobals

// DriverFor returns the driver registered under name.
func DriverFor(name string) (DatabaseDriver, error) {
	switch name {
	case "postgres", "postgresql":
		return NewPostgreSQLDriver(), nil
	case "mysql":
		return NewMySQLDriver(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDriver(), nil
	}
	return nil, fmt.Errorf("unsupported driver: %s", name)
}

// toColumns converts schema information rows into column schemas using the
// driver's type mapping.
func toColumns(d DatabaseDriver, infos []ColumnInfo) ([]models.ColumnSchema, error) {
	cols := make([]models.ColumnSchema, 0, len(infos))
	for _, info := range infos {
		dataType, err := d.ParseDataType(info.DataType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", info.Name, err)
		}
		cols = append(cols, models.ColumnSchema{
			Name:       info.Name,
			DataType:   dataType,
			Nullable:   info.IsNullable && !info.IsPrimary,
			Default:    info.DefaultValue,
			PrimaryKey: info.IsPrimary,
			Unique:     info.IsUnique,
		})
	}
	return cols, nil
}
