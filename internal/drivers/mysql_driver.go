package drivers

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/models"
)

var mysqlDialect = dialect{
	name:  "mysql",
	quote: "`",
	types: map[models.DataType]string{
		models.TypeInteger:  "BIGINT",
		models.TypeDateTime: "DATETIME",
		// TEXT columns cannot carry an index without a prefix length.
		models.TypeString:  "VARCHAR(255)",
		models.TypeNumber:  "DOUBLE",
		models.TypeBoolean: "TINYINT(1)",
		models.TypeBytes:   "LONGBLOB",
	},
	primaryKeySuffix: "AUTO_INCREMENT",
}

var mysqlTypes = map[string]models.DataType{
	"bigint":    models.TypeInteger,
	"int":       models.TypeInteger,
	"integer":   models.TypeInteger,
	"smallint":  models.TypeInteger,
	"mediumint": models.TypeInteger,
	"datetime":  models.TypeDateTime,
	"timestamp": models.TypeDateTime,
	"varchar":   models.TypeString,
	"char":      models.TypeString,
	"text":      models.TypeString,
	"longtext":  models.TypeString,
	"double":    models.TypeNumber,
	"float":     models.TypeNumber,
	"decimal":   models.TypeNumber,
	"tinyint":   models.TypeBoolean,
	"blob":      models.TypeBytes,
	"longblob":  models.TypeBytes,
}

type MySQLDriver struct{}

func NewMySQLDriver() *MySQLDriver {
	return &MySQLDriver{}
}

func (m *MySQLDriver) Name() string {
	return "mysql"
}

func (m *MySQLDriver) Connect(connectionString string, logLevel string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(connectionString), &gorm.Config{
		NamingStrategy: models.Naming,
		Logger:         NewGormLogger(logLevel),
	})
}

func (m *MySQLDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (m *MySQLDriver) MapDataType(dataType models.DataType) string {
	return mysqlDialect.sqlType(dataType)
}

func (m *MySQLDriver) ParseDataType(sqlType string) (models.DataType, error) {
	return parseSQLType(m.Name(), sqlType, mysqlTypes)
}

func (m *MySQLDriver) TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE()",
		table,
	).Scan(&count).Error
	return count > 0, err
}

func (m *MySQLDriver) GetSchemaInformationQuery() string {
	return `
		SELECT
			c.COLUMN_NAME AS name,
			c.DATA_TYPE AS data_type,
			c.IS_NULLABLE = 'YES' AS is_nullable,
			c.COLUMN_KEY = 'PRI' AS is_primary,
			c.COLUMN_KEY = 'UNI' AS is_unique,
			c.COLUMN_DEFAULT AS default_value
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_NAME = ?
			AND c.TABLE_SCHEMA = DATABASE()
		ORDER BY c.ORDINAL_POSITION`
}

func (m *MySQLDriver) ReadColumns(ctx context.Context, db *gorm.DB, table string) ([]models.ColumnSchema, error) {
	rows, err := db.WithContext(ctx).Raw(m.GetSchemaInformationQuery(), table).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	var infos []ColumnInfo
	for rows.Next() {
		var info ColumnInfo
		if err := rows.Scan(&info.Name, &info.DataType, &info.IsNullable, &info.IsPrimary, &info.IsUnique, &info.DefaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan schema of %s: %w", table, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return toColumns(m, infos)
}

func (m *MySQLDriver) CreateTableSQL(table string, columns []models.ColumnSchema) string {
	return mysqlDialect.createTableSQL(table, columns)
}

func (m *MySQLDriver) DropTableSQL(table string) string {
	return mysqlDialect.dropTableSQL(table)
}

func (m *MySQLDriver) MigrationSQL(plan *models.MigrationPlan) ([]string, error) {
	return renderAlterSQL(mysqlAlter{}, plan)
}

type mysqlAlter struct{}

func (mysqlAlter) base() dialect { return mysqlDialect }

// modify restates the full column definition, which is how MySQL changes a
// column's type or nullability.
func (mysqlAlter) modify(table string, col models.ColumnSchema) string {
	d := mysqlDialect
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", d.ident(table), d.columnDefinition(col, false))
}

func (a mysqlAlter) retype(table string, _, after models.ColumnSchema) []string {
	return []string{a.modify(table, after)}
}

func (mysqlAlter) setDefault(table string, after models.ColumnSchema) []string {
	d := mysqlDialect
	if after.Default == nil {
		return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", d.ident(table), d.ident(after.Name))}
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
		d.ident(table), d.ident(after.Name), defaultLiteral(after.DataType, *after.Default))}
}

func (a mysqlAlter) setNullable(table string, after models.ColumnSchema) []string {
	return []string{a.modify(table, after)}
}

func (mysqlAlter) setUnique(table string, col models.ColumnSchema, on bool) []string {
	d := mysqlDialect
	if on {
		return []string{fmt.Sprintf("ALTER TABLE %s ADD UNIQUE INDEX %s (%s)", d.ident(table), d.ident(col.Name), d.ident(col.Name))}
	}
	return []string{fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", d.ident(table), d.ident(col.Name))}
}

// dropPrimaryKey first restates the column without AUTO_INCREMENT, which
// MySQL only allows on a key column.
func (a mysqlAlter) dropPrimaryKey(table string, col models.ColumnSchema) []string {
	col.PrimaryKey = false
	return []string{
		a.modify(table, col),
		fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", mysqlDialect.ident(table)),
	}
}

func (mysqlAlter) addPrimaryKey(table string, col models.ColumnSchema) []string {
	d := mysqlDialect
	return []string{fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", d.ident(table), d.ident(col.Name))}
}
