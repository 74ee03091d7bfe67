package drivers

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/models"
)

var postgresDialect = dialect{
	name:  "postgres",
	quote: `"`,
	types: map[models.DataType]string{
		models.TypeInteger:  "BIGINT",
		models.TypeDateTime: "TIMESTAMP",
		models.TypeString:   "TEXT",
		models.TypeNumber:   "DOUBLE PRECISION",
		models.TypeBoolean:  "BOOLEAN",
		models.TypeBytes:    "BYTEA",
	},
	primaryKeySuffix: "GENERATED BY DEFAULT AS IDENTITY",
}

var postgresTypes = map[string]models.DataType{
	"bigint":                      models.TypeInteger,
	"integer":                     models.TypeInteger,
	"smallint":                    models.TypeInteger,
	"timestamp":                   models.TypeDateTime,
	"timestamp without time zone": models.TypeDateTime,
	"timestamp with time zone":    models.TypeDateTime,
	"text":                        models.TypeString,
	"character varying":           models.TypeString,
	"uuid":                        models.TypeString,
	"double precision":            models.TypeNumber,
	"real":                        models.TypeNumber,
	"numeric":                     models.TypeNumber,
	"boolean":                     models.TypeBoolean,
	"bytea":                       models.TypeBytes,
}

// postgresCast matches a default rendered with a trailing type cast, such
// as 'asdf'::text.
var postgresCast = regexp.MustCompile(`^(.*?)::[a-z][a-z0-9_ ]*(\[\])?$`)

type PostgreSQLDriver struct{}

func NewPostgreSQLDriver() *PostgreSQLDriver {
	return &PostgreSQLDriver{}
}

func (p *PostgreSQLDriver) Name() string {
	return "postgres"
}

func (p *PostgreSQLDriver) Connect(connectionString string, logLevel string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(connectionString), &gorm.Config{
		NamingStrategy: models.Naming,
		Logger:         NewGormLogger(logLevel),
	})
}

func (p *PostgreSQLDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (p *PostgreSQLDriver) MapDataType(dataType models.DataType) string {
	return postgresDialect.sqlType(dataType)
}

func (p *PostgreSQLDriver) ParseDataType(sqlType string) (models.DataType, error) {
	return parseSQLType(p.Name(), sqlType, postgresTypes)
}

func (p *PostgreSQLDriver) TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ? AND table_schema = current_schema()",
		table,
	).Scan(&count).Error
	return count > 0, err
}

func (p *PostgreSQLDriver) GetSchemaInformationQuery() string {
	return `
		SELECT
			c.column_name AS name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_name = c.table_name
					AND tc.table_schema = c.table_schema
					AND kcu.column_name = c.column_name
			) AS is_primary,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'UNIQUE'
					AND tc.table_name = c.table_name
					AND tc.table_schema = c.table_schema
					AND kcu.column_name = c.column_name
			) AS is_unique,
			c.column_default AS default_value
		FROM information_schema.columns c
		WHERE c.table_name = @table
			AND c.table_schema = current_schema()
		ORDER BY c.ordinal_position`
}

func (p *PostgreSQLDriver) ReadColumns(ctx context.Context, db *gorm.DB, table string) ([]models.ColumnSchema, error) {
	rows, err := db.WithContext(ctx).Raw(p.GetSchemaInformationQuery(), sql.Named("table", table)).Rows()
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
		info.DefaultValue = normalizePostgresDefault(info.DefaultValue)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols, err := toColumns(p, infos)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		cols[i].Default = decodeDefault(cols[i].DataType, cols[i].Default)
	}
	return cols, nil
}

// normalizePostgresDefault strips type casts and drops sequence defaults,
// which belong to identity columns rather than to the schema.
func normalizePostgresDefault(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if strings.HasPrefix(v, "nextval(") {
		return nil
	}
	if m := postgresCast.FindStringSubmatch(v); m != nil {
		v = m[1]
	}
	return &v
}

func (p *PostgreSQLDriver) CreateTableSQL(table string, columns []models.ColumnSchema) string {
	return postgresDialect.createTableSQL(table, columns)
}

func (p *PostgreSQLDriver) DropTableSQL(table string) string {
	return postgresDialect.dropTableSQL(table) + " CASCADE"
}

func (p *PostgreSQLDriver) MigrationSQL(plan *models.MigrationPlan) ([]string, error) {
	return renderAlterSQL(postgresAlter{}, plan)
}

type postgresAlter struct{}

func (postgresAlter) base() dialect { return postgresDialect }

func (postgresAlter) alterColumn(table, column, action string) string {
	d := postgresDialect
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", d.ident(table), d.ident(column), action)
}

func (a postgresAlter) retype(table string, _, after models.ColumnSchema) []string {
	sqlType := postgresDialect.sqlType(after.DataType)
	using := fmt.Sprintf("TYPE %s USING %s::%s", sqlType, postgresDialect.ident(after.Name), sqlType)
	return []string{a.alterColumn(table, after.Name, using)}
}

func (a postgresAlter) setDefault(table string, after models.ColumnSchema) []string {
	if after.Default == nil {
		return []string{a.alterColumn(table, after.Name, "DROP DEFAULT")}
	}
	return []string{a.alterColumn(table, after.Name, "SET DEFAULT "+defaultLiteral(after.DataType, *after.Default))}
}

func (a postgresAlter) setNullable(table string, after models.ColumnSchema) []string {
	if after.Nullable {
		return []string{a.alterColumn(table, after.Name, "DROP NOT NULL")}
	}
	return []string{a.alterColumn(table, after.Name, "SET NOT NULL")}
}

func (postgresAlter) setUnique(table string, col models.ColumnSchema, on bool) []string {
	d := postgresDialect
	name := d.ident(fmt.Sprintf("%s_%s_key", table, col.Name))
	if on {
		return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", d.ident(table), name, d.ident(col.Name))}
	}
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", d.ident(table), name)}
}

func (postgresAlter) dropPrimaryKey(table string, _ models.ColumnSchema) []string {
	d := postgresDialect
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", d.ident(table), d.ident(table+"_pkey"))}
}

func (postgresAlter) addPrimaryKey(table string, col models.ColumnSchema) []string {
	d := postgresDialect
	return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)", d.ident(table), d.ident(table+"_pkey"), d.ident(col.Name))}
}
