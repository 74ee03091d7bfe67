package drivers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/models"
)

var sqliteDialect = dialect{
	name:  "sqlite",
	quote: `"`,
	types: map[models.DataType]string{
		models.TypeInteger:  "INTEGER",
		models.TypeDateTime: "TIMESTAMP",
		models.TypeString:   "TEXT",
		models.TypeNumber:   "REAL",
		models.TypeBoolean:  "BOOLEAN",
		models.TypeBytes:    "BLOB",
	},
	primaryKeySuffix: "AUTOINCREMENT",
}

var sqliteTypes = map[string]models.DataType{
	"integer":   models.TypeInteger,
	"int":       models.TypeInteger,
	"bigint":    models.TypeInteger,
	"timestamp": models.TypeDateTime,
	"datetime":  models.TypeDateTime,
	"text":      models.TypeString,
	"varchar":   models.TypeString,
	"real":      models.TypeNumber,
	"double":    models.TypeNumber,
	"float":     models.TypeNumber,
	"numeric":   models.TypeNumber,
	"boolean":   models.TypeBoolean,
	"blob":      models.TypeBytes,
}

// rebuildSuffix names the temporary table a migration is built in.
const rebuildSuffix = "__pwdantic_new"

type SQLiteDriver struct{}

func NewSQLiteDriver() *SQLiteDriver {
	return &SQLiteDriver{}
}

func (s *SQLiteDriver) Name() string {
	return "sqlite"
}

func (s *SQLiteDriver) Connect(connectionString string, logLevel string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		NamingStrategy: models.Naming,
		Logger:         NewGormLogger(logLevel),
	})
}

func (s *SQLiteDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (s *SQLiteDriver) MapDataType(dataType models.DataType) string {
	return sqliteDialect.sqlType(dataType)
}

func (s *SQLiteDriver) ParseDataType(sqlType string) (models.DataType, error) {
	return parseSQLType(s.Name(), sqlType, sqliteTypes)
}

func (s *SQLiteDriver) TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		table,
	).Scan(&count).Error
	return count > 0, err
}

func (s *SQLiteDriver) GetSchemaInformationQuery() string {
	return `
		SELECT
			name,
			type AS data_type,
			"notnull" = 0 AS is_nullable,
			pk > 0 AS is_primary,
			dflt_value AS default_value
		FROM pragma_table_info(?)
		ORDER BY cid`
}

func (s *SQLiteDriver) ReadColumns(ctx context.Context, db *gorm.DB, table string) ([]models.ColumnSchema, error) {
	db = db.WithContext(ctx)
	rows, err := db.Raw(s.GetSchemaInformationQuery(), table).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	var infos []ColumnInfo
	for rows.Next() {
		var info ColumnInfo
		if err := rows.Scan(&info.Name, &info.DataType, &info.IsNullable, &info.IsPrimary, &info.DefaultValue); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan schema of %s: %w", table, err)
		}
		infos = append(infos, info)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unique, err := s.uniqueColumns(db, table)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		infos[i].IsUnique = unique[infos[i].Name]
	}

	cols, err := toColumns(s, infos)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		cols[i].Default = decodeDefault(cols[i].DataType, cols[i].Default)
	}
	return cols, nil
}

// uniqueColumns returns the columns covered by a single-column UNIQUE
// constraint.
func (s *SQLiteDriver) uniqueColumns(db *gorm.DB, table string) (map[string]bool, error) {
	var indexes []string
	err := db.Raw(`SELECT name FROM pragma_index_list(?) WHERE "unique" = 1 AND origin = 'u'`, table).
		Scan(&indexes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes of %s: %w", table, err)
	}

	unique := make(map[string]bool)
	for _, index := range indexes {
		var columns []string
		if err := db.Raw("SELECT name FROM pragma_index_info(?)", index).Scan(&columns).Error; err != nil {
			return nil, fmt.Errorf("failed to read index %s: %w", index, err)
		}
		if len(columns) == 1 {
			unique[columns[0]] = true
		}
	}
	return unique, nil
}

func (s *SQLiteDriver) CreateTableSQL(table string, columns []models.ColumnSchema) string {
	return sqliteDialect.createTableSQL(table, columns)
}

func (s *SQLiteDriver) DropTableSQL(table string) string {
	return sqliteDialect.dropTableSQL(table)
}

// MigrationSQL rebuilds the table, since SQLite cannot alter column
// constraints in place: the result schema is created under a temporary
// name, surviving rows are copied over following renames, and the new table
// replaces the old one.
func (s *SQLiteDriver) MigrationSQL(plan *models.MigrationPlan) ([]string, error) {
	if len(plan.Steps) == 0 {
		return nil, nil
	}
	d := sqliteDialect
	tmp := plan.Table + rebuildSuffix

	statements := []string{
		d.dropTableSQL(tmp),
		strings.Replace(d.createTableSQL(tmp, plan.Result), "CREATE TABLE IF NOT EXISTS", "CREATE TABLE", 1),
	}

	origins := plan.Origins()
	var targets, sources []string
	for _, col := range plan.Result {
		from, ok := origins[col.Name]
		if !ok {
			continue
		}
		i := models.FindColumn(plan.Original, from)
		if i < 0 {
			continue
		}
		source := d.ident(from)
		if plan.Original[i].DataType != col.DataType {
			source = fmt.Sprintf("CAST(%s AS %s)", source, d.sqlType(col.DataType))
		}
		targets = append(targets, d.ident(col.Name))
		sources = append(sources, source)
	}
	if len(targets) > 0 {
		statements = append(statements, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			d.ident(tmp), strings.Join(targets, ", "), strings.Join(sources, ", "), d.ident(plan.Table)))
	}

	statements = append(statements,
		fmt.Sprintf("DROP TABLE %s", d.ident(plan.Table)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.ident(tmp), d.ident(plan.Table)),
	)
	return statements, nil
}
