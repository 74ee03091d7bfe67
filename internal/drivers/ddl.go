package drivers

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Graph3x/pwdantic/internal/models"
)

// dialect holds the formatting rules shared by the statement renderers.
type dialect struct {
	name  string
	quote string
	types map[models.DataType]string
	// primaryKeySuffix is appended to an integer primary key column in
	// CREATE TABLE so the database assigns keys.
	primaryKeySuffix string
}

func (d dialect) ident(name string) string {
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

func (d dialect) sqlType(dataType models.DataType) string {
	if t, ok := d.types[dataType]; ok {
		return t
	}
	return d.types[models.TypeString]
}

// columnDefinition renders a column for CREATE TABLE or ADD COLUMN. Key
// constraints are only rendered inline when inline is set.
func (d dialect) columnDefinition(col models.ColumnSchema, inline bool) string {
	var sb strings.Builder
	sb.WriteString(d.ident(col.Name))
	sb.WriteString(" ")
	sb.WriteString(d.sqlType(col.DataType))
	if !col.Nullable || col.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if inline && col.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
		if col.DataType == models.TypeInteger && d.primaryKeySuffix != "" {
			sb.WriteString(" ")
			sb.WriteString(d.primaryKeySuffix)
		}
	}
	if inline && col.Unique && !col.PrimaryKey {
		sb.WriteString(" UNIQUE")
	}
	if col.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(defaultLiteral(col.DataType, *col.Default))
	}
	return sb.String()
}

func (d dialect) createTableSQL(table string, columns []models.ColumnSchema) string {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, d.columnDefinition(col, true))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.ident(table), strings.Join(defs, ", "))
}

func (d dialect) dropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.ident(table))
}

// defaultLiteral renders a default value as a SQL literal. Textual values
// are quoted unless they already are; bytes become a hex literal.
func defaultLiteral(dataType models.DataType, value string) string {
	switch dataType {
	case models.TypeString, models.TypeDateTime:
		if isQuoted(value) {
			return value
		}
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	case models.TypeBytes:
		if strings.HasPrefix(strings.ToUpper(value), "X'") {
			return value
		}
		return "X'" + strings.ToUpper(hex.EncodeToString([]byte(value))) + "'"
	}
	return value
}

// decodeDefault reverses defaultLiteral for a value read back from the
// database, so live columns carry the same default as extracted ones.
func decodeDefault(dataType models.DataType, value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	switch dataType {
	case models.TypeBytes:
		if strings.HasPrefix(strings.ToUpper(v), "X'") && strings.HasSuffix(v, "'") {
			if raw, err := hex.DecodeString(v[2 : len(v)-1]); err == nil {
				s := string(raw)
				return &s
			}
		}
	}
	if isQuoted(v) {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return &v
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
}

// baseType lower-cases a SQL type and strips any length or precision.
func baseType(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func parseSQLType(driver string, sqlType string, known map[string]models.DataType) (models.DataType, error) {
	if dt, ok := known[baseType(sqlType)]; ok {
		return dt, nil
	}
	return "", fmt.Errorf("%w: %s type %q", models.ErrInvalidType, driver, sqlType)
}
