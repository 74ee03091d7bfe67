package migrations

import (
	"strings"

	"github.com/Graph3x/pwdantic/internal/models"
)

// GenerateMigration computes the steps that turn original into target.
//
// Columns are matched by name first. Unmatched target columns are then
// matched to unmatched original columns by signature; a rename is only
// inferred when exactly one original column carries the same signature,
// ambiguous candidates become add/drop pairs. The result is sorted.
func GenerateMigration(table string, original, target []models.ColumnSchema) *models.Migration {
	var steps []models.Step

	originalByName := make(map[string]models.ColumnSchema, len(original))
	for _, col := range original {
		originalByName[col.Name] = col
	}
	targetNames := make(map[string]bool, len(target))
	for _, col := range target {
		targetNames[col.Name] = true
	}

	var unmatchedTarget []models.ColumnSchema
	for _, newCol := range target {
		oldCol, ok := originalByName[newCol.Name]
		if !ok {
			unmatchedTarget = append(unmatchedTarget, newCol)
			continue
		}
		steps = append(steps, columnDiff(oldCol, newCol)...)
	}

	var unmatchedOriginal []models.ColumnSchema
	for _, oldCol := range original {
		if !targetNames[oldCol.Name] {
			unmatchedOriginal = append(unmatchedOriginal, oldCol)
		}
	}

	var added []models.ColumnSchema
	for _, newCol := range unmatchedTarget {
		match := -1
		count := 0
		sig := newCol.Signature()
		for i, oldCol := range unmatchedOriginal {
			if oldCol.Signature() == sig {
				match = i
				count++
			}
		}
		if count != 1 {
			added = append(added, newCol)
			continue
		}
		steps = append(steps, models.RenameColumn{
			OldName: unmatchedOriginal[match].Name,
			NewName: newCol.Name,
		})
		unmatchedOriginal = append(unmatchedOriginal[:match:match], unmatchedOriginal[match+1:]...)
	}

	for _, newCol := range added {
		steps = append(steps, models.AddColumn{Column: newCol.Clone()})
	}
	for _, oldCol := range unmatchedOriginal {
		steps = append(steps, models.DropColumn{ColumnName: oldCol.Name})
	}

	migration := models.NewMigration(table, steps...)
	migration.Sort()
	return migration
}

// columnDiff compares two columns sharing a name. Steps are emitted in a
// fixed order: type, default, nullable, unique, primary.
func columnDiff(oldCol, newCol models.ColumnSchema) []models.Step {
	var steps []models.Step
	name := newCol.Name

	if oldCol.DataType != newCol.DataType {
		steps = append(steps, models.RetypeColumn{
			ColumnName: name,
			OldType:    oldCol.DataType,
			NewType:    newCol.DataType,
		})
	}

	if !defaultsEqual(newCol.DataType, oldCol.Default, newCol.Default) {
		var def *string
		if newCol.Default != nil {
			def = models.StringPtr(*newCol.Default)
		}
		steps = append(steps, models.ChangeDefault{ColumnName: name, NewDefault: def})
	}

	if step := constraintDiff(name, models.ConstraintNullable, oldCol.Nullable, newCol.Nullable); step != nil {
		steps = append(steps, step)
	}
	if step := constraintDiff(name, models.ConstraintUnique, oldCol.Unique, newCol.Unique); step != nil {
		steps = append(steps, step)
	}
	if step := constraintDiff(name, models.ConstraintPrimary, oldCol.PrimaryKey, newCol.PrimaryKey); step != nil {
		steps = append(steps, step)
	}
	return steps
}

func constraintDiff(column string, c models.Constraint, before, after bool) models.Step {
	switch {
	case !before && after:
		return models.AddConstraint{ColumnName: column, Constraint: c}
	case before && !after:
		return models.RemoveConstraint{ColumnName: column, Constraint: c}
	}
	return nil
}

// defaultsEqual compares two defaults. Hand-written snapshots may keep the
// literal quoting of string defaults, so surrounding quotes are trimmed
// before comparing them.
func defaultsEqual(dataType models.DataType, a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if dataType == models.TypeString {
		return unquote(*a) == unquote(*b)
	}
	return *a == *b
}

func unquote(s string) string {
	return strings.Trim(s, `'"`)
}
