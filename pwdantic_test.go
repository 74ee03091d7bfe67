package pwdantic_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/Graph3x/pwdantic"
)

type Team struct {
	ID           int64 `gorm:"primaryKey"`
	Name         string
	Headquarters *string `pwdantic:"default:Sharp Tower"`
}

func TestTypedSet(t *testing.T) {
	t.Parallel()
	c := context.Background()
	db, err := pwdantic.NewDbContext(filepath.Join(t.TempDir(), "teams.db"), "sqlite")
	assert.Nil(t, err)
	defer func() { check.Nil(t, db.Close()) }()

	teams, err := pwdantic.Bind[Team](c, db, pwdantic.BindOptions{Unique: []string{"name"}}, false)
	assert.Nil(t, err)

	preventers := &Team{Name: "Preventers"}
	assert.Nil(t, teams.Save(c, preventers))
	check.Equal(t, int64(1), preventers.ID)

	first, err := teams.First(c, map[string]any{"name": "Preventers"})
	assert.Nil(t, err)
	assert.True(t, first != nil)
	check.Equal(t, preventers.ID, first.ID)

	missing, err := teams.First(c, map[string]any{"name": "Z-Force"})
	assert.Nil(t, err)
	check.True(t, missing == nil)

	assert.Nil(t, teams.Delete(c, preventers))
	all, err := teams.Find(c, nil)
	assert.Nil(t, err)
	check.Equal(t, 0, len(all))

	err = teams.Delete(c, &Team{})
	check.True(t, errors.Is(err, pwdantic.ErrUnboundDelete))
}

func TestNewDbContextUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := pwdantic.NewDbContext("", "oracle")
	check.Error(t, err)
}

func TestExtractColumnsAndMigrate(t *testing.T) {
	t.Parallel()
	original, err := pwdantic.ExtractColumns(Team{}, pwdantic.BindOptions{})
	assert.Nil(t, err)
	check.Equal(t, []pwdantic.ColumnSchema{
		{Name: "id", DataType: pwdantic.TypeInteger, PrimaryKey: true},
		{Name: "name", DataType: pwdantic.TypeString},
		{Name: "headquarters", DataType: pwdantic.TypeString, Nullable: true, Default: stringPtr("Sharp Tower")},
	}, original)

	target := []pwdantic.ColumnSchema{
		{Name: "id", DataType: pwdantic.TypeInteger, PrimaryKey: true},
		{Name: "title", DataType: pwdantic.TypeString},
		{Name: "headquarters", DataType: pwdantic.TypeString, Nullable: true, Default: stringPtr("Sharp Tower")},
	}
	m := pwdantic.GenerateMigration("team", original, target)
	check.Equal(t, []pwdantic.Step{pwdantic.RenameColumn{OldName: "name", NewName: "title"}}, m.Steps)
	check.Equal(t, false, m.IsDestructive())

	result, err := pwdantic.ApplyMigration(original, m)
	assert.Nil(t, err)
	check.Equal(t, target, result)

	_, err = pwdantic.ApplyMigration(original, pwdantic.NewMigration("team",
		pwdantic.RemoveConstraint{ColumnName: "id", Constraint: pwdantic.ConstraintPrimary}))
	check.True(t, errors.Is(err, pwdantic.ErrInvalidMigration))
}

func stringPtr(s string) *string {
	return &s
}
