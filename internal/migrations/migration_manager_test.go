package migrations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/drivers"
	"github.com/Graph3x/pwdantic/internal/logging"
	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
	"github.com/Graph3x/pwdantic/internal/withdb"
)

func TestMigrationManagerMigrate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	snapshots := t.TempDir()
	err := withdb.WithSQLite(ctx, func(db *gorm.DB, driver drivers.DatabaseDriver) error {
		manager := migrations.NewMigrationManager(db, driver, logging.NewTestLogger(t))
		manager.SnapshotDir = snapshots

		created, err := manager.Migrate(ctx, "migration_test", originalColumns(), false)
		assert.Nil(t, err)
		check.True(t, created.Created)
		check.True(t, created.Changed())

		snapshot, err := manager.LoadSnapshot("migration_test")
		assert.Nil(t, err)
		check.Equal(t, originalColumns(), snapshot.Columns)

		unchanged, err := manager.Migrate(ctx, "migration_test", originalColumns(), false)
		assert.Nil(t, err)
		check.Equal(t, false, unchanged.Changed())
		check.True(t, unchanged.Plan == nil)

		_, err = manager.Migrate(ctx, "migration_test", targetColumns(), false)
		check.True(t, errors.Is(err, migrations.ErrDestructiveMigrationNotForced))
		snapshot, err = manager.LoadSnapshot("migration_test")
		assert.Nil(t, err)
		check.Equal(t, originalColumns(), snapshot.Columns)

		migrated, err := manager.Migrate(ctx, "migration_test", targetColumns(), true)
		assert.Nil(t, err)
		check.True(t, migrated.Changed())
		check.Equal(t, false, migrated.Created)
		check.True(t, migrated.Plan != nil)

		snapshot, err = manager.LoadSnapshot("migration_test")
		assert.Nil(t, err)
		check.Equal(t, targetColumns(), snapshot.Columns)

		pending, err := manager.Plan(ctx, "migration_test", targetColumns())
		assert.Nil(t, err)
		check.Equal(t, 0, pending.Len())
		return nil
	})
	assert.Nil(t, err)
}

func TestMigrationManagerRenamesStringDefaultedColumn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := withdb.WithSQLite(ctx, func(db *gorm.DB, driver drivers.DatabaseDriver) error {
		manager := migrations.NewMigrationManager(db, driver, logging.NewTestLogger(t))
		_, err := manager.Migrate(ctx, "notes", []models.ColumnSchema{
			{Name: "id", DataType: models.TypeInteger, PrimaryKey: true},
			{Name: "note", DataType: models.TypeString, Default: models.StringPtr("it's")},
		}, false)
		assert.Nil(t, err)
		assert.Nil(t, db.Exec("INSERT INTO notes (id, note) VALUES (1, 'hello')").Error)

		live, err := driver.ReadColumns(ctx, db, "notes")
		assert.Nil(t, err)
		check.Equal(t, "it's", *live[1].Default)

		renamed := []models.ColumnSchema{
			{Name: "id", DataType: models.TypeInteger, PrimaryKey: true},
			{Name: "remark", DataType: models.TypeString, Default: models.StringPtr("it's")},
		}
		result, err := manager.Migrate(ctx, "notes", renamed, false)
		assert.Nil(t, err)
		check.Equal(t, []models.Step{models.RenameColumn{OldName: "note", NewName: "remark"}}, result.Migration.Steps)

		var remark string
		assert.Nil(t, db.Raw("SELECT remark FROM notes WHERE id = 1").Scan(&remark).Error)
		check.Equal(t, "hello", remark)
		return nil
	})
	assert.Nil(t, err)
}

func TestMigrationManagerRejectsInvalidColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := withdb.WithSQLite(ctx, func(db *gorm.DB, driver drivers.DatabaseDriver) error {
		manager := migrations.NewMigrationManager(db, driver, nil)
		_, err := manager.Migrate(ctx, "t", []models.ColumnSchema{
			{Name: "a", DataType: models.TypeString},
			{Name: "a", DataType: models.TypeInteger},
		}, true)
		check.True(t, errors.Is(err, models.ErrInvalidSchema))

		exists, err := driver.TableExists(ctx, db, "t")
		assert.Nil(t, err)
		check.Equal(t, false, exists)

		_, err = manager.LoadSnapshot("t")
		check.Error(t, err)
		return nil
	})
	assert.Nil(t, err)
}

func TestMigrationManagerDropTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := withdb.WithSQLite(ctx, func(db *gorm.DB, driver drivers.DatabaseDriver) error {
		manager := migrations.NewMigrationManager(db, driver, nil)
		assert.Nil(t, manager.CreateTable(ctx, "t", targetColumns()))
		exists, err := driver.TableExists(ctx, db, "t")
		assert.Nil(t, err)
		check.True(t, exists)

		assert.Nil(t, manager.DropTable(ctx, "t"))
		exists, err = driver.TableExists(ctx, db, "t")
		assert.Nil(t, err)
		check.Equal(t, false, exists)
		return nil
	})
	assert.Nil(t, err)
}
