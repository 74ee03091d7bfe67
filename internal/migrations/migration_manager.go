package migrations

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/drivers"
	"github.com/Graph3x/pwdantic/internal/logging"
	"github.com/Graph3x/pwdantic/internal/models"
)

// MigrationManager keeps tables in line with the column schema of their
// model: missing tables are created, existing ones are diffed against the
// live schema and migrated.
type MigrationManager struct {
	db       *gorm.DB
	driver   drivers.DatabaseDriver
	executor *Executor
	logger   logging.Logger
	// SnapshotDir, when set, receives a snapshot of every table after it is
	// created or migrated.
	SnapshotDir string
}

func NewMigrationManager(db *gorm.DB, driver drivers.DatabaseDriver, logger logging.Logger) *MigrationManager {
	return &MigrationManager{
		db:       db,
		driver:   driver,
		executor: NewExecutor(driver, logger),
		logger:   logger,
	}
}

// MigrationResult reports what Migrate did to a table.
type MigrationResult struct {
	Table     string
	Created   bool
	Migration *models.Migration
	Plan      *models.MigrationPlan
}

// Changed reports whether the table was created or altered.
func (r *MigrationResult) Changed() bool {
	return r.Created || (r.Migration != nil && r.Migration.Len() > 0)
}

// Migrate creates table with columns, or migrates it to columns if it
// already exists. Destructive migrations require force.
func (mm *MigrationManager) Migrate(ctx context.Context, table string, columns []models.ColumnSchema, force bool) (*MigrationResult, error) {
	if err := models.ValidateColumns(columns); err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}

	exists, err := mm.driver.TableExists(ctx, mm.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to check table %s: %w", table, err)
	}

	result := &MigrationResult{Table: table}
	if !exists {
		if err := mm.CreateTable(ctx, table, columns); err != nil {
			return nil, err
		}
		result.Created = true
	} else {
		migration, err := mm.Plan(ctx, table, columns)
		if err != nil {
			return nil, err
		}
		result.Migration = migration
		if migration.Len() == 0 {
			logging.Emit(ctx, mm.logger, logging.LevelInfo, "no changes detected",
				logging.Field{Key: "table", Value: table})
			return result, nil
		}
		plan, err := mm.executor.Execute(ctx, mm.db, migration, force)
		if err != nil {
			return nil, err
		}
		result.Plan = plan
	}

	if mm.SnapshotDir != "" {
		if err := models.NewTableSnapshot(table, columns).Save(mm.SnapshotDir); err != nil {
			return nil, fmt.Errorf("failed to save snapshot of %s: %w", table, err)
		}
	}
	return result, nil
}

// Plan returns the migration from the live schema of table to columns
// without running it.
func (mm *MigrationManager) Plan(ctx context.Context, table string, columns []models.ColumnSchema) (*models.Migration, error) {
	current, err := mm.driver.ReadColumns(ctx, mm.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return GenerateMigration(table, current, columns), nil
}

// Execute runs a hand-written migration.
func (mm *MigrationManager) Execute(ctx context.Context, m *models.Migration, force bool) (*models.MigrationPlan, error) {
	return mm.executor.Execute(ctx, mm.db, m, force)
}

func (mm *MigrationManager) CreateTable(ctx context.Context, table string, columns []models.ColumnSchema) error {
	statement := mm.driver.CreateTableSQL(table, columns)
	logging.Emit(ctx, mm.logger, logging.LevelInfo, "creating table",
		logging.Field{Key: "table", Value: table},
		logging.Field{Key: "sql", Value: statement})
	if err := mm.db.WithContext(ctx).Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (mm *MigrationManager) DropTable(ctx context.Context, table string) error {
	if err := mm.db.WithContext(ctx).Exec(mm.driver.DropTableSQL(table)).Error; err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// LoadSnapshot reads the last snapshot saved for table.
func (mm *MigrationManager) LoadSnapshot(table string) (*models.TableSnapshot, error) {
	if mm.SnapshotDir == "" {
		return nil, fmt.Errorf("no snapshot directory configured")
	}
	return models.LoadTableSnapshot(mm.SnapshotDir, table)
}
