package migrations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/drivers"
	"github.com/Graph3x/pwdantic/internal/logging"
	"github.com/Graph3x/pwdantic/internal/models"
)

// Executor runs migrations against a live database.
type Executor struct {
	Driver drivers.DatabaseDriver
	Logger logging.Logger
}

func NewExecutor(driver drivers.DatabaseDriver, logger logging.Logger) *Executor {
	return &Executor{Driver: driver, Logger: logger}
}

// Execute applies m to its table in a single transaction and returns the
// plan that was run.
//
// A destructive migration is refused with ErrDestructiveMigrationNotForced
// unless force is set; nothing is run in that case. The migration is
// validated against the live columns before any statement executes.
func (e *Executor) Execute(ctx context.Context, db *gorm.DB, m *models.Migration, force bool) (*models.MigrationPlan, error) {
	runID := uuid.New().String()
	fields := []logging.Field{
		{Key: "run_id", Value: runID},
		{Key: "table", Value: m.Table},
	}

	if m.IsDestructive() && !force {
		logging.Emit(ctx, e.Logger, logging.LevelError, "refusing destructive migration", fields...)
		return nil, fmt.Errorf("migration of %s: %w", m.Table, ErrDestructiveMigrationNotForced)
	}

	current, err := e.Driver.ReadColumns(ctx, db, m.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", m.Table, err)
	}

	plan, err := PlanMigration(current, m)
	if err != nil {
		logging.Emit(ctx, e.Logger, logging.LevelError, "migration rejected",
			append(fields, logging.Field{Key: "error", Value: err})...)
		return nil, err
	}

	statements, err := e.Driver.MigrationSQL(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to render migration of %s: %w", m.Table, err)
	}

	logging.Emit(ctx, e.Logger, logging.LevelInfo, "applying migration",
		append(fields,
			logging.Field{Key: "steps", Value: len(m.Steps)},
			logging.Field{Key: "statements", Value: len(statements)},
			logging.Field{Key: "destructive", Value: m.IsDestructive()},
		)...)

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, statement := range statements {
			logging.Emit(ctx, e.Logger, logging.LevelDebug, "exec",
				append(fields, logging.Field{Key: "sql", Value: statement})...)
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("failed to execute %q: %w", statement, err)
			}
		}
		return nil
	})
	if err != nil {
		logging.Emit(ctx, e.Logger, logging.LevelError, "migration failed",
			append(fields, logging.Field{Key: "error", Value: err})...)
		return nil, fmt.Errorf("migration of %s: %w", m.Table, err)
	}

	logging.Emit(ctx, e.Logger, logging.LevelInfo, "migration applied", fields...)
	return plan, nil
}
