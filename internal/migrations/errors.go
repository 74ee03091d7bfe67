package migrations

import (
	"errors"
	"fmt"

	"github.com/Graph3x/pwdantic/internal/models"
)

var (
	// ErrInvalidMigration is returned when a migration breaks a cross-step
	// rule, such as a primary key constraint change without its pair.
	ErrInvalidMigration = errors.New("invalid migration")
	// ErrDestructiveMigrationNotForced is returned by the executor when a
	// destructive migration is run without force.
	ErrDestructiveMigrationNotForced = errors.New("destructive migration requires force")
)

// InvalidMigrationError describes a rejected step. It matches
// ErrInvalidMigration with errors.Is.
type InvalidMigrationError struct {
	Table  string
	Step   models.Step
	Reason string
}

func (e *InvalidMigrationError) Error() string {
	return fmt.Sprintf("invalid migration of %s at step %q: %s", e.Table, e.Step, e.Reason)
}

func (e *InvalidMigrationError) Is(target error) bool {
	return target == ErrInvalidMigration
}
