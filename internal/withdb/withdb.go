// withdb is a simplified way of creating throwaway test databases, used to
// test the packages that talk to a live database.
package withdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/drivers"
)

// WithSQLite is a helper for writing database-backed tests. It will:
// - create a new, empty SQLite database file in a temporary directory
// - open a connection to it
// - run the `cb` function
// - close the connection and remove the file
//
// This is designed to be an internal helper for testing other packages, and
// should not be relied upon externally.
func WithSQLite(ctx context.Context, cb func(*gorm.DB, drivers.DatabaseDriver) error) (final error) {
	dir, err := os.MkdirTemp("", "pwdantic_test_")
	if err != nil {
		return fmt.Errorf("withdb: failed to create directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			final = errors.Join(final, fmt.Errorf("withdb: failed to remove %s: %w", dir, err))
		}
	}()

	driver := drivers.NewSQLiteDriver()
	db, err := driver.Connect(filepath.Join(dir, "test.db"), "silent")
	if err != nil {
		return fmt.Errorf("withdb(sqlite) failed to open: %w", err)
	}
	defer func() {
		sqlDB, err := driver.GetSQLDB(db)
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			final = errors.Join(final, fmt.Errorf("withdb(sqlite) failed to close: %w", err))
		}
	}()
	return cb(db.WithContext(ctx), driver)
}
