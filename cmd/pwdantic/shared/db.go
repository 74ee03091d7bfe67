package shared

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/drivers"
)

// OpenDB connects to the configured database. The returned func closes the
// connection.
func OpenDB() (*gorm.DB, drivers.DatabaseDriver, func(), error) {
	database := State.Database()
	sqlLogLevel := State.SQLLogLevel()
	if err := Validate(database, sqlLogLevel); err != nil {
		return nil, nil, nil, err
	}
	driver, err := State.DatabaseDriver()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := driver.Connect(database.Value(), sqlLogLevel.Value())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := driver.GetSQLDB(db); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, driver, closeDB, nil
}
