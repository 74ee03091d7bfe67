package withdb_test

import (
	"context"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"gorm.io/gorm"

	"github.com/Graph3x/pwdantic/internal/drivers"
	"github.com/Graph3x/pwdantic/internal/withdb"
)

func TestWithSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := withdb.WithSQLite(ctx, func(db *gorm.DB, driver drivers.DatabaseDriver) error {
		check.Equal(t, "sqlite", driver.Name())
		var one int
		return db.Raw("select 1").Scan(&one).Error
	})
	assert.Nil(t, err)
}
