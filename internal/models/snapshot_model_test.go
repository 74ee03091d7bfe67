package models_test

import (
	"os"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/Graph3x/pwdantic/internal/models"
)

var heroColumns = []models.ColumnSchema{
	{Name: "id", DataType: models.TypeInteger, PrimaryKey: true},
	{Name: "name", DataType: models.TypeString},
	{Name: "secret_name", DataType: models.TypeString, Unique: true},
	{Name: "age", DataType: models.TypeInteger, Nullable: true, Default: models.StringPtr("18")},
}

func TestSnapshotChecksumIgnoresTimestamp(t *testing.T) {
	t.Parallel()
	a := models.NewTableSnapshot("hero", heroColumns)
	b := models.NewTableSnapshot("hero", heroColumns)
	b.Timestamp = b.Timestamp.Add(1000)
	check.Equal(t, a.Checksum, b.CalculateChecksum())
	check.True(t, a.Verify())

	c := models.NewTableSnapshot("villain", heroColumns)
	check.NotEqual(t, a.Checksum, c.Checksum)
}

func TestSnapshotSaveAndLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	snapshot := models.NewTableSnapshot("hero", heroColumns)
	assert.Nil(t, snapshot.Save(dir))

	loaded, err := models.LoadTableSnapshot(dir, "hero")
	assert.Nil(t, err)
	check.Equal(t, "hero", loaded.Table)
	check.Equal(t, models.SnapshotVersion, loaded.Version)
	check.Equal(t, heroColumns, loaded.Columns)
	check.Equal(t, snapshot.Checksum, loaded.Checksum)
}

func TestSnapshotLoadDetectsTampering(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	snapshot := models.NewTableSnapshot("hero", heroColumns)
	data := `{"version":"1.0.0","table":"hero","columns":[{"name":"id","type":"integer"}],"checksum":"` + snapshot.Checksum + `"}`
	assert.Nil(t, os.WriteFile(models.SnapshotPath(dir, "hero"), []byte(data), 0o644))

	_, err := models.LoadTableSnapshot(dir, "hero")
	check.Error(t, err)
}
