package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Graph3x/pwdantic/internal/models"
)

// ReadSnapshot reads a column snapshot. The file is either a saved table
// snapshot or a bare list of columns, in JSON or YAML depending on its
// extension.
func ReadSnapshot(path string) (*models.TableSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot models.TableSnapshot
	if err := decode(path, data, &snapshot); err != nil {
		var columns []models.ColumnSchema
		if listErr := decode(path, data, &columns); listErr != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
		}
		snapshot = models.TableSnapshot{Columns: columns}
	}
	if snapshot.Checksum != "" && !snapshot.Verify() {
		return nil, fmt.Errorf("snapshot %s has a checksum mismatch", path)
	}
	if err := models.ValidateColumns(snapshot.Columns); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}

func ReadMigration(path string) (*models.Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read migration: %w", err)
	}
	var doc models.MigrationDocument
	if err := decode(path, data, &doc); err != nil {
		return nil, fmt.Errorf("parse migration %s: %w", path, err)
	}
	return doc.ToMigration()
}

// Write encodes v to path, or to w when path is "-".
func Write(w io.Writer, path string, v any) error {
	data, err := encode(path, v)
	if err != nil {
		return err
	}
	if path == "-" || path == "" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func decode(path string, data []byte, v any) error {
	if isJSON(path) {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func encode(path string, v any) ([]byte, error) {
	if isJSON(path) {
		data, err := json.MarshalIndent(v, "", "  ")
		return append(data, '\n'), err
	}
	return yaml.Marshal(v)
}
