package models

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const SnapshotVersion = "1.0.0"

// TableSnapshot records the column schema of one table at a point in time.
type TableSnapshot struct {
	Version   string         `json:"version" yaml:"version"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Table     string         `json:"table" yaml:"table"`
	Columns   []ColumnSchema `json:"columns" yaml:"columns"`
	Checksum  string         `json:"checksum" yaml:"checksum"`
}

func NewTableSnapshot(table string, columns []ColumnSchema) *TableSnapshot {
	snapshot := &TableSnapshot{
		Version:   SnapshotVersion,
		Timestamp: time.Now().UTC(),
		Table:     table,
		Columns:   CloneColumns(columns),
	}
	snapshot.Checksum = snapshot.CalculateChecksum()
	return snapshot
}

// CalculateChecksum hashes the version, table and columns. The timestamp is
// excluded so that equal schemas share a checksum.
func (s *TableSnapshot) CalculateChecksum() string {
	data := map[string]interface{}{
		"version": s.Version,
		"table":   s.Table,
		"columns": s.Columns,
	}
	jsonData, _ := json.Marshal(data)
	return fmt.Sprintf("%x", md5.Sum(jsonData))
}

// Verify reports whether the stored checksum matches the contents.
func (s *TableSnapshot) Verify() bool {
	return s.Checksum == s.CalculateChecksum()
}

// SnapshotPath is where the snapshot for table lives inside dir.
func SnapshotPath(dir, table string) string {
	return filepath.Join(dir, table+".snapshot.json")
}

func (s *TableSnapshot) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(SnapshotPath(dir, s.Table), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

func LoadTableSnapshot(dir, table string) (*TableSnapshot, error) {
	data, err := os.ReadFile(SnapshotPath(dir, table))
	if err != nil {
		return nil, err
	}
	var snapshot TableSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if !snapshot.Verify() {
		return nil, fmt.Errorf("snapshot for %s has a checksum mismatch", table)
	}
	return &snapshot, nil
}
