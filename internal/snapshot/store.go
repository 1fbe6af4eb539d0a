package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound is returned when no snapshot exists for the requested table.
var ErrNotFound = errors.New("snapshot not found")

// Store is the durable staging layer between generation and import. One
// snapshot per table, written fully, read by later generation steps and by
// the import orchestrator. Access is single-writer-per-table.
type Store interface {
	Write(table string, rows []map[string]interface{}) error
	Read(table string) ([]map[string]interface{}, error)
	Exists(table string) bool
}

// FileStore keeps one <table>.json file per table: a JSON array of row
// objects with nulls explicit.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

func (s *FileStore) Write(table string, rows []map[string]interface{}) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if rows == nil {
		rows = []map[string]interface{}{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", table, err)
	}

	if err := os.WriteFile(s.path(table), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot for %s: %w", table, err)
	}
	return nil
}

func (s *FileStore) Read(table string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(s.path(table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
		}
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", table, err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for %s: %w", table, err)
	}
	return rows, nil
}

func (s *FileStore) Exists(table string) bool {
	_, err := os.Stat(s.path(table))
	return err == nil
}

// Tables lists the tables that currently have a snapshot, sorted.
func (s *FileStore) Tables() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var tables []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			tables = append(tables, name[:len(name)-len(".json")])
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string][]map[string]interface{}
}

func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string][]map[string]interface{})}
}

func (s *MemStore) Write(table string, rows []map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]map[string]interface{}, len(rows))
	copy(copied, rows)
	s.tables[table] = copied
	return nil
}

func (s *MemStore) Read(table string) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
	}
	out := make([]map[string]interface{}, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *MemStore) Exists(table string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[table]
	return ok
}
