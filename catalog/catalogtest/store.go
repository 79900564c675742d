// Package catalogtest provides an in-process catalog service for integration
// tests and local benchmark runs: a Store abstraction with in-memory and
// pebble-backed implementations, and an HTTP server speaking the catalog
// wire protocol over either.
package catalogtest

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/tclemos/catalog-bench/catalog"
)

// StoreType selects a stub store backend.
type StoreType string

const (
	StoreMemory StoreType = "memory"
	StorePebble StoreType = "pebble"
)

// ErrUnknownStore rejects store types the factory does not know.
var ErrUnknownStore = errors.New("unknown store type")

// StoreConfig selects and parameterizes a backend.
type StoreConfig struct {
	Type StoreType
	// Path is the database directory for the pebble backend.
	Path string
}

// NewStore builds the configured backend. An empty type means memory.
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Type {
	case StoreMemory, "":
		return NewMemoryStore(), nil
	case StorePebble:
		return NewPebbleStore(cfg.Path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Type)
}

// Store persists catalog objects for the stub server. Implementations map
// missing objects to catalog.ErrNotFound and collisions to
// catalog.ErrAlreadyExists so the HTTP layer can translate uniformly.
// Partitions are keyed by their canonical k=v/k=v name, computed by the
// caller; deleting a table deletes its partitions with it.
type Store interface {
	CreateDatabase(db *catalog.Database) error
	GetDatabase(name string) (*catalog.Database, error)
	DeleteDatabase(name string) error
	ListDatabases() ([]string, error)

	CreateTable(t *catalog.Table) error
	GetTable(db, name string) (*catalog.Table, error)
	UpdateTable(db, name string, t *catalog.Table) error
	DeleteTable(db, name string) error
	ListTables(db string) ([]string, error)

	CreatePartition(db, table, name string, p *catalog.Partition) error
	GetPartition(db, table, name string) (*catalog.Partition, error)
	DeletePartition(db, table, name string) error
	ListPartitions(db, table string) ([]catalog.Partition, error)
	PartitionNames(db, table string) ([]string, error)

	Close() error
}

type tableKey struct {
	db   string
	name string
}

// MemoryStore keeps everything in mutex-guarded maps. Objects are copied on
// the way in and out, so callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	databases  map[string]*catalog.Database
	tables     map[string]map[string]*catalog.Table
	partitions map[tableKey]map[string]*catalog.Partition
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		databases:  make(map[string]*catalog.Database),
		tables:     make(map[string]map[string]*catalog.Table),
		partitions: make(map[tableKey]map[string]*catalog.Partition),
	}
}

func (s *MemoryStore) CreateDatabase(db *catalog.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.databases[db.Name]; ok {
		return fmt.Errorf("%w: database %s", catalog.ErrAlreadyExists, db.Name)
	}
	s.databases[db.Name] = cloneDatabase(db)
	return nil
}

func (s *MemoryStore) GetDatabase(name string) (*catalog.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.databases[name]
	if !ok {
		return nil, fmt.Errorf("%w: database %s", catalog.ErrNotFound, name)
	}
	return cloneDatabase(db), nil
}

func (s *MemoryStore) DeleteDatabase(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.databases[name]; !ok {
		return fmt.Errorf("%w: database %s", catalog.ErrNotFound, name)
	}
	delete(s.databases, name)
	return nil
}

func (s *MemoryStore) ListDatabases() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) CreateTable(t *catalog.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[t.Database][t.Name]; ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrAlreadyExists, t.Database, t.Name)
	}
	if s.tables[t.Database] == nil {
		s.tables[t.Database] = make(map[string]*catalog.Table)
	}
	s.tables[t.Database][t.Name] = cloneTable(t)
	return nil
}

func (s *MemoryStore) GetTable(db, name string) (*catalog.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[db][name]
	if !ok {
		return nil, fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, db, name)
	}
	return cloneTable(t), nil
}

func (s *MemoryStore) UpdateTable(db, name string, t *catalog.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[db][name]; !ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, db, name)
	}
	s.tables[db][name] = cloneTable(t)
	return nil
}

func (s *MemoryStore) DeleteTable(db, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[db][name]; !ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, db, name)
	}
	delete(s.tables[db], name)
	delete(s.partitions, tableKey{db, name})
	return nil
}

func (s *MemoryStore) ListTables(db string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables[db]))
	for name := range s.tables[db] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) CreatePartition(db, table, name string, p *catalog.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tableKey{db, table}
	if _, ok := s.partitions[key][name]; ok {
		return fmt.Errorf("%w: partition %s of %s.%s", catalog.ErrAlreadyExists, name, db, table)
	}
	if s.partitions[key] == nil {
		s.partitions[key] = make(map[string]*catalog.Partition)
	}
	s.partitions[key][name] = clonePartition(p)
	return nil
}

func (s *MemoryStore) GetPartition(db, table, name string) (*catalog.Partition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[tableKey{db, table}][name]
	if !ok {
		return nil, fmt.Errorf("%w: partition %s of %s.%s", catalog.ErrNotFound, name, db, table)
	}
	return clonePartition(p), nil
}

func (s *MemoryStore) DeletePartition(db, table, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tableKey{db, table}
	if _, ok := s.partitions[key][name]; !ok {
		return fmt.Errorf("%w: partition %s of %s.%s", catalog.ErrNotFound, name, db, table)
	}
	delete(s.partitions[key], name)
	return nil
}

func (s *MemoryStore) ListPartitions(db, table string) ([]catalog.Partition, error) {
	names, err := s.PartitionNames(db, table)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	parts := make([]catalog.Partition, 0, len(names))
	for _, name := range names {
		if p, ok := s.partitions[tableKey{db, table}][name]; ok {
			parts = append(parts, *clonePartition(p))
		}
	}
	return parts, nil
}

func (s *MemoryStore) PartitionNames(db, table string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byName := s.partitions[tableKey{db, table}]
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneDatabase(db *catalog.Database) *catalog.Database {
	out := *db
	out.Parameters = maps.Clone(db.Parameters)
	return &out
}

func cloneTable(t *catalog.Table) *catalog.Table {
	out := *t
	out.Columns = slices.Clone(t.Columns)
	out.PartitionKeys = slices.Clone(t.PartitionKeys)
	out.Parameters = maps.Clone(t.Parameters)
	return &out
}

func clonePartition(p *catalog.Partition) *catalog.Partition {
	out := *p
	out.Values = slices.Clone(p.Values)
	out.Parameters = maps.Clone(p.Parameters)
	return &out
}
