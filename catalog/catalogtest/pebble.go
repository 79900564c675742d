package catalogtest

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog/log"

	"github.com/tclemos/catalog-bench/catalog"
)

// Key layout: one JSON value per object under a typed prefix. The trailing
// separator keeps sibling names with a shared prefix (t, t2) in disjoint
// key ranges.
const (
	dbPrefix  = "db/"
	tblPrefix = "tbl/"
	prtPrefix = "prt/"
)

func dbKey(name string) []byte {
	return []byte(dbPrefix + name)
}

func tblKey(db, name string) []byte {
	return []byte(tblPrefix + db + "/" + name)
}

func tblScanPrefix(db string) []byte {
	return []byte(tblPrefix + db + "/")
}

func prtKey(db, table, name string) []byte {
	return []byte(prtPrefix + db + "/" + table + "/" + name)
}

func prtScanPrefix(db, table string) []byte {
	return []byte(prtPrefix + db + "/" + table + "/")
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such bound exists.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// PebbleStore persists catalog objects in a pebble database. Writes use
// NoSync: the stub favors benchmark throughput over crash durability.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens or creates the database directory at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Msg("Opened pebble catalog store")

	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) CreateDatabase(db *catalog.Database) error {
	key := dbKey(db.Name)
	ok, err := s.exists(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: database %s", catalog.ErrAlreadyExists, db.Name)
	}
	return s.put(key, db)
}

func (s *PebbleStore) GetDatabase(name string) (*catalog.Database, error) {
	var db catalog.Database
	ok, err := s.get(dbKey(name), &db)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: database %s", catalog.ErrNotFound, name)
	}
	return &db, nil
}

func (s *PebbleStore) DeleteDatabase(name string) error {
	ok, err := s.delete(dbKey(name))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: database %s", catalog.ErrNotFound, name)
	}
	return nil
}

func (s *PebbleStore) ListDatabases() ([]string, error) {
	return s.scanNames([]byte(dbPrefix))
}

func (s *PebbleStore) CreateTable(t *catalog.Table) error {
	key := tblKey(t.Database, t.Name)
	ok, err := s.exists(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrAlreadyExists, t.Database, t.Name)
	}
	return s.put(key, t)
}

func (s *PebbleStore) GetTable(db, name string) (*catalog.Table, error) {
	var t catalog.Table
	ok, err := s.get(tblKey(db, name), &t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, db, name)
	}
	return &t, nil
}

func (s *PebbleStore) UpdateTable(db, name string, t *catalog.Table) error {
	key := tblKey(db, name)
	ok, err := s.exists(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, db, name)
	}
	return s.put(key, t)
}

func (s *PebbleStore) DeleteTable(db, name string) error {
	ok, err := s.delete(tblKey(db, name))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, db, name)
	}
	prefix := prtScanPrefix(db, name)
	return s.db.DeleteRange(prefix, keyUpperBound(prefix), pebble.NoSync)
}

func (s *PebbleStore) ListTables(db string) ([]string, error) {
	return s.scanNames(tblScanPrefix(db))
}

func (s *PebbleStore) CreatePartition(db, table, name string, p *catalog.Partition) error {
	key := prtKey(db, table, name)
	ok, err := s.exists(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: partition %s of %s.%s", catalog.ErrAlreadyExists, name, db, table)
	}
	return s.put(key, p)
}

func (s *PebbleStore) GetPartition(db, table, name string) (*catalog.Partition, error) {
	var p catalog.Partition
	ok, err := s.get(prtKey(db, table, name), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: partition %s of %s.%s", catalog.ErrNotFound, name, db, table)
	}
	return &p, nil
}

func (s *PebbleStore) DeletePartition(db, table, name string) error {
	ok, err := s.delete(prtKey(db, table, name))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: partition %s of %s.%s", catalog.ErrNotFound, name, db, table)
	}
	return nil
}

func (s *PebbleStore) ListPartitions(db, table string) ([]catalog.Partition, error) {
	parts := make([]catalog.Partition, 0)
	err := s.scan(prtScanPrefix(db, table), func(_, value []byte) error {
		var p catalog.Partition
		if err := json.Unmarshal(value, &p); err != nil {
			return err
		}
		parts = append(parts, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func (s *PebbleStore) PartitionNames(db, table string) ([]string, error) {
	return s.scanNames(prtScanPrefix(db, table))
}

func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *PebbleStore) put(key []byte, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Set(key, buf, pebble.NoSync)
}

// get unmarshals the value at key into out, reporting whether the key was
// present at all.
func (s *PebbleStore) get(key []byte, out any) (bool, error) {
	buf, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	defer closer.Close()
	if err := json.Unmarshal(buf, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PebbleStore) exists(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	return true, nil
}

// delete removes key, reporting whether it was present.
func (s *PebbleStore) delete(key []byte) (bool, error) {
	ok, err := s.exists(key)
	if err != nil || !ok {
		return ok, err
	}
	return true, s.db.Delete(key, pebble.NoSync)
}

func (s *PebbleStore) scan(prefix []byte, visit func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := visit(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// scanNames lists the key suffixes under prefix, in key order.
func (s *PebbleStore) scanNames(prefix []byte) ([]string, error) {
	names := make([]string, 0)
	err := s.scan(prefix, func(key, _ []byte) error {
		names = append(names, string(key[len(prefix):]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
