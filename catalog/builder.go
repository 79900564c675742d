package catalog

import (
	"fmt"
	"strings"
)

// ParseSchema turns "name:type" declarations into field schemas. A bare name
// without a type defaults to string; empty entries are skipped.
func ParseSchema(decls []string) []FieldSchema {
	fields := make([]FieldSchema, 0, len(decls))
	for _, decl := range decls {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, typ, ok := strings.Cut(decl, ":")
		if !ok || typ == "" {
			typ = TypeString
		}
		fields = append(fields, FieldSchema{Name: name, Type: typ})
	}
	return fields
}

// NewTable assembles a table object, validating that it is addressable and
// has at least one column. The field slices are copied so callers can reuse
// theirs.
func NewTable(db, name string, columns, partitionKeys []FieldSchema) (*Table, error) {
	if db == "" || name == "" {
		return nil, fmt.Errorf("%w: table needs a database and a name", ErrInvalidObject)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s.%s has no columns", ErrInvalidObject, db, name)
	}
	return &Table{
		Database:      db,
		Name:          name,
		Columns:       append([]FieldSchema(nil), columns...),
		PartitionKeys: append([]FieldSchema(nil), partitionKeys...),
	}, nil
}

// NewPartition assembles a partition of t for the given key values. The
// value count must match the table's partition keys exactly.
func NewPartition(t *Table, values []string) (*Partition, error) {
	if len(values) != len(t.PartitionKeys) {
		return nil, fmt.Errorf("%w: table %s.%s has %d partition keys, got %d values",
			ErrInvalidObject, t.Database, t.Name, len(t.PartitionKeys), len(values))
	}
	p := &Partition{
		Database: t.Database,
		Table:    t.Name,
		Values:   append([]string(nil), values...),
	}
	if t.Location != "" {
		p.Location = t.Location + "/" + PartitionName(t.PartitionKeys, values)
	}
	return p, nil
}
