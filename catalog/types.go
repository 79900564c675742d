package catalog

import "strings"

// Column types used by the benchmark schema builders. The service stores
// types as opaque strings, so anything is legal on the wire.
const (
	TypeString = "string"
	TypeInt    = "int"
)

// FieldSchema is one column or partition key.
type FieldSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Database is a namespace for tables.
type Database struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// Table is a column schema plus partitioning layout inside a database.
type Table struct {
	Database      string            `json:"database"`
	Name          string            `json:"name"`
	Owner         string            `json:"owner,omitempty"`
	Location      string            `json:"location,omitempty"`
	Columns       []FieldSchema     `json:"columns"`
	PartitionKeys []FieldSchema     `json:"partition_keys,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`
}

// Partition is one concrete value assignment for a table's partition keys.
type Partition struct {
	Database   string            `json:"database"`
	Table      string            `json:"table"`
	Values     []string          `json:"values"`
	Location   string            `json:"location,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// PartitionName renders the canonical k=v/k=v name for a value assignment.
// Keys or values beyond the shorter of the two slices are ignored.
func PartitionName(keys []FieldSchema, values []string) string {
	n := len(keys)
	if len(values) < n {
		n = len(values)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = keys[i].Name + "=" + values[i]
	}
	return strings.Join(parts, "/")
}
