// Package workload is the benchmark catalog: every timed catalog operation,
// its lifecycle hooks keeping mutations repeatable, and the canonical order
// the tool registers them in.
package workload

import (
	"context"
	"fmt"
	"slices"

	"github.com/tclemos/catalog-bench/catalog"
)

// Data carries what every benchmark body needs: the shared client and the
// object names it may touch. One instance is shared by all entries of a
// suite; entries clean up after themselves, so runs leave the service the
// way they found it apart from the benchmark database.
type Data struct {
	Client   *catalog.Client
	Database string
	Table    string
	// Params is the number of synthetic parameters attached to every
	// benchmark table, for sizing object payloads.
	Params int
}

var (
	benchColumns = []catalog.FieldSchema{
		{Name: "id", Type: catalog.TypeInt},
		{Name: "name", Type: catalog.TypeString},
	}
	benchPartitionKeys = []catalog.FieldSchema{
		{Name: "date", Type: catalog.TypeString},
	}
)

// makeTable builds the standard benchmark table object in the given
// database.
func (d *Data) makeTable(db, name string, partitioned bool) *catalog.Table {
	t := &catalog.Table{
		Database: db,
		Name:     name,
		Columns:  slices.Clone(benchColumns),
	}
	if partitioned {
		t.PartitionKeys = slices.Clone(benchPartitionKeys)
	}
	if d.Params > 0 {
		t.Parameters = make(map[string]string, d.Params)
		for i := 0; i < d.Params; i++ {
			t.Parameters[fmt.Sprintf("param_%d", i)] = fmt.Sprintf("value_%d", i)
		}
	}
	return t
}

// makePartitions builds n partitions of t with key values d0..d(n-1).
func makePartitions(t *catalog.Table, n int) ([]*catalog.Partition, error) {
	parts := make([]*catalog.Partition, 0, n)
	for i := 0; i < n; i++ {
		p, err := catalog.NewPartition(t, []string{fmt.Sprintf("d%d", i)})
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// partitionNames lists the canonical names of the d0..d(n-1) partitions.
func partitionNames(t *catalog.Table, n int) []string {
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, catalog.PartitionName(t.PartitionKeys, []string{fmt.Sprintf("d%d", i)}))
	}
	return names
}

// Prepare makes the benchmark database usable before a run: it creates the
// database when missing and clears a leftover benchmark table from an
// earlier aborted run.
func Prepare(ctx context.Context, d *Data) error {
	ok, err := d.Client.DatabaseExists(ctx, d.Database)
	if err != nil {
		return fmt.Errorf("checking database %s: %w", d.Database, err)
	}
	if !ok {
		if err := d.Client.CreateDatabase(ctx, &catalog.Database{Name: d.Database}); err != nil {
			return fmt.Errorf("creating database %s: %w", d.Database, err)
		}
	}
	if err := d.Client.DropTable(ctx, d.Database, d.Table); err != nil && !catalog.IsNotFound(err) {
		return fmt.Errorf("dropping leftover table %s.%s: %w", d.Database, d.Table, err)
	}
	return nil
}
