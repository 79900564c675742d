package workload

import (
	"context"
	"fmt"

	"github.com/tclemos/catalog-bench/benchmark"
)

// registerListTables times listing the benchmark database. With a non-zero
// count, that many tables are created up front and dropped afterwards, so
// the timed call always scans a database of known size.
func registerListTables(ctx context.Context, s *benchmark.Suite, d *Data, name string, tables int) error {
	op := func() error {
		_, err := d.Client.ListTables(ctx, d.Database)
		return err
	}
	if tables == 0 {
		return s.Add(name, op)
	}

	setup := func() error {
		for i := 0; i < tables; i++ {
			t := d.makeTable(d.Database, fmt.Sprintf("%s_%d", d.Table, i), false)
			if err := d.Client.CreateTable(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}
	cleanup := func() error {
		for i := 0; i < tables; i++ {
			if err := d.Client.DropTable(ctx, d.Database, fmt.Sprintf("%s_%d", d.Table, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return s.Add(name, op, benchmark.WithSetup(setup), benchmark.WithCleanup(cleanup))
}

func registerGetTable(ctx context.Context, s *benchmark.Suite, d *Data) error {
	return s.Add("getTable",
		func() error {
			_, err := d.Client.GetTable(ctx, d.Database, d.Table)
			return err
		},
		benchmark.WithSetup(func() error {
			return d.Client.CreateTable(ctx, d.makeTable(d.Database, d.Table, false))
		}),
		benchmark.WithCleanup(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}

// registerCreateTable times table creation; the untimed after hook drops the
// table again so every iteration creates from scratch.
func registerCreateTable(ctx context.Context, s *benchmark.Suite, d *Data) error {
	return s.Add("createTable",
		func() error {
			return d.Client.CreateTable(ctx, d.makeTable(d.Database, d.Table, false))
		},
		benchmark.WithAfter(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}

// registerDropTable is the mirror image: the untimed before hook creates,
// the timed operation drops.
func registerDropTable(ctx context.Context, s *benchmark.Suite, d *Data) error {
	return s.Add("dropTable",
		func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		},
		benchmark.WithBefore(func() error {
			return d.Client.CreateTable(ctx, d.makeTable(d.Database, d.Table, false))
		}),
	)
}

// registerDropTableWithPartitions times dropping a table that still holds
// the given number of partitions, rebuilt before every iteration.
func registerDropTableWithPartitions(ctx context.Context, s *benchmark.Suite, d *Data, name string, partitions int) error {
	build := func() error {
		t := d.makeTable(d.Database, d.Table, true)
		if err := d.Client.CreateTable(ctx, t); err != nil {
			return err
		}
		parts, err := makePartitions(t, partitions)
		if err != nil {
			return err
		}
		return d.Client.AddPartitions(ctx, d.Database, d.Table, parts)
	}
	return s.Add(name,
		func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		},
		benchmark.WithBefore(build),
	)
}

// registerRenameTable times renaming back and forth between the benchmark
// table name and a _renamed twin. With a non-zero partition count the table
// carries that many partitions through every rename.
func registerRenameTable(ctx context.Context, s *benchmark.Suite, d *Data, name string, partitions int) error {
	renamed := d.Table + "_renamed"
	current := d.Table

	setup := func() error {
		current = d.Table
		t := d.makeTable(d.Database, d.Table, partitions > 0)
		if err := d.Client.CreateTable(ctx, t); err != nil {
			return err
		}
		if partitions > 0 {
			parts, err := makePartitions(t, partitions)
			if err != nil {
				return err
			}
			return d.Client.AddPartitions(ctx, d.Database, d.Table, parts)
		}
		return nil
	}

	op := func() error {
		next := renamed
		if current == renamed {
			next = d.Table
		}
		t := d.makeTable(d.Database, next, partitions > 0)
		if err := d.Client.AlterTable(ctx, d.Database, current, t); err != nil {
			return err
		}
		current = next
		return nil
	}

	cleanup := func() error {
		return d.Client.DropTable(ctx, d.Database, current)
	}

	return s.Add(name, op, benchmark.WithSetup(setup), benchmark.WithCleanup(cleanup))
}
