package workload

import (
	"context"
	"fmt"

	"github.com/tclemos/catalog-bench/benchmark"
	"github.com/tclemos/catalog-bench/catalog"
)

// registerAddPartition times adding a single partition to a standing table;
// the after hook removes it again so every iteration adds a fresh one.
func registerAddPartition(ctx context.Context, s *benchmark.Suite, d *Data) error {
	t := d.makeTable(d.Database, d.Table, true)
	names := partitionNames(t, 1)

	return s.Add("addPartition",
		func() error {
			parts, err := makePartitions(t, 1)
			if err != nil {
				return err
			}
			return d.Client.AddPartition(ctx, parts[0])
		},
		benchmark.WithSetup(func() error {
			return d.Client.CreateTable(ctx, t)
		}),
		benchmark.WithAfter(func() error {
			return d.Client.DropPartitions(ctx, d.Database, d.Table, names)
		}),
		benchmark.WithCleanup(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}

// registerDropPartition is the mirror image: the before hook adds the
// partition, the timed operation drops it.
func registerDropPartition(ctx context.Context, s *benchmark.Suite, d *Data) error {
	t := d.makeTable(d.Database, d.Table, true)
	names := partitionNames(t, 1)

	return s.Add("dropPartition",
		func() error {
			return d.Client.DropPartition(ctx, d.Database, d.Table, names[0])
		},
		benchmark.WithSetup(func() error {
			return d.Client.CreateTable(ctx, t)
		}),
		benchmark.WithBefore(func() error {
			parts, err := makePartitions(t, 1)
			if err != nil {
				return err
			}
			return d.Client.AddPartition(ctx, parts[0])
		}),
		benchmark.WithCleanup(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}

// registerAddPartitions times adding n partitions in one batch call; the
// after hook drops them all again.
func registerAddPartitions(ctx context.Context, s *benchmark.Suite, d *Data, name string, n int) error {
	t := d.makeTable(d.Database, d.Table, true)
	names := partitionNames(t, n)

	return s.Add(name,
		func() error {
			parts, err := makePartitions(t, n)
			if err != nil {
				return err
			}
			return d.Client.AddPartitions(ctx, d.Database, d.Table, parts)
		},
		benchmark.WithSetup(func() error {
			return d.Client.CreateTable(ctx, t)
		}),
		benchmark.WithAfter(func() error {
			return d.Client.DropPartitions(ctx, d.Database, d.Table, names)
		}),
		benchmark.WithCleanup(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}

// registerDropPartitions times the batch drop of n partitions, re-added
// before every iteration.
func registerDropPartitions(ctx context.Context, s *benchmark.Suite, d *Data, name string, n int) error {
	t := d.makeTable(d.Database, d.Table, true)
	names := partitionNames(t, n)

	return s.Add(name,
		func() error {
			return d.Client.DropPartitions(ctx, d.Database, d.Table, names)
		},
		benchmark.WithSetup(func() error {
			return d.Client.CreateTable(ctx, t)
		}),
		benchmark.WithBefore(func() error {
			parts, err := makePartitions(t, n)
			if err != nil {
				return err
			}
			return d.Client.AddPartitions(ctx, d.Database, d.Table, parts)
		}),
		benchmark.WithCleanup(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}

// withPartitionedTable registers a read-only benchmark over a table that
// holds n partitions for the whole entry.
func withPartitionedTable(ctx context.Context, s *benchmark.Suite, d *Data, name string, n int, op benchmark.Operation) error {
	t := d.makeTable(d.Database, d.Table, true)

	setup := func() error {
		if err := d.Client.CreateTable(ctx, t); err != nil {
			return err
		}
		parts, err := makePartitions(t, n)
		if err != nil {
			return err
		}
		return d.Client.AddPartitions(ctx, d.Database, d.Table, parts)
	}
	cleanup := func() error {
		return d.Client.DropTable(ctx, d.Database, d.Table)
	}
	return s.Add(name, op, benchmark.WithSetup(setup), benchmark.WithCleanup(cleanup))
}

func registerListPartitions(ctx context.Context, s *benchmark.Suite, d *Data, name string, n int) error {
	return withPartitionedTable(ctx, s, d, name, n, func() error {
		_, err := d.Client.ListPartitions(ctx, d.Database, d.Table)
		return err
	})
}

func registerGetPartitionNames(ctx context.Context, s *benchmark.Suite, d *Data, name string, n int) error {
	return withPartitionedTable(ctx, s, d, name, n, func() error {
		_, err := d.Client.PartitionNames(ctx, d.Database, d.Table)
		return err
	})
}

func registerGetPartitionsByNames(ctx context.Context, s *benchmark.Suite, d *Data, name string, n int) error {
	t := d.makeTable(d.Database, d.Table, true)
	names := partitionNames(t, n)
	return withPartitionedTable(ctx, s, d, name, n, func() error {
		_, err := d.Client.PartitionsByNames(ctx, d.Database, d.Table, names)
		return err
	})
}

// registerConcurrentPartitionAdd times partition adds issued by the whole
// worker pool against one table. Values come from the (worker, iteration)
// pair, so writers never collide.
func registerConcurrentPartitionAdd(ctx context.Context, s *benchmark.Suite, d *Data) error {
	t := d.makeTable(d.Database, d.Table, true)
	name := fmt.Sprintf("concurrentPartitionAdd#%d", s.Threads())

	factory := func(worker int) benchmark.WorkerOperation {
		return func(iteration int) error {
			p, err := catalog.NewPartition(t, []string{fmt.Sprintf("w%d_i%d", worker, iteration)})
			if err != nil {
				return err
			}
			return d.Client.AddPartition(ctx, p)
		}
	}

	return s.AddConcurrent(name, factory,
		benchmark.WithSetup(func() error {
			return d.Client.CreateTable(ctx, t)
		}),
		benchmark.WithCleanup(func() error {
			return d.Client.DropTable(ctx, d.Database, d.Table)
		}),
	)
}
