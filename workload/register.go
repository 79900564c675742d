package workload

import (
	"context"
	"fmt"

	"github.com/tclemos/catalog-bench/benchmark"
)

// RegisterAll registers the full benchmark catalog on s in its canonical
// order: the single-object benchmarks, then the count-parameterized .N
// variants for every N in counts, then the concurrent partition add sized
// to the suite's worker pool. Registration fails on a duplicate name, which
// a repeated count would produce.
func RegisterAll(ctx context.Context, s *benchmark.Suite, d *Data, counts []int) error {
	if err := registerGetNid(ctx, s, d); err != nil {
		return err
	}
	if err := registerListDatabases(ctx, s, d); err != nil {
		return err
	}
	if err := registerListTables(ctx, s, d, "listTables", 0); err != nil {
		return err
	}
	if err := registerGetTable(ctx, s, d); err != nil {
		return err
	}
	if err := registerCreateTable(ctx, s, d); err != nil {
		return err
	}
	if err := registerDropTable(ctx, s, d); err != nil {
		return err
	}
	if err := registerDropTableWithPartitions(ctx, s, d, "dropTableWithPartitions", 1); err != nil {
		return err
	}
	if err := registerAddPartition(ctx, s, d); err != nil {
		return err
	}
	if err := registerDropPartition(ctx, s, d); err != nil {
		return err
	}
	if err := registerListPartitions(ctx, s, d, "listPartitions", 1); err != nil {
		return err
	}
	if err := registerGetPartitionNames(ctx, s, d, "getPartitionNames", 1); err != nil {
		return err
	}
	if err := registerGetPartitionsByNames(ctx, s, d, "getPartitionsByNames", 1); err != nil {
		return err
	}
	if err := registerRenameTable(ctx, s, d, "renameTable", 0); err != nil {
		return err
	}
	if err := registerDropDatabase(ctx, s, d, "dropDatabase", 0); err != nil {
		return err
	}

	for _, n := range counts {
		if err := registerListTables(ctx, s, d, fmt.Sprintf("listTables.%d", n), n); err != nil {
			return err
		}
		if err := registerDropTableWithPartitions(ctx, s, d, fmt.Sprintf("dropTableWithPartitions.%d", n), n); err != nil {
			return err
		}
		if err := registerAddPartitions(ctx, s, d, fmt.Sprintf("addPartitions.%d", n), n); err != nil {
			return err
		}
		if err := registerDropPartitions(ctx, s, d, fmt.Sprintf("dropPartitions.%d", n), n); err != nil {
			return err
		}
		if err := registerListPartitions(ctx, s, d, fmt.Sprintf("listPartitions.%d", n), n); err != nil {
			return err
		}
		if err := registerGetPartitionNames(ctx, s, d, fmt.Sprintf("getPartitionNames.%d", n), n); err != nil {
			return err
		}
		if err := registerGetPartitionsByNames(ctx, s, d, fmt.Sprintf("getPartitionsByNames.%d", n), n); err != nil {
			return err
		}
		if err := registerRenameTable(ctx, s, d, fmt.Sprintf("renameTable.%d", n), n); err != nil {
			return err
		}
		if err := registerDropDatabase(ctx, s, d, fmt.Sprintf("dropDatabase.%d", n), n); err != nil {
			return err
		}
	}

	return registerConcurrentPartitionAdd(ctx, s, d)
}
