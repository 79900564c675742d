package workload

import (
	"context"
	"fmt"

	"github.com/tclemos/catalog-bench/benchmark"
	"github.com/tclemos/catalog-bench/catalog"
)

// registerGetNid times the cheapest service round-trip: reading the
// notification counter.
func registerGetNid(ctx context.Context, s *benchmark.Suite, d *Data) error {
	return s.Add("getNid", func() error {
		_, err := d.Client.CurrentNotificationID(ctx)
		return err
	})
}

func registerListDatabases(ctx context.Context, s *benchmark.Suite, d *Data) error {
	return s.Add("listDatabases", func() error {
		_, err := d.Client.ListDatabases(ctx, "")
		return err
	})
}

// registerDropDatabase times dropping a scratch database holding the given
// number of tables. The scratch database is rebuilt before every iteration,
// warmup included, so the timed drop always sees the same shape.
func registerDropDatabase(ctx context.Context, s *benchmark.Suite, d *Data, name string, tables int) error {
	scratch := d.Database + "_scratch"

	build := func() error {
		if err := d.Client.CreateDatabase(ctx, &catalog.Database{Name: scratch}); err != nil {
			return err
		}
		for i := 0; i < tables; i++ {
			t := d.makeTable(scratch, fmt.Sprintf("%s_%d", d.Table, i), false)
			if err := d.Client.CreateTable(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}

	return s.Add(name, func() error {
		return d.Client.DropDatabase(ctx, scratch, true)
	}, benchmark.WithBefore(build))
}
