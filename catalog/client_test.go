package catalog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tclemos/catalog-bench/catalog"
	"github.com/tclemos/catalog-bench/catalog/catalogtest"
)

func newTestClient(t *testing.T) (context.Context, *catalog.Client) {
	t.Helper()
	srv := httptest.NewServer(catalogtest.NewServer(catalogtest.NewMemoryStore()))
	t.Cleanup(srv.Close)
	c := catalog.NewClient(srv.URL)
	t.Cleanup(c.Close)
	return context.Background(), c
}

func mustDatabase(t *testing.T, ctx context.Context, c *catalog.Client, name string) {
	t.Helper()
	require.NoError(t, c.CreateDatabase(ctx, &catalog.Database{Name: name}))
}

func mustTable(t *testing.T, ctx context.Context, c *catalog.Client, db, name string, partitioned bool) *catalog.Table {
	t.Helper()
	var keys []catalog.FieldSchema
	if partitioned {
		keys = []catalog.FieldSchema{{Name: "date", Type: catalog.TypeString}}
	}
	tbl, err := catalog.NewTable(db, name, []catalog.FieldSchema{
		{Name: "id", Type: catalog.TypeInt},
		{Name: "name", Type: catalog.TypeString},
	}, keys)
	require.NoError(t, err)
	require.NoError(t, c.CreateTable(ctx, tbl))
	return tbl
}

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9083", catalog.ServerURL("", 0))
	assert.Equal(t, "http://10.0.0.5:1234", catalog.ServerURL("10.0.0.5", 1234))
}

func TestClient_DatabaseLifecycle(t *testing.T) {
	ctx, c := newTestClient(t)

	require.NoError(t, c.CreateDatabase(ctx, &catalog.Database{
		Name:        "bench",
		Description: "scratch space",
	}))

	ok, err := c.DatabaseExists(ctx, "bench")
	require.NoError(t, err)
	assert.True(t, ok)

	db, err := c.GetDatabase(ctx, "bench")
	require.NoError(t, err)
	assert.Equal(t, "bench", db.Name)
	assert.Equal(t, "scratch space", db.Description)

	names, err := c.ListDatabases(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"bench"}, names)

	require.NoError(t, c.DropDatabase(ctx, "bench", false))

	ok, err = c.DatabaseExists(ctx, "bench")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_GetDatabase_NotFound(t *testing.T) {
	ctx, c := newTestClient(t)

	_, err := c.GetDatabase(ctx, "ghost")
	assert.True(t, catalog.IsNotFound(err))
}

func TestClient_CreateDatabase_Duplicate(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")

	err := c.CreateDatabase(ctx, &catalog.Database{Name: "bench"})
	assert.True(t, catalog.IsAlreadyExists(err))
}

func TestClient_DropDatabase_NonEmptyNeedsCascade(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	mustTable(t, ctx, c, "bench", "t0", false)

	err := c.DropDatabase(ctx, "bench", false)
	require.Error(t, err)
	assert.ErrorContains(t, err, "not empty")

	require.NoError(t, c.DropDatabase(ctx, "bench", true))

	ok, err := c.DatabaseExists(ctx, "bench")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ListDatabases_Pattern(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench_a")
	mustDatabase(t, ctx, c, "bench_b")
	mustDatabase(t, ctx, c, "other")

	names, err := c.ListDatabases(ctx, "bench_*")
	require.NoError(t, err)
	assert.Equal(t, []string{"bench_a", "bench_b"}, names)

	names, err = c.ListDatabases(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"bench_a", "bench_b", "other"}, names)
}

func TestClient_TableLifecycle(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	want := mustTable(t, ctx, c, "bench", "events", true)

	ok, err := c.TableExists(ctx, "bench", "events")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := c.GetTable(ctx, "bench", "events")
	require.NoError(t, err)
	assert.Equal(t, want.Columns, got.Columns)
	assert.Equal(t, want.PartitionKeys, got.PartitionKeys)

	mustTable(t, ctx, c, "bench", "audit", false)
	names, err := c.ListTables(ctx, "bench")
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "events"}, names, "table names come back sorted")

	require.NoError(t, c.DropTable(ctx, "bench", "events"))

	ok, err = c.TableExists(ctx, "bench", "events")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.GetTable(ctx, "bench", "events")
	assert.True(t, catalog.IsNotFound(err))
}

func TestClient_AlterTable_InPlaceKeepsPartitions(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	tbl := mustTable(t, ctx, c, "bench", "events", true)

	p, err := catalog.NewPartition(tbl, []string{"d0"})
	require.NoError(t, err)
	require.NoError(t, c.AddPartition(ctx, p))

	tbl.Owner = "benchmarks"
	require.NoError(t, c.AlterTable(ctx, "bench", "events", tbl))

	got, err := c.GetTable(ctx, "bench", "events")
	require.NoError(t, err)
	assert.Equal(t, "benchmarks", got.Owner)

	names, err := c.PartitionNames(ctx, "bench", "events")
	require.NoError(t, err)
	assert.Equal(t, []string{"date=d0"}, names, "an in-place alter keeps the partitions")
}

func TestClient_AlterTable_RenameMovesPartitions(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	tbl := mustTable(t, ctx, c, "bench", "events", true)

	for _, v := range []string{"d0", "d1"} {
		p, err := catalog.NewPartition(tbl, []string{v})
		require.NoError(t, err)
		require.NoError(t, c.AddPartition(ctx, p))
	}

	renamed := *tbl
	renamed.Name = "events_renamed"
	require.NoError(t, c.AlterTable(ctx, "bench", "events", &renamed))

	_, err := c.GetTable(ctx, "bench", "events")
	assert.True(t, catalog.IsNotFound(err), "the old name is gone after a rename")

	names, err := c.PartitionNames(ctx, "bench", "events_renamed")
	require.NoError(t, err)
	assert.Equal(t, []string{"date=d0", "date=d1"}, names)

	parts, err := c.ListPartitions(ctx, "bench", "events_renamed")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "events_renamed", parts[0].Table)
}

func TestClient_PartitionLifecycle(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	tbl := mustTable(t, ctx, c, "bench", "events", true)

	p0, err := catalog.NewPartition(tbl, []string{"d0"})
	require.NoError(t, err)
	require.NoError(t, c.AddPartition(ctx, p0))

	var batch []*catalog.Partition
	for _, v := range []string{"d1", "d2"} {
		p, err := catalog.NewPartition(tbl, []string{v})
		require.NoError(t, err)
		batch = append(batch, p)
	}
	require.NoError(t, c.AddPartitions(ctx, "bench", "events", batch))

	names, err := c.PartitionNames(ctx, "bench", "events")
	require.NoError(t, err)
	assert.Equal(t, []string{"date=d0", "date=d1", "date=d2"}, names)

	parts, err := c.ListPartitions(ctx, "bench", "events")
	require.NoError(t, err)
	assert.Len(t, parts, 3)
	assert.Equal(t, []string{"d0"}, parts[0].Values)

	parts, err = c.PartitionsByNames(ctx, "bench", "events", []string{"date=d2", "date=ghost"})
	require.NoError(t, err)
	require.Len(t, parts, 1, "unknown names are skipped, not errors")
	assert.Equal(t, []string{"d2"}, parts[0].Values)

	require.NoError(t, c.DropPartitions(ctx, "bench", "events", []string{"date=d0", "date=d1"}))
	require.NoError(t, c.DropPartition(ctx, "bench", "events", "date=d2"))

	parts, err = c.ListPartitions(ctx, "bench", "events")
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestClient_DropPartition_Missing(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	mustTable(t, ctx, c, "bench", "events", true)

	err := c.DropPartition(ctx, "bench", "events", "date=ghost")
	assert.True(t, catalog.IsNotFound(err), "drops are strict about the names they are given")
}

func TestClient_AddPartition_ArityMismatch(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")
	mustTable(t, ctx, c, "bench", "events", true)

	err := c.AddPartition(ctx, &catalog.Partition{
		Database: "bench",
		Table:    "events",
		Values:   []string{"d0", "extra"},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "partition keys")
}

func TestClient_AddPartition_UnknownTable(t *testing.T) {
	ctx, c := newTestClient(t)
	mustDatabase(t, ctx, c, "bench")

	err := c.AddPartition(ctx, &catalog.Partition{
		Database: "bench",
		Table:    "ghost",
		Values:   []string{"d0"},
	})
	assert.True(t, catalog.IsNotFound(err))
}

func TestClient_CurrentNotificationID(t *testing.T) {
	ctx, c := newTestClient(t)

	start, err := c.CurrentNotificationID(ctx)
	require.NoError(t, err)

	mustDatabase(t, ctx, c, "bench")
	afterCreate, err := c.CurrentNotificationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, start+1, afterCreate, "mutations advance the counter")

	_, err = c.ListDatabases(ctx, "")
	require.NoError(t, err)
	_, err = c.GetDatabase(ctx, "bench")
	require.NoError(t, err)

	afterReads, err := c.CurrentNotificationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, afterCreate, afterReads, "reads leave the counter alone")

	require.NoError(t, c.DropDatabase(ctx, "bench", false))
	afterDrop, err := c.CurrentNotificationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, afterReads+1, afterDrop)
}
