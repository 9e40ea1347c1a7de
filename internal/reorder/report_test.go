package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
)

func TestGetReportAggregates(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Low item", CostPrice: 2, ReorderLevel: 20})
	f.addStock(1, 1, 5, 0)
	f.addItem(catalog.Item{ID: 2, SKU: "B-001", Name: "Healthy", ReorderLevel: 10})
	f.addStock(2, 1, 100, 0)
	f.addAlert(Alert{ItemID: 1})
	f.addAlert(Alert{ItemID: 2, Status: AlertStatusResolved})

	auto := true
	level := 20.0
	_, err := f.service.UpdateSettings(context.Background(), testOrg, 1, 0, 99, SettingsPatch{ReorderLevel: &level, AutoReorder: &auto})
	require.NoError(t, err)

	f.sales.avgDaily[1] = 2.5

	report, err := f.service.GetReport(context.Background(), testOrg)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalSuggestions)
	require.Equal(t, 1, report.AlertCounts[AlertStatusPending])
	require.Equal(t, 1, report.AlertCounts[AlertStatusResolved])
	require.Equal(t, 1, report.AutoReorderEnabled)
	require.Len(t, report.Coverage, 1)
	require.Equal(t, 2, report.Coverage[0].CoverageDays, "5 on hand at 2.5 per day")
}

func TestCoverageDaysEdgeCases(t *testing.T) {
	require.Equal(t, 0, coverageDays(0, 0), "no stock and no demand")
	require.Equal(t, CoverageVeryLong, coverageDays(50, 0), "stock but no demand")
	require.Equal(t, 10, coverageDays(50, 5))
	require.Equal(t, 17, coverageDays(50, 3), "rounded, not truncated")
}

func TestGetReportCachedUntilBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture()
	f.service.cache = NewReportCache(client, time.Minute)
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Low item", ReorderLevel: 20})
	f.addStock(1, 1, 5, 0)

	ctx := context.Background()
	first, err := f.service.GetReport(ctx, testOrg)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalSuggestions)

	// A new alert does not show until the cache version moves.
	f.addAlert(Alert{ItemID: 1})
	cached, err := f.service.GetReport(ctx, testOrg)
	require.NoError(t, err)
	require.Zero(t, cached.AlertCounts[AlertStatusPending])

	require.NoError(t, f.service.cache.Bump(ctx, testOrg))
	fresh, err := f.service.GetReport(ctx, testOrg)
	require.NoError(t, err)
	require.Equal(t, 1, fresh.AlertCounts[AlertStatusPending])
}

func TestReportCacheVersionsAreScopedPerOrg(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewReportCache(client, time.Minute)
	ctx := context.Background()

	keyOne, err := cache.BuildKey(ctx, 1)
	require.NoError(t, err)
	keyTwo, err := cache.BuildKey(ctx, 2)
	require.NoError(t, err)
	require.NotEqual(t, keyOne, keyTwo)

	require.NoError(t, cache.Bump(ctx, 1))
	bumped, err := cache.BuildKey(ctx, 1)
	require.NoError(t, err)
	require.NotEqual(t, keyOne, bumped)

	unchanged, err := cache.BuildKey(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, keyTwo, unchanged)
}

func TestReportCacheNilSafe(t *testing.T) {
	var cache *ReportCache
	ctx := context.Background()

	require.NoError(t, cache.Bump(ctx, 1))
	var out int
	err := cache.FetchJSON(ctx, "k", &out, func(context.Context) (interface{}, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, out)
}
