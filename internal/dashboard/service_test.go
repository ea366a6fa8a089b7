package dashboard

import (
	"context"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"asset-tracker/internal/cache"
	"asset-tracker/internal/database"
	"asset-tracker/internal/logger"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/models"
	"asset-tracker/internal/oplog"
	"asset-tracker/internal/stockin"
	"asset-tracker/internal/stockout"
	"asset-tracker/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *database.Store) {
	t.Helper()
	store, _ := testutil.Store(t)
	log := logger.Discard()
	m := metrics.New()
	svc := NewService(store, cache.NewMemory(), time.Minute,
		stockin.NewService(store, log, m), stockout.NewService(store, log, m), log)
	return svc, store
}

func TestSummaryCountsAndBuckets(t *testing.T) {
	svc, store := newService(t)
	testutil.CreateAsset(t, store, "Laptop", "computer", "Eng")
	testutil.CreateAsset(t, store, "Laptop", "computer", "Eng")
	testutil.CreateAsset(t, store, "Monitor", "monitor", "Ops")
	scrapped := testutil.CreateAsset(t, store, "Old", "monitor", "")
	require.NoError(t, store.DB().Model(&scrapped).Update("status", models.StatusScrapped).Error)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AssetStats{Total: 4, InStock: 3, Scrapped: 1}, sum.AssetStats)
	assert.Equal(t, []Bucket{
		{Name: "computer", Label: "Computer", Count: 2},
		{Name: "monitor", Label: "Monitor", Count: 2},
	}, sortBuckets(sum.AssetsByType))
	assert.ElementsMatch(t, []Bucket{
		{Name: "Eng", Label: "Eng", Count: 2},
		{Name: "Ops", Label: "Ops", Count: 1},
	}, sum.AssetsByDepartment)
	assert.Empty(t, sum.RecentStockIn)
	assert.Empty(t, sum.AllOperations)
}

func TestSummaryIsCachedUntilInvalidated(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	testutil.CreateAsset(t, store, "Laptop", "computer", "")

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, first.AssetStats.Total)

	testutil.CreateAsset(t, store, "Laptop", "computer", "")
	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached.AssetStats.Total)

	svc.Invalidate(ctx)
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.AssetStats.Total)
}

func TestSummaryBuiltAcrossInvalidationIsNotCached(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	testutil.CreateAsset(t, store, "Laptop", "computer", "")

	// a write lands while the summary is being built
	once := true
	svc.now = func() time.Time {
		if once {
			once = false
			svc.Invalidate(ctx)
		}
		return time.Now()
	}
	_, err := svc.Summary(ctx)
	require.NoError(t, err)

	_, err = svc.cache.Get(ctx, cacheKey)
	assert.ErrorIs(t, err, cache.ErrMiss)

	testutil.CreateAsset(t, store, "Laptop", "computer", "")
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.AssetStats.Total)

	_, err = svc.cache.Get(ctx, cacheKey)
	assert.NoError(t, err)
}

func TestInvalidateOnWriteMiddleware(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	testutil.CreateAsset(t, store, "Laptop", "computer", "")
	_, err := svc.Summary(ctx)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(InvalidateOnWrite(svc))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/fail", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadRequest) })
	app.Post("/x", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	cached := func() bool {
		_, err := svc.cache.Get(ctx, cacheKey)
		return err == nil
	}

	for _, req := range []struct{ method, path string }{{"GET", "/x"}, {"POST", "/fail"}} {
		resp, err := app.Test(httptest.NewRequest(req.method, req.path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.True(t, cached(), "%s %s should keep the cache", req.method, req.path)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/x", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, cached())
}

func TestMergeFeedNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	in := []stockin.BatchResponse{{ID: 1, BatchNo: "IN-1", CreatedAt: base}}
	out := []stockout.BatchResponse{{ID: 2, BatchNo: "OUT-1", Recipient: "Alice", CreatedAt: base.Add(2 * time.Hour)}}
	ops := []oplog.OperationResponse{{ID: 3, OperationType: models.OperationReturn, AssetName: "Laptop", CreatedAt: base.Add(time.Hour)}}

	feed := mergeFeed(in, out, ops)
	require.Len(t, feed, 3)
	assert.Equal(t, []string{"stock_out", "return", "stock_in"}, []string{feed[0].Kind, feed[1].Kind, feed[2].Kind})
	assert.Equal(t, "Laptop", feed[1].Reference)
	assert.Equal(t, "Alice", feed[0].Detail)
}

func sortBuckets(b []Bucket) []Bucket {
	out := append([]Bucket(nil), b...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
