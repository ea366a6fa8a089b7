package dashboard

import (
	"testing"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/lifecycle"
	"asset-tracker/internal/logger"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/stockin"
	"asset-tracker/internal/stockout"
	"asset-tracker/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketStart(t *testing.T) {
	// Thursday
	ts := time.Date(2024, 5, 16, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), bucketStart(PeriodDaily, ts))
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), bucketStart(PeriodWeekly, ts))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), bucketStart(PeriodMonthly, ts))

	sunday := time.Date(2024, 5, 19, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), bucketStart(PeriodWeekly, sunday))
}

func TestTrendsWindow(t *testing.T) {
	svc, _ := newService(t)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local) }

	daily, err := svc.Trends("", 0)
	require.NoError(t, err)
	assert.Equal(t, PeriodDaily, daily.Period)
	require.Len(t, daily.Points, 7)
	assert.Equal(t, "2024-03-09", daily.From)
	assert.Equal(t, "2024-03-15", daily.To)

	monthly, err := svc.Trends(PeriodMonthly, 3)
	require.NoError(t, err)
	require.Len(t, monthly.Points, 3)
	assert.Equal(t, "2024-01-01", monthly.Points[0].Label)
	assert.Equal(t, "2024-03-31", monthly.To)

	weekly, err := svc.Trends(PeriodWeekly, 0)
	require.NoError(t, err)
	assert.Len(t, weekly.Points, 8)
	assert.Equal(t, "2024-03-11", weekly.Points[7].Label)

	_, err = svc.Trends("hourly", 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Trends(PeriodDaily, maxTrendPoints+1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTrendsCountActivity(t *testing.T) {
	svc, store := newService(t)
	admin := testutil.Admin(t, store)
	log := logger.Discard()
	m := metrics.New()

	price := decimal.NewFromInt(10)
	_, err := stockin.NewService(store, log, m).Create(stockin.CreateRequest{Assets: []stockin.ItemRequest{
		{Name: "Mouse", Type: "accessory", Department: "Eng", Quantity: 3, UnitPrice: &price},
	}}, admin.ID)
	require.NoError(t, err)

	a := testutil.CreateAsset(t, store, "Laptop", "computer", "")
	_, err = stockout.NewService(store, log, m).Assign(a.ID, stockout.AssignRequest{Recipient: "Alice"}, admin.ID)
	require.NoError(t, err)
	require.NoError(t, lifecycle.NewService(store, log, m).Return(a.ID, admin.ID, ""))

	trend, err := svc.Trends(PeriodDaily, 3)
	require.NoError(t, err)
	require.Len(t, trend.Points, 3)
	today := trend.Points[2]
	assert.Equal(t, time.Now().Format("2006-01-02"), today.Label)
	assert.EqualValues(t, 3, today.StockIn)
	assert.EqualValues(t, 1, today.StockOut)
	assert.EqualValues(t, 1, today.Returned)
	assert.Zero(t, today.Scrapped)
	assert.Equal(t, TrendTotals{StockIn: 3, StockOut: 1, Returned: 1}, trend.Totals)
	assert.Zero(t, trend.Points[0].StockIn)
}
