package dashboard

import (
	"fmt"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/models"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"

	maxTrendPoints = 366
)

// TrendPoint counts assets moved during one bucket. Label is the bucket's
// first day.
type TrendPoint struct {
	Label    string `json:"label"`
	StockIn  int64  `json:"stock_in"`
	StockOut int64  `json:"stock_out"`
	Returned int64  `json:"returned"`
	Scrapped int64  `json:"scrapped"`
}

type TrendTotals struct {
	StockIn  int64 `json:"stock_in"`
	StockOut int64 `json:"stock_out"`
	Returned int64 `json:"returned"`
	Scrapped int64 `json:"scrapped"`
}

type TrendResponse struct {
	Period string       `json:"period"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Points []TrendPoint `json:"points"`
	Totals TrendTotals  `json:"totals"`
}

// defaultCount is the number of buckets shown when the caller gives none.
func defaultCount(period string) int {
	switch period {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	default:
		return 7
	}
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(period string, t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

func nextBucket(period string, t time.Time) time.Time {
	switch period {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Trends returns count buckets ending with the current one. Empty buckets
// are included so charts keep a fixed x axis.
func (s *Service) Trends(period string, count int) (*TrendResponse, error) {
	if period == "" {
		period = PeriodDaily
	}
	if period != PeriodDaily && period != PeriodWeekly && period != PeriodMonthly {
		return nil, apperr.Validation("period must be daily, weekly or monthly")
	}
	if count == 0 {
		count = defaultCount(period)
	}
	if count < 0 || count > maxTrendPoints {
		return nil, apperr.Validation(fmt.Sprintf("count must be between 1 and %d", maxTrendPoints))
	}

	last := bucketStart(period, s.now())
	start := last
	for i := 1; i < count; i++ {
		start = bucketStart(period, start.AddDate(0, 0, -1))
	}
	end := nextBucket(period, last)

	points := make([]TrendPoint, 0, count)
	index := make(map[time.Time]int, count)
	for b := start; b.Before(end); b = nextBucket(period, b) {
		index[b] = len(points)
		points = append(points, TrendPoint{Label: b.Format("2006-01-02")})
	}
	at := func(t time.Time) *TrendPoint {
		if i, ok := index[bucketStart(period, t.In(start.Location()))]; ok {
			return &points[i]
		}
		return nil
	}

	db := s.store.DB()

	var ins []struct {
		CreatedAt time.Time
		Quantity  int64
	}
	err := db.Table("stock_in_items AS i").
		Select("s.created_at, i.quantity").
		Joins("JOIN stock_in_batches s ON s.id = i.stock_in_id").
		Where("s.created_at >= ? AND s.created_at < ?", start, end).
		Scan(&ins).Error
	if err != nil {
		return nil, apperr.Internal("stock-in trend", err)
	}
	for _, r := range ins {
		if p := at(r.CreatedAt); p != nil {
			p.StockIn += r.Quantity
		}
	}

	var outs []time.Time
	err = db.Table("stock_out_items AS i").
		Joins("JOIN stock_out_batches s ON s.id = i.stock_out_id").
		Where("s.created_at >= ? AND s.created_at < ?", start, end).
		Pluck("s.created_at", &outs).Error
	if err != nil {
		return nil, apperr.Internal("stock-out trend", err)
	}
	for _, t := range outs {
		if p := at(t); p != nil {
			p.StockOut++
		}
	}

	var ops []struct {
		CreatedAt     time.Time
		OperationType models.OperationType
	}
	err = db.Model(&models.AssetOperation{}).
		Select("created_at, operation_type").
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&ops).Error
	if err != nil {
		return nil, apperr.Internal("operation trend", err)
	}
	for _, o := range ops {
		p := at(o.CreatedAt)
		if p == nil {
			continue
		}
		switch o.OperationType {
		case models.OperationReturn:
			p.Returned++
		case models.OperationScrap:
			p.Scrapped++
		}
	}

	resp := &TrendResponse{
		Period: period,
		From:   start.Format("2006-01-02"),
		To:     end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points: points,
	}
	for _, p := range points {
		resp.Totals.StockIn += p.StockIn
		resp.Totals.StockOut += p.StockOut
		resp.Totals.Returned += p.Returned
		resp.Totals.Scrapped += p.Scrapped
	}
	return resp, nil
}
