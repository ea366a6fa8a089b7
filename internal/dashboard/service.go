package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/cache"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/oplog"
	"asset-tracker/internal/stockin"
	"asset-tracker/internal/stockout"

	"github.com/sirupsen/logrus"
)

const (
	cacheKey    = "dashboard:summary"
	recentLimit = 5
)

type AssetStats struct {
	Total    int64 `json:"total"`
	InStock  int64 `json:"in_stock"`
	InUse    int64 `json:"in_use"`
	Scrapped int64 `json:"scrapped"`
}

type Bucket struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// FeedEntry is one line of the merged activity feed.
type FeedEntry struct {
	Kind      string    `json:"type"` // stock_in | stock_out | return | scrap
	ID        uint      `json:"id"`
	Reference string    `json:"reference"`
	Operator  string    `json:"operator"`
	Detail    string    `json:"detail"`
	Time      time.Time `json:"time"`
}

type Summary struct {
	AssetStats         AssetStats                `json:"assetStats"`
	RecentStockIn      []stockin.BatchResponse   `json:"recentStockIn"`
	RecentStockOut     []stockout.BatchResponse  `json:"recentStockOut"`
	RecentOperations   []oplog.OperationResponse `json:"recentOperations"`
	AllOperations      []FeedEntry               `json:"allOperations"`
	AssetsByType       []Bucket                  `json:"assetsByType"`
	AssetsByDepartment []Bucket                  `json:"assetsByDepartment"`
	GeneratedAt        time.Time                 `json:"generated_at"`
}

type Service struct {
	store    *database.Store
	cache    cache.Cache
	ttl      time.Duration
	stockIn  *stockin.Service
	stockOut *stockout.Service
	log      *logrus.Logger
	now      func() time.Time

	// gen counts invalidations; a summary built across one is not cached.
	mu  sync.Mutex
	gen uint64
}

func NewService(store *database.Store, c cache.Cache, ttl time.Duration, in *stockin.Service, out *stockout.Service, log *logrus.Logger) *Service {
	return &Service{store: store, cache: c, ttl: ttl, stockIn: in, stockOut: out, log: log, now: time.Now}
}

// Summary serves the cached payload when present and rebuilds it otherwise.
// Cache failures only cost a rebuild.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if b, err := s.cache.Get(ctx, cacheKey); err == nil {
		var sum Summary
		if err := json.Unmarshal(b, &sum); err == nil {
			return &sum, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.WithError(err).Warn("dashboard cache read failed")
	}

	gen := s.generation()
	sum, err := s.build()
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(sum); err == nil {
		s.cachePut(ctx, gen, b)
	}
	return sum, nil
}

func (s *Service) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// cachePut caches b unless an invalidation happened since gen was read.
func (s *Service) cachePut(ctx context.Context, gen uint64, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, b, s.ttl); err != nil {
		s.log.WithError(err).Warn("dashboard cache write failed")
	}
}

func (s *Service) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.log.WithError(err).Warn("dashboard cache invalidation failed")
	}
}

func (s *Service) build() (*Summary, error) {
	db := s.store.DB()
	sum := &Summary{GeneratedAt: s.now()}

	var stats []struct {
		Status models.AssetStatus
		Count  int64
	}
	if err := db.Model(&models.Asset{}).Select("status, COUNT(*) AS count").Group("status").Scan(&stats).Error; err != nil {
		return nil, apperr.Internal("asset stats", err)
	}
	for _, st := range stats {
		sum.AssetStats.Total += st.Count
		switch st.Status {
		case models.StatusInStock:
			sum.AssetStats.InStock = st.Count
		case models.StatusInUse:
			sum.AssetStats.InUse = st.Count
		case models.StatusScrapped:
			sum.AssetStats.Scrapped = st.Count
		}
	}

	var err error
	if sum.RecentStockIn, err = s.stockIn.Recent(recentLimit); err != nil {
		return nil, err
	}
	if sum.RecentStockOut, err = s.stockOut.Recent(recentLimit); err != nil {
		return nil, err
	}
	if sum.RecentOperations, err = oplog.Recent(db, recentLimit); err != nil {
		return nil, apperr.Internal("recent operations", err)
	}
	sum.AllOperations = mergeFeed(sum.RecentStockIn, sum.RecentStockOut, sum.RecentOperations)

	sum.AssetsByType = make([]Bucket, 0)
	err = db.Table("assets AS a").
		Select("a.type AS name, COALESCE(t.name, a.type) AS label, COUNT(*) AS count").
		Joins("LEFT JOIN asset_types t ON t.code = a.type").
		Group("a.type, t.name").
		Order("count DESC").
		Scan(&sum.AssetsByType).Error
	if err != nil {
		return nil, apperr.Internal("assets by type", err)
	}

	sum.AssetsByDepartment = make([]Bucket, 0)
	err = db.Table("assets").
		Select("department AS name, department AS label, COUNT(*) AS count").
		Where("department <> ''").
		Group("department").
		Order("count DESC").
		Scan(&sum.AssetsByDepartment).Error
	if err != nil {
		return nil, apperr.Internal("assets by department", err)
	}

	return sum, nil
}

func mergeFeed(in []stockin.BatchResponse, out []stockout.BatchResponse, ops []oplog.OperationResponse) []FeedEntry {
	feed := make([]FeedEntry, 0, len(in)+len(out)+len(ops))
	for _, b := range in {
		feed = append(feed, FeedEntry{
			Kind: "stock_in", ID: b.ID, Reference: b.BatchNo, Operator: b.OperatorName,
			Detail: b.Supplier, Time: b.CreatedAt,
		})
	}
	for _, b := range out {
		feed = append(feed, FeedEntry{
			Kind: "stock_out", ID: b.ID, Reference: b.BatchNo, Operator: b.OperatorName,
			Detail: b.Recipient, Time: b.CreatedAt,
		})
	}
	for _, o := range ops {
		ref := o.AssetCode
		if ref == "" {
			ref = o.AssetName
		}
		feed = append(feed, FeedEntry{
			Kind: string(o.OperationType), ID: o.ID, Reference: ref, Operator: o.OperatorName,
			Detail: o.Notes, Time: o.CreatedAt,
		})
	}
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Time.After(feed[j].Time) })
	return feed
}
