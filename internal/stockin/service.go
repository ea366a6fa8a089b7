package stockin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/batchno"
	"asset-tracker/internal/database"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ItemRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Type        string           `json:"type" validate:"required,max=50"`
	Department  string           `json:"department" validate:"required,max=100"`
	Description string           `json:"description" validate:"max=500"`
	Quantity    int              `json:"quantity" validate:"required,gt=0,max=10000"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"required"`
}

type CreateRequest struct {
	BatchNo  string        `json:"batch_no" validate:"max=64"`
	Type     string        `json:"type" validate:"max=30"`
	Supplier string        `json:"supplier" validate:"max=100"`
	InDate   string        `json:"in_date"`
	Notes    string        `json:"notes" validate:"max=500"`
	Assets   []ItemRequest `json:"assets" validate:"required,min=1,dive"`
}

type BatchResponse struct {
	ID            uint            `json:"id"`
	BatchNo       string          `json:"batch_no"`
	SourceType    string          `json:"type"`
	Supplier      string          `json:"supplier"`
	InDate        *time.Time      `json:"in_date"`
	OperatorID    uint            `json:"operator_id"`
	OperatorName  string          `json:"operator_name"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	TotalItems    int             `json:"total_items" gorm:"-"`
	TotalQuantity int             `json:"total_quantity" gorm:"-"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"-"`
}

type ItemResponse struct {
	ID          uint            `json:"id"`
	StockInID   uint            `json:"stock_in_id"`
	AssetID     *uint           `json:"asset_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount" gorm:"-"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Department  string          `json:"department"`
	Description string          `json:"description"`
}

type DetailResponse struct {
	BatchResponse
	Items []ItemResponse `json:"items"`
}

type Service struct {
	store   *database.Store
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewService(store *database.Store, log *logrus.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, log: log, metrics: m}
}

// Create records the batch and one in_stock asset per unit. The item row
// points at the first asset created for it. Nothing is kept if any step fails.
func (s *Service) Create(req CreateRequest, operatorID uint) (*models.StockInBatch, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	for i, it := range req.Assets {
		if it.UnitPrice.IsNegative() {
			return nil, apperr.Validation(fmt.Sprintf("assets[%d].unit_price must not be negative", i))
		}
	}
	inDate, err := request.ParseDate(req.InDate)
	if err != nil {
		return nil, err
	}

	batch := models.StockInBatch{
		BatchNo:    strings.TrimSpace(req.BatchNo),
		SourceType: strings.TrimSpace(req.Type),
		Supplier:   strings.TrimSpace(req.Supplier),
		InDate:     inDate,
		OperatorID: operatorID,
		Notes:      req.Notes,
	}
	if batch.BatchNo == "" {
		batch.BatchNo = batchno.Next("IN")
	}
	if batch.SourceType == "" {
		batch.SourceType = "purchase"
	}

	db := s.store.DB()
	if err := checkTypes(db, req.Assets); err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(fmt.Sprintf("batch number %s already exists", batch.BatchNo))
			}
			return apperr.Internal("create stock-in batch", err)
		}

		for _, it := range req.Assets {
			item := models.StockInItem{
				StockInID: batch.ID,
				Quantity:  it.Quantity,
				UnitPrice: *it.UnitPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperr.Internal("create stock-in item", err)
			}

			assets := make([]models.Asset, it.Quantity)
			for i := range assets {
				assets[i] = models.Asset{
					Name:        strings.TrimSpace(it.Name),
					Type:        it.Type,
					Status:      models.StatusInStock,
					Department:  strings.TrimSpace(it.Department),
					Description: it.Description,
				}
			}
			if err := tx.CreateInBatches(&assets, 100).Error; err != nil {
				return apperr.Internal("create assets", err)
			}

			if err := tx.Model(&item).Update("asset_id", assets[0].ID).Error; err != nil {
				return apperr.Internal("link stock-in item", err)
			}
			item.AssetID = &assets[0].ID
			batch.Items = append(batch.Items, item)
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("batch_no", batch.BatchNo).Warn("stock-in rolled back")
		return nil, err
	}

	s.metrics.RecordBatch(metrics.DirectionIn)
	s.log.WithFields(logrus.Fields{
		"batch_id": batch.ID,
		"batch_no": batch.BatchNo,
		"items":    len(batch.Items),
	}).Info("stock-in created")
	return &batch, nil
}

func checkTypes(db *gorm.DB, items []ItemRequest) error {
	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.Type)
	}
	var known []string
	if err := db.Model(&models.AssetType{}).Where("code IN ?", codes).Pluck("code", &known).Error; err != nil {
		return apperr.Internal("load asset types", err)
	}
	set := make(map[string]bool, len(known))
	for _, c := range known {
		set[c] = true
	}
	for _, c := range codes {
		if !set[c] {
			return apperr.Validation(fmt.Sprintf("unknown asset type %q", c))
		}
	}
	return nil
}

func (s *Service) baseQuery() *gorm.DB {
	return s.store.DB().Table("stock_in_batches AS s").
		Select(`s.id, s.batch_no, s.source_type, s.supplier, s.in_date, s.operator_id,
			u.username AS operator_name, s.notes, s.created_at`).
		Joins("LEFT JOIN users u ON u.id = s.operator_id")
}

func (s *Service) List(page, pageSize int) ([]BatchResponse, int64, error) {
	var total int64
	if err := s.store.DB().Model(&models.StockInBatch{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count stock-in batches", err)
	}

	rows := make([]BatchResponse, 0, pageSize)
	err := s.baseQuery().
		Order("s.created_at DESC, s.id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperr.Internal("list stock-in batches", err)
	}
	if err := s.fillTotals(rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Recent returns the newest n batches with totals, for the dashboard.
func (s *Service) Recent(n int) ([]BatchResponse, error) {
	rows, _, err := s.List(1, n)
	return rows, err
}

// fillTotals derives counts and amounts from the items; amounts are never stored.
func (s *Service) fillTotals(rows []BatchResponse) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var items []models.StockInItem
	if err := s.store.DB().Where("stock_in_id IN ?", ids).Find(&items).Error; err != nil {
		return apperr.Internal("load stock-in items", err)
	}

	byBatch := make(map[uint]*BatchResponse, len(rows))
	for i := range rows {
		rows[i].TotalAmount = decimal.Zero
		byBatch[rows[i].ID] = &rows[i]
	}
	for _, it := range items {
		b := byBatch[it.StockInID]
		b.TotalItems++
		b.TotalQuantity += it.Quantity
		b.TotalAmount = b.TotalAmount.Add(it.Amount())
	}
	return nil
}

func (s *Service) Get(id uint) (*DetailResponse, error) {
	var rows []BatchResponse
	if err := s.baseQuery().Where("s.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("load stock-in batch", err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("stock-in batch not found")
	}

	items := make([]ItemResponse, 0)
	err := s.store.DB().Table("stock_in_items AS i").
		Select(`i.id, i.stock_in_id, i.asset_id, i.quantity, i.unit_price,
			a.name, a.type, a.department, a.description`).
		Joins("LEFT JOIN assets a ON a.id = i.asset_id").
		Where("i.stock_in_id = ?", id).
		Order("i.id").
		Scan(&items).Error
	if err != nil {
		return nil, apperr.Internal("load stock-in items", err)
	}

	detail := &DetailResponse{BatchResponse: rows[0], Items: items}
	detail.TotalAmount = decimal.Zero
	for i := range detail.Items {
		it := &detail.Items[i]
		it.Amount = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		detail.TotalItems++
		detail.TotalQuantity += it.Quantity
		detail.TotalAmount = detail.TotalAmount.Add(it.Amount)
	}
	return detail, nil
}
