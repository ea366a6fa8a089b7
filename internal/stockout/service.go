package stockout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/batchno"
	"asset-tracker/internal/database"
	"asset-tracker/internal/lifecycle"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AssetRef struct {
	ID   uint   `json:"id" validate:"required"`
	Code string `json:"code" validate:"max=64"`
}

type CreateRequest struct {
	BatchNo            string     `json:"batch_no" validate:"max=64"`
	Recipient          string     `json:"recipient" validate:"required,max=100"`
	Department         string     `json:"department" validate:"max=100"`
	OutDate            string     `json:"out_date"`
	ExpectedReturnDate string     `json:"expected_return_date"`
	Notes              string     `json:"notes" validate:"max=500"`
	Assets             []AssetRef `json:"assets" validate:"required,min=1,dive"`
}

type ListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

type BatchResponse struct {
	ID                 uint       `json:"id"`
	BatchNo            string     `json:"batch_no"`
	Recipient          string     `json:"recipient"`
	Department         string     `json:"department"`
	OutDate            *time.Time `json:"out_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	OperatorID         uint       `json:"operator_id"`
	OperatorName       string     `json:"operator_name"`
	Notes              string     `json:"notes"`
	ItemCount          int64      `json:"item_count"`
	CreatedAt          time.Time  `json:"created_at"`
}

type DetailResponse struct {
	BatchResponse
	Items []models.Asset `json:"items"`
}

type Service struct {
	store   *database.Store
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewService(store *database.Store, log *logrus.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, log: log, metrics: m}
}

// Create records a stock-out batch and assigns every listed asset to it.
// Either all assets move to in_use or none do.
func (s *Service) Create(req CreateRequest, operatorID uint) (*models.StockOutBatch, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	outDate, err := request.ParseDate(req.OutDate)
	if err != nil {
		return nil, err
	}
	expected, err := request.ParseDate(req.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}
	if outDate == nil {
		today := truncateDay(time.Now())
		outDate = &today
	}
	seen := make(map[uint]bool, len(req.Assets))
	for _, a := range req.Assets {
		if seen[a.ID] {
			return nil, apperr.Validation(fmt.Sprintf("asset %d listed twice", a.ID))
		}
		seen[a.ID] = true
	}

	batchNo := strings.TrimSpace(req.BatchNo)
	if batchNo == "" {
		batchNo = batchno.Next("OUT")
	}

	db := s.store.DB()

	// duplicate submissions (double click, client retry) stop here
	var exists int64
	if err := db.Model(&models.StockOutBatch{}).Where("batch_no = ?", batchNo).Count(&exists).Error; err != nil {
		return nil, apperr.Internal("check batch number", err)
	}
	if exists > 0 {
		s.metrics.RecordTransition(lifecycle.TransitionAssign, metrics.ResultConflict)
		return nil, apperr.Conflict(fmt.Sprintf("batch number %s already exists", batchNo))
	}

	batch := models.StockOutBatch{
		BatchNo:            batchNo,
		Recipient:          strings.TrimSpace(req.Recipient),
		Department:         strings.TrimSpace(req.Department),
		OutDate:            outDate,
		ExpectedReturnDate: expected,
		OperatorID:         operatorID,
		Notes:              req.Notes,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(fmt.Sprintf("batch number %s already exists", batchNo))
			}
			return apperr.Internal("create stock-out batch", err)
		}
		for _, a := range req.Assets {
			if err := lifecycle.AssignInTx(tx, a.ID, &batch, a.Code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordTransition(lifecycle.TransitionAssign, resultOf(err))
		s.log.WithError(err).WithField("batch_no", batchNo).Warn("stock-out rolled back")
		return nil, err
	}

	s.metrics.RecordBatch(metrics.DirectionOut)
	for range req.Assets {
		s.metrics.RecordTransition(lifecycle.TransitionAssign, metrics.ResultOK)
	}
	s.log.WithFields(logrus.Fields{
		"batch_id": batch.ID,
		"batch_no": batch.BatchNo,
		"assets":   len(req.Assets),
	}).Info("stock-out created")
	return &batch, nil
}

// AssignRequest is the single-asset shortcut behind POST /assets/:id/assign.
type AssignRequest struct {
	Recipient          string `json:"recipient" validate:"required,max=100"`
	Department         string `json:"department" validate:"max=100"`
	OutDate            string `json:"out_date"`
	ExpectedReturnDate string `json:"expected_return_date"`
	Code               string `json:"code" validate:"max=64"`
	Description        string `json:"description" validate:"max=500"`
}

func (s *Service) Assign(assetID uint, req AssignRequest, operatorID uint) (*models.StockOutBatch, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	return s.Create(CreateRequest{
		BatchNo:            fmt.Sprintf("%s-%d", batchno.Next("OUT"), assetID),
		Recipient:          req.Recipient,
		Department:         req.Department,
		OutDate:            req.OutDate,
		ExpectedReturnDate: req.ExpectedReturnDate,
		Notes:              req.Description,
		Assets:             []AssetRef{{ID: assetID, Code: req.Code}},
	}, operatorID)
}

func (s *Service) baseQuery() *gorm.DB {
	return s.store.DB().Table("stock_out_batches AS s").
		Select(`s.id, s.batch_no, s.recipient, s.department, s.out_date, s.expected_return_date,
			s.operator_id, u.username AS operator_name, s.notes, s.created_at,
			(SELECT COUNT(*) FROM stock_out_items i WHERE i.stock_out_id = s.id) AS item_count`).
		Joins("LEFT JOIN users u ON u.id = s.operator_id")
}

func (s *Service) List(f ListFilter) ([]BatchResponse, error) {
	q := s.baseQuery()
	if f.StartDate != nil {
		q = q.Where("s.out_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("s.out_date < ?", f.EndDate.AddDate(0, 0, 1))
	}
	rows := make([]BatchResponse, 0)
	if err := q.Order("s.created_at DESC, s.id DESC").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("list stock-out batches", err)
	}
	return rows, nil
}

// Recent returns the newest n batches for the dashboard.
func (s *Service) Recent(n int) ([]BatchResponse, error) {
	rows := make([]BatchResponse, 0, n)
	if err := s.baseQuery().Order("s.created_at DESC, s.id DESC").Limit(n).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("list stock-out batches", err)
	}
	return rows, nil
}

func (s *Service) Get(id uint) (*DetailResponse, error) {
	var rows []BatchResponse
	if err := s.baseQuery().Where("s.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("load stock-out batch", err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("stock-out batch not found")
	}

	items := make([]models.Asset, 0)
	err := s.store.DB().Table("stock_out_items AS i").
		Select("a.*").
		Joins("JOIN assets a ON a.id = i.asset_id").
		Where("i.stock_out_id = ?", id).
		Order("i.id").
		Scan(&items).Error
	if err != nil {
		return nil, apperr.Internal("load stock-out items", err)
	}
	return &DetailResponse{BatchResponse: rows[0], Items: items}, nil
}

func resultOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindConflict:
		return metrics.ResultConflict
	case apperr.KindNotFound:
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
