package assets

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Type        string `json:"type" validate:"required,max=50"`
	Department  string `json:"department" validate:"max=100"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateRequest struct {
	Description string `json:"description" validate:"max=500"`
}

// Filter fields are ANDed together. Empty fields are ignored.
type Filter struct {
	Code       string
	Keyword    string
	Type       string
	Status     models.AssetStatus
	Department string
}

// AssetResponse is an asset with its current stock-out batch, if any.
type AssetResponse struct {
	models.Asset
	StockOutBatchNo    string     `json:"stock_out_batch_no"`
	Recipient          string     `json:"recipient"`
	StockOutDepartment string     `json:"stock_out_department"`
	OutDate            *time.Time `json:"out_date"`
}

type Service struct {
	store *database.Store
	log   *logrus.Logger
}

func NewService(store *database.Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Create(req CreateRequest) (*models.Asset, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	db := s.store.DB()

	var n int64
	if err := db.Model(&models.AssetType{}).Where("code = ?", req.Type).Count(&n).Error; err != nil {
		return nil, apperr.Internal("load asset type", err)
	}
	if n == 0 {
		return nil, apperr.Validation(fmt.Sprintf("unknown asset type %q", req.Type))
	}

	asset := models.Asset{
		Name:        strings.TrimSpace(req.Name),
		Type:        req.Type,
		Status:      models.StatusInStock,
		Department:  strings.TrimSpace(req.Department),
		Description: req.Description,
	}
	if err := db.Create(&asset).Error; err != nil {
		return nil, apperr.Internal("create asset", err)
	}
	return &asset, nil
}

func (s *Service) query(f Filter) *gorm.DB {
	q := s.store.DB().Table("assets AS a").
		Joins("LEFT JOIN stock_out_batches so ON so.id = a.last_stock_out_id")

	if f.Code != "" {
		q = q.Where("a.code LIKE ? ESCAPE '\\'", like(f.Code))
	}
	if f.Keyword != "" {
		q = q.Where("(a.name LIKE ? ESCAPE '\\' OR a.code LIKE ? ESCAPE '\\')", like(f.Keyword), like(f.Keyword))
	}
	if f.Type != "" {
		q = q.Where("a.type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("a.status = ?", f.Status)
	}
	if f.Department != "" {
		q = q.Where("(so.department LIKE ? ESCAPE '\\' OR a.department LIKE ? ESCAPE '\\')", like(f.Department), like(f.Department))
	}
	return q
}

func (s *Service) List(f Filter, page, pageSize int) ([]AssetResponse, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation(fmt.Sprintf("unknown status %q", f.Status))
	}

	var total int64
	if err := s.query(f).Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count assets", err)
	}

	rows := make([]AssetResponse, 0, pageSize)
	err := s.query(f).
		Select(`a.*, so.batch_no AS stock_out_batch_no, so.recipient AS recipient,
			so.department AS stock_out_department, so.out_date AS out_date`).
		Order("a.created_at DESC, a.id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperr.Internal("list assets", err)
	}
	return rows, total, nil
}

// All returns every matching asset, unpaginated. Used by exports.
func (s *Service) All(f Filter) ([]AssetResponse, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", f.Status))
	}
	rows := make([]AssetResponse, 0)
	err := s.query(f).
		Select(`a.*, so.batch_no AS stock_out_batch_no, so.recipient AS recipient,
			so.department AS stock_out_department, so.out_date AS out_date`).
		Order("a.created_at DESC, a.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("list assets", err)
	}
	return rows, nil
}

func (s *Service) Get(id uint) (*models.Asset, error) {
	var asset models.Asset
	err := s.store.DB().First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("asset not found")
	}
	if err != nil {
		return nil, apperr.Internal("load asset", err)
	}
	return &asset, nil
}

func (s *Service) GetByCode(code string) (*models.Asset, error) {
	var asset models.Asset
	err := s.store.DB().Where("code = ?", code).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("asset not found")
	}
	if err != nil {
		return nil, apperr.Internal("load asset", err)
	}
	return &asset, nil
}

func (s *Service) UpdateDescription(id uint, req UpdateRequest) (*models.Asset, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	res := s.store.DB().Model(&models.Asset{}).Where("id = ?", id).Update("description", req.Description)
	if res.Error != nil {
		return nil, apperr.Internal("update asset", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("asset not found")
	}
	return s.Get(id)
}

// Delete removes the row outright, whatever its status. Ledger and
// operation log rows that mention it are kept.
func (s *Service) Delete(id uint) error {
	res := s.store.DB().Delete(&models.Asset{}, id)
	if res.Error != nil {
		return apperr.Internal("delete asset", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("asset not found")
	}
	s.log.WithField("asset_id", id).Warn("asset deleted")
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// like builds a substring pattern; wildcards in s match literally.
func like(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
