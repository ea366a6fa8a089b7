package assettypes

import (
	"errors"
	"fmt"
	"strings"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"

	"gorm.io/gorm"
)

type CreateRequest struct {
	Code        string `json:"code" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	Threshold   int    `json:"threshold" validate:"gte=0"`
}

type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Threshold   *int    `json:"threshold" validate:"omitempty,gte=0"`
}

type Service struct {
	store *database.Store
}

func NewService(store *database.Store) *Service {
	return &Service{store: store}
}

func (s *Service) List() ([]models.AssetType, error) {
	types := make([]models.AssetType, 0)
	if err := s.store.DB().Order("name").Find(&types).Error; err != nil {
		return nil, apperr.Internal("list asset types", err)
	}
	return types, nil
}

func (s *Service) Get(id uint) (*models.AssetType, error) {
	var t models.AssetType
	err := s.store.DB().First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("asset type not found")
	}
	if err != nil {
		return nil, apperr.Internal("load asset type", err)
	}
	return &t, nil
}

func (s *Service) Create(req CreateRequest) (*models.AssetType, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	t := models.AssetType{
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Threshold:   req.Threshold,
	}
	if err := s.store.DB().Create(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(fmt.Sprintf("asset type code %s already exists", t.Code))
		}
		return nil, apperr.Internal("create asset type", err)
	}
	return &t, nil
}

// Update changes name, description and threshold. The code is immutable
// because assets reference it.
func (s *Service) Update(id uint, req UpdateRequest) (*models.AssetType, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Threshold != nil {
		updates["threshold"] = *req.Threshold
	}
	if len(updates) == 0 {
		return t, nil
	}
	if err := s.store.DB().Model(t).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("update asset type", err)
	}
	return s.Get(id)
}

func (s *Service) Delete(id uint) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}

	db := s.store.DB()
	var inUse int64
	if err := db.Model(&models.Asset{}).Where("type = ?", t.Code).Count(&inUse).Error; err != nil {
		return apperr.Internal("count assets", err)
	}
	if inUse > 0 {
		return apperr.Conflict(fmt.Sprintf("asset type %s is used by %d assets", t.Code, inUse))
	}
	if err := db.Delete(t).Error; err != nil {
		return apperr.Internal("delete asset type", err)
	}
	return nil
}
