// Package lifecycle owns asset status transitions:
//
//	in_stock -> in_use      (assign, via a stock-out batch)
//	in_use   -> in_stock    (return)
//	in_stock|in_use -> scrapped (scrap, terminal)
//
// Every transition is a single conditional UPDATE whose affected-row count
// decides between success and Conflict, so concurrent callers cannot both
// win the same asset.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/models"
	"asset-tracker/internal/oplog"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	TransitionAssign = "assign"
	TransitionReturn = "return"
	TransitionScrap  = "scrap"
)

type Service struct {
	store   *database.Store
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewService(store *database.Store, log *logrus.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, log: log, metrics: m}
}

// GenerateCode builds the fallback asset code, e.g. COMPUTER-000042.
func GenerateCode(assetType string, id uint) string {
	prefix := strings.ToUpper(strings.TrimSpace(assetType))
	if prefix == "" {
		prefix = "ASSET"
	}
	return fmt.Sprintf("%s-%06d", prefix, id)
}

// AssignInTx moves one asset into batch. It must run inside the transaction
// that created the batch header; any error is meant to roll the whole batch
// back. code is used only when the asset has none yet.
func AssignInTx(tx *gorm.DB, assetID uint, batch *models.StockOutBatch, code string) error {
	var asset models.Asset
	if err := tx.Select("id", "type", "status").First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(fmt.Sprintf("asset %d not found", assetID))
		}
		return apperr.Internal("load asset", err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		code = GenerateCode(asset.Type, asset.ID)
	}

	res := tx.Model(&models.Asset{}).
		Where("id = ? AND status = ?", assetID, models.StatusInStock).
		Updates(map[string]any{
			"status":            models.StatusInUse,
			"last_stock_out_id": batch.ID,
			"department":        batch.Department,
			"code":              gorm.Expr("CASE WHEN code IS NULL OR code = '' THEN ? ELSE code END", code),
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflict(fmt.Sprintf("asset code %s is already in use", code))
		}
		return apperr.Internal("update asset", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict(fmt.Sprintf("asset %d is not in stock (status %s)", assetID, asset.Status))
	}

	item := models.StockOutItem{StockOutID: batch.ID, AssetID: assetID}
	if err := tx.Create(&item).Error; err != nil {
		return apperr.Internal("create stock-out item", err)
	}
	return nil
}

// Return brings an in_use asset back to stock and clears its batch link.
func (s *Service) Return(assetID, operatorID uint, notes string) error {
	return s.transition(TransitionReturn, assetID, operatorID, notes,
		[]models.AssetStatus{models.StatusInUse},
		map[string]any{
			"status":            models.StatusInStock,
			"last_stock_out_id": nil,
		})
}

// Scrap retires an asset for good. Scrapped is terminal.
func (s *Service) Scrap(assetID, operatorID uint, notes string) error {
	return s.transition(TransitionScrap, assetID, operatorID, notes,
		[]models.AssetStatus{models.StatusInStock, models.StatusInUse},
		map[string]any{
			"status":            models.StatusScrapped,
			"last_stock_out_id": nil,
		})
}

func (s *Service) transition(name string, assetID, operatorID uint, notes string, from []models.AssetStatus, set map[string]any) error {
	db := s.store.DB()

	res := db.Model(&models.Asset{}).
		Where("id = ? AND status IN ?", assetID, from).
		Updates(set)
	if res.Error != nil {
		s.metrics.RecordTransition(name, metrics.ResultError)
		return apperr.Internal(name+" asset", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.explainMiss(db, name, assetID)
	}

	// The status change is authoritative; the log entry is best-effort.
	opType := models.OperationReturn
	if name == TransitionScrap {
		opType = models.OperationScrap
	}
	err := oplog.WriteLog(db, oplog.LogOptions{
		AssetID:       assetID,
		OperationType: opType,
		OperatorID:    operatorID,
		Notes:         notes,
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"asset_id":   assetID,
			"transition": name,
		}).Warn("asset status updated but operation log write failed")
		s.metrics.RecordTransition(name, metrics.ResultAuditFailed)
		return nil
	}

	s.metrics.RecordTransition(name, metrics.ResultOK)
	s.log.WithFields(logrus.Fields{
		"asset_id":    assetID,
		"transition":  name,
		"operator_id": operatorID,
	}).Info("asset transition")
	return nil
}

func (s *Service) explainMiss(db *gorm.DB, name string, assetID uint) error {
	var asset models.Asset
	err := db.Select("id", "status").First(&asset, assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.metrics.RecordTransition(name, metrics.ResultNotFound)
		return apperr.NotFound("asset not found")
	}
	if err != nil {
		s.metrics.RecordTransition(name, metrics.ResultError)
		return apperr.Internal("load asset", err)
	}
	s.metrics.RecordTransition(name, metrics.ResultConflict)
	return apperr.Conflict(fmt.Sprintf("cannot %s asset in status %s", name, asset.Status))
}
