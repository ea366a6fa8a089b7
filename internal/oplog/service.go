// Package oplog is the append-only record of return and scrap actions.
package oplog

import (
	"fmt"
	"time"

	"asset-tracker/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	AssetID       uint
	OperationType models.OperationType
	OperatorID    uint
	Notes         string
}

func WriteLog(db *gorm.DB, opts LogOptions) error {
	entry := models.AssetOperation{
		AssetID:       opts.AssetID,
		OperationType: opts.OperationType,
		OperatorID:    opts.OperatorID,
		Notes:         opts.Notes,
	}
	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write operation log: %w", err)
	}
	return nil
}

type OperationResponse struct {
	ID            uint                 `json:"id"`
	AssetID       uint                 `json:"asset_id"`
	AssetCode     string               `json:"asset_code"`
	AssetName     string               `json:"asset_name"`
	OperationType models.OperationType `json:"operation_type"`
	OperatorID    uint                 `json:"operator_id"`
	OperatorName  string               `json:"operator_name"`
	Notes         string               `json:"notes"`
	CreatedAt     time.Time            `json:"created_at"`
}

func baseQuery(db *gorm.DB) *gorm.DB {
	return db.Table("asset_operations AS o").
		Select(`o.id, o.asset_id, a.code AS asset_code, a.name AS asset_name,
			o.operation_type, o.operator_id, u.username AS operator_name, o.notes, o.created_at`).
		Joins("LEFT JOIN assets a ON a.id = o.asset_id").
		Joins("LEFT JOIN users u ON u.id = o.operator_id")
}

func ListForAsset(db *gorm.DB, assetID uint) ([]OperationResponse, error) {
	rows := make([]OperationResponse, 0)
	err := baseQuery(db).
		Where("o.asset_id = ?", assetID).
		Order("o.created_at DESC, o.id DESC").
		Scan(&rows).Error
	return rows, err
}

func Recent(db *gorm.DB, limit int) ([]OperationResponse, error) {
	rows := make([]OperationResponse, 0, limit)
	err := baseQuery(db).
		Order("o.created_at DESC, o.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Between lists operations of one type in [from, to], newest first. Nil
// bounds are open.
func Between(db *gorm.DB, opType models.OperationType, from, to *time.Time) ([]OperationResponse, error) {
	q := baseQuery(db).Where("o.operation_type = ?", opType)
	if from != nil {
		q = q.Where("o.created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("o.created_at < ?", to.AddDate(0, 0, 1))
	}
	rows := make([]OperationResponse, 0)
	err := q.Order("o.created_at DESC, o.id DESC").Scan(&rows).Error
	return rows, err
}
