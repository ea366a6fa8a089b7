package models

import "time"

type OperationType string

const (
	OperationReturn OperationType = "return"
	OperationScrap  OperationType = "scrap"
)

// AssetOperation is append-only. Rows are never updated or deleted by the
// application, and asset deletes leave them in place.
type AssetOperation struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	AssetID       uint          `gorm:"index;not null" json:"asset_id"`
	OperationType OperationType `gorm:"size:20;not null;index;check:operation_type IN ('return','scrap')" json:"operation_type"`
	OperatorID    uint          `gorm:"index;not null" json:"operator_id"`
	Notes         string        `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
}
