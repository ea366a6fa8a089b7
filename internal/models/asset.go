package models

import "time"

type AssetStatus string

const (
	StatusInStock  AssetStatus = "in_stock"
	StatusInUse    AssetStatus = "in_use"
	StatusScrapped AssetStatus = "scrapped"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusInUse, StatusScrapped:
		return true
	}
	return false
}

// Asset is one physical item. LastStockOutID is set only while the asset is in use.
type Asset struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Code           *string     `gorm:"size:64;uniqueIndex" json:"code"`
	Name           string      `gorm:"size:100;not null" json:"name"`
	Type           string      `gorm:"size:50;not null;index" json:"type"`
	Status         AssetStatus `gorm:"size:20;not null;default:in_stock;index;check:status IN ('in_stock','in_use','scrapped')" json:"status"`
	Department     string      `gorm:"size:100;index" json:"department"`
	Description    string      `gorm:"size:500" json:"description"`
	LastStockOutID *uint       `gorm:"index" json:"last_stock_out_id"`
	CreatedAt      time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (a Asset) CodeValue() string {
	if a.Code == nil {
		return ""
	}
	return *a.Code
}

// AssetType is the type catalog. Asset.Type references Code.
type AssetType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Threshold   int       `gorm:"not null;default:0" json:"threshold"` // low-stock alert level, 0 disables
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
