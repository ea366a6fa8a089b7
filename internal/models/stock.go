package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockInBatch: one incoming shipment or purchase.
type StockInBatch struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BatchNo    string     `gorm:"size:64;uniqueIndex;not null" json:"batch_no"`
	SourceType string     `gorm:"size:30;not null;default:purchase" json:"type"`
	Supplier   string     `gorm:"size:100" json:"supplier"`
	InDate     *time.Time `json:"in_date"`
	OperatorID uint       `gorm:"index;not null" json:"operator_id"`
	Notes      string     `gorm:"size:500" json:"notes"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`

	Items []StockInItem `gorm:"foreignKey:StockInID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// StockInItem links to the first asset row created for it.
type StockInItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StockInID uint            `gorm:"index;not null" json:"stock_in_id"`
	AssetID   *uint           `gorm:"index" json:"asset_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

func (i StockInItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockOutBatch: one assignment of one or more assets to a recipient.
type StockOutBatch struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	BatchNo            string     `gorm:"size:64;uniqueIndex;not null" json:"batch_no"`
	Recipient          string     `gorm:"size:100;not null" json:"recipient"`
	Department         string     `gorm:"size:100;index" json:"department"`
	OutDate            *time.Time `json:"out_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	OverdueNotified    bool       `gorm:"not null;default:false" json:"overdue_notified"`
	OperatorID         uint       `gorm:"index;not null" json:"operator_id"`
	Notes              string     `gorm:"size:500" json:"notes"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`

	Items []StockOutItem `gorm:"foreignKey:StockOutID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type StockOutItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StockOutID uint      `gorm:"index;not null" json:"stock_out_id"`
	AssetID    uint      `gorm:"index;not null" json:"asset_id"`
	CreatedAt  time.Time `json:"created_at"`
}
