package models

// All lists every table, in migration order.
func All() []any {
	return []any{
		&User{},
		&AssetType{},
		&Asset{},
		&StockInBatch{},
		&StockInItem{},
		&StockOutBatch{},
		&StockOutItem{},
		&AssetOperation{},
		&Notification{},
	}
}
