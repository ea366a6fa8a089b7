package reports

import (
	"fmt"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/assets"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/oplog"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const timeLayout = "2006-01-02 15:04:05"

type Count struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type Statistics struct {
	TotalAssets       int64           `json:"total_assets"`
	ByStatus          []Count         `json:"by_status"`
	ByType            []Count         `json:"by_type"`
	ByDepartment      []Count         `json:"by_department"`
	StockInBatches    int64           `json:"stock_in_batches"`
	StockOutBatches   int64           `json:"stock_out_batches"`
	StockInTotalValue decimal.Decimal `json:"stock_in_total_value"`
}

// TransactionFilter selects rows for the transactions export. Kind is
// "out", "return" or empty for both.
type TransactionFilter struct {
	Kind      string
	StartDate *time.Time
	EndDate   *time.Time
}

type TransactionRow struct {
	Time       time.Time
	Kind       string
	Reference  string
	AssetCode  string
	AssetName  string
	Recipient  string
	Department string
	Operator   string
	Notes      string
}

type Service struct {
	store  *database.Store
	assets *assets.Service
}

func NewService(store *database.Store, assetSvc *assets.Service) *Service {
	return &Service{store: store, assets: assetSvc}
}

func (s *Service) Statistics() (*Statistics, error) {
	db := s.store.DB()
	st := &Statistics{StockInTotalValue: decimal.Zero}

	group := func(col string, dst *[]Count) error {
		*dst = make([]Count, 0)
		return db.Model(&models.Asset{}).
			Select(col + " AS name, COUNT(*) AS count").
			Group(col).
			Order("count DESC").
			Scan(dst).Error
	}
	if err := group("status", &st.ByStatus); err != nil {
		return nil, apperr.Internal("count by status", err)
	}
	if err := group("type", &st.ByType); err != nil {
		return nil, apperr.Internal("count by type", err)
	}
	if err := group("department", &st.ByDepartment); err != nil {
		return nil, apperr.Internal("count by department", err)
	}
	for _, c := range st.ByStatus {
		st.TotalAssets += c.Count
	}

	if err := db.Model(&models.StockInBatch{}).Count(&st.StockInBatches).Error; err != nil {
		return nil, apperr.Internal("count stock-in", err)
	}
	if err := db.Model(&models.StockOutBatch{}).Count(&st.StockOutBatches).Error; err != nil {
		return nil, apperr.Internal("count stock-out", err)
	}

	var items []models.StockInItem
	if err := db.Select("quantity", "unit_price").Find(&items).Error; err != nil {
		return nil, apperr.Internal("load stock-in items", err)
	}
	for _, it := range items {
		st.StockInTotalValue = st.StockInTotalValue.Add(it.Amount())
	}
	return st, nil
}

func (s *Service) AssetsWorkbook(f assets.Filter) (*excelize.File, error) {
	rows, err := s.assets.All(f)
	if err != nil {
		return nil, err
	}

	headers := []string{"ID", "Code", "Name", "Type", "Status", "Department", "Recipient", "Description", "Created At"}
	data := make([][]any, 0, len(rows))
	for _, a := range rows {
		data = append(data, []any{
			a.ID, a.CodeValue(), a.Name, a.Type, string(a.Status), a.Department,
			a.Recipient, a.Description, a.CreatedAt.Local().Format(timeLayout),
		})
	}
	return newWorkbook("Assets", headers, data)
}

func (s *Service) Transactions(f TransactionFilter) ([]TransactionRow, error) {
	if f.Kind != "" && f.Kind != "out" && f.Kind != "return" {
		return nil, apperr.Validation("type must be out or return")
	}
	db := s.store.DB()
	out := make([]TransactionRow, 0)

	if f.Kind == "" || f.Kind == "out" {
		var rows []struct {
			CreatedAt  time.Time
			BatchNo    string
			AssetCode  string
			AssetName  string
			Recipient  string
			Department string
			Operator   string
			Notes      string
		}
		q := db.Table("stock_out_items AS i").
			Select(`s.created_at, s.batch_no, a.code AS asset_code, a.name AS asset_name,
				s.recipient, s.department, u.username AS operator, s.notes`).
			Joins("JOIN stock_out_batches s ON s.id = i.stock_out_id").
			Joins("LEFT JOIN assets a ON a.id = i.asset_id").
			Joins("LEFT JOIN users u ON u.id = s.operator_id")
		if f.StartDate != nil {
			q = q.Where("s.created_at >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			q = q.Where("s.created_at < ?", f.EndDate.AddDate(0, 0, 1))
		}
		if err := q.Scan(&rows).Error; err != nil {
			return nil, apperr.Internal("load stock-out rows", err)
		}
		for _, r := range rows {
			out = append(out, TransactionRow{
				Time: r.CreatedAt, Kind: "out", Reference: r.BatchNo, AssetCode: r.AssetCode,
				AssetName: r.AssetName, Recipient: r.Recipient, Department: r.Department,
				Operator: r.Operator, Notes: r.Notes,
			})
		}
	}

	if f.Kind == "" || f.Kind == "return" {
		ops, err := oplog.Between(db, models.OperationReturn, f.StartDate, f.EndDate)
		if err != nil {
			return nil, apperr.Internal("load return rows", err)
		}
		for _, o := range ops {
			out = append(out, TransactionRow{
				Time: o.CreatedAt, Kind: "return", Reference: fmt.Sprintf("OP-%d", o.ID),
				AssetCode: o.AssetCode, AssetName: o.AssetName, Operator: o.OperatorName, Notes: o.Notes,
			})
		}
	}

	sortNewestFirst(out)
	return out, nil
}

func (s *Service) TransactionsWorkbook(f TransactionFilter) (*excelize.File, error) {
	rows, err := s.Transactions(f)
	if err != nil {
		return nil, err
	}
	headers := []string{"Time", "Type", "Reference", "Asset Code", "Asset Name", "Recipient", "Department", "Operator", "Notes"}
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{
			r.Time.Local().Format(timeLayout), r.Kind, r.Reference, r.AssetCode, r.AssetName,
			r.Recipient, r.Department, r.Operator, r.Notes,
		})
	}
	return newWorkbook("Transactions", headers, data)
}
