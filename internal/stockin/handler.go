package stockin

import (
	"asset-tracker/internal/auth"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

type CreateResponse struct {
	ID           uint   `json:"id"`
	BatchNo      string `json:"batch_no"`
	ItemAssetIDs []uint `json:"item_asset_ids"`
}

// POST /api/stock-in
func CreateStockInHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		var body CreateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		batch, err := svc.Create(body, p.ID)
		if err != nil {
			return err
		}
		resp := CreateResponse{ID: batch.ID, BatchNo: batch.BatchNo}
		for _, it := range batch.Items {
			if it.AssetID != nil {
				resp.ItemAssetIDs = append(resp.ItemAssetIDs, *it.AssetID)
			}
		}
		return response.MessageData(c, "stock-in created", resp)
	}
}

// GET /api/stock-in?page=&pageSize=
func ListStockInHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, pageSize := request.Pagination(c)
		rows, total, err := svc.List(page, pageSize)
		if err != nil {
			return err
		}
		return response.Page(c, rows, total)
	}
}

// GET /api/stock-in/:id
func GetStockInHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		detail, err := svc.Get(id)
		if err != nil {
			return err
		}
		return response.OK(c, detail)
	}
}
