package assets

import (
	"asset-tracker/internal/auth"
	"asset-tracker/internal/lifecycle"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"
	"asset-tracker/internal/stockout"

	"github.com/gofiber/fiber/v2"
)

type NotesRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// GET /api/assets?code=&keyword=&type=&status=&department=&page=&pageSize=
func ListAssetsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, pageSize := request.Pagination(c)
		f := Filter{
			Code:       c.Query("code"),
			Keyword:    c.Query("keyword"),
			Type:       c.Query("type"),
			Status:     models.AssetStatus(c.Query("status")),
			Department: c.Query("department"),
		}
		rows, total, err := svc.List(f, page, pageSize)
		if err != nil {
			return err
		}
		return response.Page(c, rows, total)
	}
}

// POST /api/assets
func CreateAssetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		asset, err := svc.Create(body)
		if err != nil {
			return err
		}
		return response.Created(c, "asset created", asset)
	}
}

// GET /api/assets/:id
func GetAssetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		asset, err := svc.Get(id)
		if err != nil {
			return err
		}
		return response.OK(c, asset)
	}
}

// GET /api/assets/code/:code
func GetAssetByCodeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		asset, err := svc.GetByCode(c.Params("code"))
		if err != nil {
			return err
		}
		return response.OK(c, asset)
	}
}

// PUT /api/assets/:id
func UpdateAssetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body UpdateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		asset, err := svc.UpdateDescription(id, body)
		if err != nil {
			return err
		}
		return response.MessageData(c, "asset updated", asset)
	}
}

// DELETE /api/assets/:id
func DeleteAssetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(id); err != nil {
			return err
		}
		return response.Message(c, "asset deleted")
	}
}

// POST /api/assets/:id/assign
func AssignAssetHandler(svc *stockout.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body stockout.AssignRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		batch, err := svc.Assign(id, body, p.ID)
		if err != nil {
			return err
		}
		return response.MessageData(c, "asset assigned", fiber.Map{"stock_out_id": batch.ID, "batch_no": batch.BatchNo})
	}
}

// POST /api/assets/:id/return
func ReturnAssetHandler(svc *lifecycle.Service) fiber.Handler {
	return transitionHandler(svc.Return, "asset returned")
}

// POST /api/assets/:id/scrap
func ScrapAssetHandler(svc *lifecycle.Service) fiber.Handler {
	return transitionHandler(svc.Scrap, "asset scrapped")
}

func transitionHandler(fn func(assetID, operatorID uint, notes string) error, msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body NotesRequest
		if len(c.Body()) > 0 {
			if err := request.Bind(c, &body); err != nil {
				return err
			}
		}
		if err := fn(id, p.ID, body.Notes); err != nil {
			return err
		}
		return response.Message(c, msg)
	}
}
