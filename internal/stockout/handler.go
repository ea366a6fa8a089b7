package stockout

import (
	"asset-tracker/internal/auth"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

// POST /api/stock-out
func CreateStockOutHandler(svc *Service) fiber.Handler {
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
		return response.MessageData(c, "stock-out created", fiber.Map{"id": batch.ID, "batch_no": batch.BatchNo})
	}
}

// GET /api/stock-out?startDate=&endDate=
func ListStockOutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, err := request.ParseDate(c.Query("startDate"))
		if err != nil {
			return err
		}
		end, err := request.ParseDate(c.Query("endDate"))
		if err != nil {
			return err
		}
		rows, err := svc.List(ListFilter{StartDate: start, EndDate: end})
		if err != nil {
			return err
		}
		return response.Page(c, rows, int64(len(rows)))
	}
}

// GET /api/stock-out/:id
func GetStockOutHandler(svc *Service) fiber.Handler {
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
