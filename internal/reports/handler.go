package reports

import (
	"fmt"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/assets"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/reports/statistics
func StatisticsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Statistics()
		if err != nil {
			return err
		}
		return response.OK(c, st)
	}
}

// GET /api/reports/assets?type=&status=&department=
func ExportAssetsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.AssetsWorkbook(assets.Filter{
			Type:       c.Query("type"),
			Status:     models.AssetStatus(c.Query("status")),
			Department: c.Query("department"),
		})
		if err != nil {
			return err
		}
		return sendWorkbook(c, f, "assets")
	}
}

// GET /api/reports/transactions?type=out|return&startDate=&endDate=
func ExportTransactionsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, err := request.ParseDate(c.Query("startDate"))
		if err != nil {
			return err
		}
		end, err := request.ParseDate(c.Query("endDate"))
		if err != nil {
			return err
		}
		f, err := svc.TransactionsWorkbook(TransactionFilter{
			Kind:      c.Query("type"),
			StartDate: start,
			EndDate:   end,
		})
		if err != nil {
			return err
		}
		return sendWorkbook(c, f, "transactions")
	}
}

func sendWorkbook(c *fiber.Ctx, f *excelize.File, name string) error {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return apperr.Internal("write workbook", err)
	}
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102150405"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
