package dashboard

import (
	"strconv"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.UserContext())
		if err != nil {
			return err
		}
		return response.OK(c, sum)
	}
}

// InvalidateOnWrite drops the cached summary after any successful mutation.
func InvalidateOnWrite(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return err
		}
		if c.Response().StatusCode() < fiber.StatusBadRequest {
			svc.Invalidate(c.UserContext())
		}
		return nil
	}
}

// GET /api/dashboard/trends?period=daily|weekly|monthly&count=
func TrendsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count := 0
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return apperr.Validation("count must be a positive integer")
			}
			count = n
		}
		resp, err := svc.Trends(c.Query("period"), count)
		if err != nil {
			return err
		}
		return response.OK(c, resp)
	}
}
