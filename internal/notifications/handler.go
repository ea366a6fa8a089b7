package notifications

import (
	"asset-tracker/internal/auth"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

// GET /api/notifications
func ListUnreadHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		rows, err := svc.Unread(p.ID)
		if err != nil {
			return err
		}
		return response.Page(c, rows, int64(len(rows)))
	}
}

// PUT /api/notifications/:id/read
func MarkReadHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.MarkRead(id, p.ID); err != nil {
			return err
		}
		return response.Message(c, "notification marked as read")
	}
}

// PUT /api/notifications/read-all
func MarkAllReadHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		n, err := svc.MarkAllRead(p.ID)
		if err != nil {
			return err
		}
		return response.MessageData(c, "notifications marked as read", fiber.Map{"updated": n})
	}
}

// DELETE /api/notifications/:id
func DeleteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(id, p.ID); err != nil {
			return err
		}
		return response.Message(c, "notification deleted")
	}
}
