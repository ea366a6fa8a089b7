package backup

import (
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

// GET /api/backup
func ListBackupsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.List()
		if err != nil {
			return err
		}
		return response.Page(c, list, int64(len(list)))
	}
}

// POST /api/backup
func CreateBackupHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := svc.Create()
		if err != nil {
			return err
		}
		return response.Created(c, "backup created", info)
	}
}

// POST /api/backup/:name/restore
func RestoreBackupHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Restore(c.Params("name")); err != nil {
			return err
		}
		return response.Message(c, "database restored")
	}
}
