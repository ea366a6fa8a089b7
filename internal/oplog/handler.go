package oplog

import (
	"errors"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/assets/:id/operations
func ListAssetOperationsHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}

		db := store.DB()
		if err := db.Select("id").First(&models.Asset{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("asset not found")
			}
			return apperr.Internal("load asset", err)
		}

		ops, err := ListForAsset(db, id)
		if err != nil {
			return apperr.Internal("list operations", err)
		}
		return response.OK(c, ops)
	}
}
