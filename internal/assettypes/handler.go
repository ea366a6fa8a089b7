package assettypes

import (
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

func ListAssetTypesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := svc.List()
		if err != nil {
			return err
		}
		return response.OK(c, types)
	}
}

func GetAssetTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		t, err := svc.Get(id)
		if err != nil {
			return err
		}
		return response.OK(c, t)
	}
}

func CreateAssetTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		t, err := svc.Create(body)
		if err != nil {
			return err
		}
		return response.Created(c, "asset type created", t)
	}
}

func UpdateAssetTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body UpdateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		t, err := svc.Update(id, body)
		if err != nil {
			return err
		}
		return response.MessageData(c, "asset type updated", t)
	}
}

func DeleteAssetTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.IDParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(id); err != nil {
			return err
		}
		return response.Message(c, "asset type deleted")
	}
}
