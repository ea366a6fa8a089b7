package users

import (
	"asset-tracker/internal/auth"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
)

// GET /api/users/current
func CurrentUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.MustPrincipal(c)
		if err != nil {
			return err
		}
		u, err := svc.GetByID(p.ID)
		if err != nil {
			return err
		}
		return response.OK(c, u)
	}
}

func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List()
		if err != nil {
			return err
		}
		return response.Page(c, users, int64(len(users)))
	}
}

func CreateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		u, err := svc.Create(body)
		if err != nil {
			return err
		}
		return response.Created(c, "user created", u)
	}
}

func UpdateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		u, err := svc.Update(c.Params("username"), body)
		if err != nil {
			return err
		}
		return response.MessageData(c, "user updated", u)
	}
}

func DeleteUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Params("username")); err != nil {
			return err
		}
		return response.Message(c, "user deleted")
	}
}
