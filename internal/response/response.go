package response

import (
	"github.com/gofiber/fiber/v2"
)

// Envelope is the shape of every JSON response the API returns.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Total   *int64 `json:"total,omitempty"`
}

func OK(c *fiber.Ctx, data any) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Message(c *fiber.Ctx, message string) error {
	return c.JSON(Envelope{Success: true, Message: message})
}

func MessageData(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Envelope{Success: true, Message: message, Data: data})
}

// Page writes a list response with the total row count for pagination.
func Page(c *fiber.Ctx, data any, total int64) error {
	return c.JSON(Envelope{Success: true, Data: data, Total: &total})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}
