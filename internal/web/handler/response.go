// Package handler holds the shared pieces of the JSON handler layer: the
// response envelope, error rendering and pagination helpers.
package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success int    `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK renders a success envelope with the given message and data.
func OK(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Response{Success: 1, Message: message, Data: data})
}

// Error renders the error envelope for a status code. The message suffix per
// status matches the established API contract, clients parse these strings.
func Error(c *fiber.Ctx, status int, message string) error {
	c.Status(status)

	switch status {
	case fiber.StatusUnsupportedMediaType:
		if message == "" {
			message = "Unsupported data type or null."
		}

		return c.JSON(Response{Message: message})
	case fiber.StatusUnauthorized:
		return c.JSON(Response{Message: "Unauthorized." + message})
	case fiber.StatusNotFound:
		return c.JSON(Response{Message: message + " Not Found."})
	case fiber.StatusConflict:
		return c.JSON(Response{Message: message + " Already exists."})
	case fiber.StatusUnprocessableEntity:
		return c.JSON(Response{Message: message + " formats are not correct."})
	case fiber.StatusInternalServerError:
		return c.JSON(Response{Message: "Server Error." + message})
	default:
		return c.JSON(Response{Message: message})
	}
}

// Pagination reads page/pageSize query parameters with sane bounds.
func Pagination(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}
