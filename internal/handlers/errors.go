package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/billtracker/internal/model"
)

// errorResponse maps tracker errors to a status code and JSON body
func errorResponse(c *fiber.Ctx, err error, msg string) error {
	status := fiber.StatusInternalServerError

	var fetchErr *model.FetchError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = fiber.StatusNotFound
		msg = "Not found"
	case errors.As(err, &fetchErr):
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}
