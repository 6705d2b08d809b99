package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/billtracker/internal/service"
)

func CategoriesHandler(tracker *service.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := tracker.Categories(c.UserContext())
		if err != nil {
			return errorResponse(c, err, "Error loading categories")
		}

		return c.JSON(fiber.Map{"categories": categories})
	}
}

func CategoryDetailHandler(tracker *service.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := tracker.Category(c.UserContext(), c.Params("id"))
		if err != nil {
			return errorResponse(c, err, "Error loading category")
		}

		return c.JSON(detail)
	}
}
