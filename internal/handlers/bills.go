package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/billtracker/internal/service"
)

// billKey returns the unescaped :key route parameter. Bill keys such as
// "HF 1" contain spaces.
func billKey(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("key"))
}

func BillDetailHandler(tracker *service.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := billKey(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bill key"})
		}

		detail, err := tracker.Bill(c.UserContext(), key)
		if err != nil {
			return errorResponse(c, err, "Error loading bill")
		}

		return c.JSON(detail)
	}
}
