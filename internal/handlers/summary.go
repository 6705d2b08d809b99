package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/billtracker/internal/service"
)

// MetricsReader returns the latest stored tracker metrics and totals
type MetricsReader interface {
	GetLatestMetrics(ctx context.Context) (map[string]string, error)
	StoredCounts(ctx context.Context) (*service.StoredCounts, error)
}

// SummaryHandler serves live tracker totals. Stored metrics and counts
// from the last import are included when metrics is not nil.
func SummaryHandler(tracker *service.Tracker, metrics MetricsReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		summary, err := tracker.Summary(ctx)
		if err != nil {
			return errorResponse(c, err, "Error loading summary")
		}

		resp := fiber.Map{"summary": summary}
		if metrics != nil {
			stored, err := metrics.GetLatestMetrics(ctx)
			if err != nil {
				return errorResponse(c, err, "Error loading metrics")
			}
			resp["stored_metrics"] = stored

			counts, err := metrics.StoredCounts(ctx)
			if err != nil {
				return errorResponse(c, err, "Error loading metrics")
			}
			resp["stored_counts"] = counts
		}

		return c.JSON(resp)
	}
}
