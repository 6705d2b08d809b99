package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/billtracker/internal/model"
)

// BillHistoryReader reads the stored state and snapshots of a bill
type BillHistoryReader interface {
	GetByKey(ctx context.Context, billKey string) (*model.StoredBill, error)
	GetSnapshots(ctx context.Context, billKey string) ([]model.BillSnapshot, error)
}

// SnapshotDatesReader lists the dates that have snapshots
type SnapshotDatesReader interface {
	GetSnapshotDates(ctx context.Context) ([]time.Time, error)
}

// CategoryBillsReader lists the bills stored under a category
type CategoryBillsReader interface {
	GetCategoryBills(ctx context.Context, categoryID string) ([]string, error)
}

func BillHistoryHandler(bills BillHistoryReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		key, err := billKey(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bill key"})
		}

		stored, err := bills.GetByKey(ctx, key)
		if err != nil {
			return errorResponse(c, err, "Error loading history")
		}
		if stored == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bill not imported"})
		}

		history, err := bills.GetSnapshots(ctx, key)
		if err != nil {
			return errorResponse(c, err, "Error loading history")
		}

		return c.JSON(fiber.Map{"bill_key": key, "bill": stored, "snapshots": history})
	}
}

func SnapshotDatesHandler(snapshots SnapshotDatesReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dates, err := snapshots.GetSnapshotDates(c.UserContext())
		if err != nil {
			return errorResponse(c, err, "Error loading snapshot dates")
		}

		formatted := make([]string, len(dates))
		for i, d := range dates {
			formatted[i] = d.Format("2006-01-02")
		}
		return c.JSON(fiber.Map{"dates": formatted})
	}
}

func StoredCategoryHandler(categories CategoryBillsReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		keys, err := categories.GetCategoryBills(c.UserContext(), id)
		if err != nil {
			return errorResponse(c, err, "Error loading category")
		}

		return c.JSON(fiber.Map{"category_id": id, "bill_keys": keys})
	}
}
