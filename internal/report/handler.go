package report

import (
	"context"
	"fmt"
	"time"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/gofiber/fiber/v2"
)

type Source interface {
	Between(ctx context.Context, from, to time.Time) ([]models.PurchaseSlip, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// dayBound parses a from/to query value; to is inclusive so it moves to the
// start of the following day.
func dayBound(c *fiber.Ctx, key string, inclusiveEnd bool) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := timeutil.Parse(v)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", key))
	}
	t = timeutil.StartOfDay(t)
	if inclusiveEnd {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// GET /api/slips/export?from=2024-04-01&to=2024-04-30
func ExportHandler(src Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := dayBound(c, "from", false)
		if err != nil {
			return err
		}
		to, err := dayBound(c, "to", true)
		if err != nil {
			return err
		}
		if !from.IsZero() && !to.IsZero() && !from.Before(to) {
			return fiber.NewError(fiber.StatusBadRequest, "from must not be after to")
		}

		slips, err := src.Between(c.UserContext(), from, to)
		if err != nil {
			return err
		}
		data, err := XLSX(slips)
		if err != nil {
			return err
		}

		name := "purchase_slips.xlsx"
		if !from.IsZero() || !to.IsZero() {
			name = fmt.Sprintf("purchase_slips_%s_%s.xlsx", c.Query("from", "start"), c.Query("to", "today"))
		}
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(data)
	}
}
