package dashboard

import (
	"context"
	"time"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/gofiber/fiber/v2"
)

// Source loads the slips dated in [from, to).
type Source interface {
	Between(ctx context.Context, from, to time.Time) ([]models.PurchaseSlip, error)
}

// GET /api/dashboard?period=today|week|month|year|all
func DashboardHandler(src Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", PeriodMonth)
		now := timeutil.Now()

		from, to := Window(period, now)
		slips, err := src.Between(c.UserContext(), from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error fetching dashboard data: "+err.Error())
		}

		return c.JSON(Build(slips, period, now))
	}
}
