package slip

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"ricemill-backend/internal/auth"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/slipcalc"
	"ricemill-backend/internal/timeutil"

	"github.com/gofiber/fiber/v2"
)

// httpError maps service errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Slip not found")
	case errors.Is(err, ErrDuplicateSubmission):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidRateBasis), errors.Is(err, ErrInvalidPayload):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid slip id")
	}
	return uint(id), nil
}

// parseFields reads a JSON object body. Numbers stay json.Number so long
// mobile numbers survive intact.
func parseFields(c *fiber.Ctx) (slipcalc.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	var f slipcalc.Fields
	if err := dec.Decode(&f); err != nil || f == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return f, nil
}

// GET /api/next-bill-no
func NextBillNoHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.NextBillNo(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"bill_no": n})
	}
}

// POST /api/add-slip, POST /api/slips
func CreateSlipHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload, err := parseFields(c)
		if err != nil {
			return err
		}

		slip, err := svc.Create(c.UserContext(), payload, auth.ActorFrom(c))
		if err != nil {
			return httpError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Purchase slip saved successfully",
			"slip_id": slip.ID,
			"bill_no": slip.BillNo,
		})
	}
}

// SlipListItem is one row of the slip list.
type SlipListItem struct {
	ID                uint    `json:"id"`
	BillNo            int     `json:"bill_no"`
	Date              string  `json:"date"`
	PartyName         string  `json:"party_name"`
	MobileNumber      string  `json:"mobile_number"`
	FinalWeightKg     float64 `json:"final_weight_kg"`
	RateBasis         string  `json:"rate_basis"`
	PayableAmount     float64 `json:"payable_amount"`
	Instalment1Amount float64 `json:"instalment_1_amount"`
	Instalment2Amount float64 `json:"instalment_2_amount"`
	Instalment3Amount float64 `json:"instalment_3_amount"`
	Instalment4Amount float64 `json:"instalment_4_amount"`
	Instalment5Amount float64 `json:"instalment_5_amount"`
	TotalPaidAmount   float64 `json:"total_paid_amount"`
	BalanceAmount     float64 `json:"balance_amount"`
}

func listItem(s *models.PurchaseSlip) SlipListItem {
	paid, balance := s.PaymentTotals()
	return SlipListItem{
		ID:                s.ID,
		BillNo:            s.BillNo,
		Date:              timeutil.Format(s.Date),
		PartyName:         s.PartyName,
		MobileNumber:      s.MobileNumber,
		FinalWeightKg:     s.FinalWeightKg,
		RateBasis:         s.RateBasis,
		PayableAmount:     s.PayableAmount,
		Instalment1Amount: s.Instalment1Amount,
		Instalment2Amount: s.Instalment2Amount,
		Instalment3Amount: s.Instalment3Amount,
		Instalment4Amount: s.Instalment4Amount,
		Instalment5Amount: s.Instalment5Amount,
		TotalPaidAmount:   paid,
		BalanceAmount:     balance,
	}
}

// GET /api/slips?page=1&limit=50
func ListSlipsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := svc.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", DefaultPageSize))
		if err != nil {
			return err
		}

		items := make([]SlipListItem, 0, len(page.Slips))
		for i := range page.Slips {
			items = append(items, listItem(&page.Slips[i]))
		}

		return c.JSON(fiber.Map{
			"success": true,
			"slips":   items,
			"pagination": fiber.Map{
				"page":  page.Page,
				"limit": page.Limit,
				"total": page.Total,
				"pages": page.Pages(),
			},
		})
	}
}

// GET /api/slip/:id
func GetSlipHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		slip, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"slip":    slip.View(),
		})
	}
}

// PUT /api/slip/:id
func UpdateSlipHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		patch, err := parseFields(c)
		if err != nil {
			return err
		}

		if _, err := svc.Update(c.UserContext(), id, patch, auth.ActorFrom(c)); err != nil {
			return httpError(err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Purchase slip updated successfully",
			"slip_id": id,
		})
	}
}

// DELETE /api/slip/:id
func DeleteSlipHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id, auth.ActorFrom(c)); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": fmt.Sprintf("Slip %d deleted", id),
		})
	}
}
