package slip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/pdf"
	"ricemill-backend/internal/storage"
	"ricemill-backend/internal/whatsapp"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Documents renders the printable form of a slip.
type Documents interface {
	Document(ctx context.Context, slip *models.PurchaseSlip) ([]byte, error)
}

// LinkStore publishes a file under a time-limited public URL.
type LinkStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

type Messenger interface {
	Configured() bool
	SendDocument(ctx context.Context, to string, doc whatsapp.Document) (*whatsapp.Result, error)
}

// GET /api/slip/:id/pdf[?download=1]
func SlipPDFHandler(svc *Service, docs Documents) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		slip, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}

		doc, err := docs.Document(c.UserContext(), slip)
		if err != nil {
			logger.L().Error("pdf generation failed", zap.Uint("slip_id", id), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate PDF: "+err.Error())
		}

		disposition := "inline"
		if c.QueryBool("download") {
			disposition = "attachment"
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`%s; filename="%s"`, disposition, pdf.Filename(slip)))
		return c.Send(doc)
	}
}

type ShareRequest struct {
	RecipientType   string `json:"recipient_type"` // party | broker
	RecipientNumber string `json:"recipient_number"`
	Message         string `json:"message"`
}

// recipient picks the number to message: an explicit override, else the
// party's or the broker's number from the slip.
func (r ShareRequest) recipient(s *models.PurchaseSlip) (string, error) {
	if n := whatsapp.CleanNumber(r.RecipientNumber); n != "" {
		return n, nil
	}
	switch strings.ToLower(strings.TrimSpace(r.RecipientType)) {
	case "", "party":
		return whatsapp.CleanNumber(s.MobileNumber), nil
	case "broker":
		return whatsapp.CleanNumber(s.BrokerMobileNumber), nil
	default:
		return "", fmt.Errorf("recipient_type must be party or broker")
	}
}

// POST /api/slip/:id/share/whatsapp
//
// WhatsApp fetches documents by URL, so the PDF is first published to object
// storage. links may be nil, in which case sharing is reported as unavailable.
func ShareWhatsAppHandler(svc *Service, docs Documents, links LinkStore, wa Messenger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body ShareRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}

		if wa == nil || !wa.Configured() {
			return fiber.NewError(fiber.StatusBadRequest, whatsapp.ErrNotConfigured.Error())
		}

		slip, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}

		to, err := body.recipient(slip)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if to == "" {
			return fiber.NewError(fiber.StatusBadRequest, "No mobile number found for the selected recipient")
		}

		if links == nil {
			return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
				"success":      false,
				"message":      "PDF sharing needs object storage for public links",
				"instructions": "Set MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET, then restart the server",
				"recipient":    to,
			})
		}

		doc, err := docs.Document(c.UserContext(), slip)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate PDF: "+err.Error())
		}

		filename := pdf.Filename(slip)
		key := storage.SlipKey(filename)
		if err := links.Upload(c.UserContext(), key, doc, "application/pdf"); err != nil {
			logger.L().Error("pdf upload failed", zap.Uint("slip_id", id), zap.Error(err))
			return fiber.NewError(fiber.StatusBadGateway, "Failed to upload PDF")
		}
		link, err := links.PresignedURL(c.UserContext(), key)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "Failed to create PDF link")
		}

		res, err := wa.SendDocument(c.UserContext(), to, whatsapp.Document{
			Link:     link,
			Caption:  body.Message,
			Filename: filename,
		})
		if err != nil {
			var apiErr *whatsapp.APIError
			if errors.As(err, &apiErr) {
				return fiber.NewError(fiber.StatusBadGateway, apiErr.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "Failed to send WhatsApp message: "+err.Error())
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"message":    "PDF sent via WhatsApp",
			"message_id": res.MessageID,
			"recipient":  res.Recipient,
		})
	}
}
