package main

import (
	"context"

	"ricemill-backend/internal/audit"
	"ricemill-backend/internal/auth"
	"ricemill-backend/internal/config"
	"ricemill-backend/internal/dashboard"
	"ricemill-backend/internal/godown"
	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/pdf"
	"ricemill-backend/internal/report"
	"ricemill-backend/internal/slip"
	"ricemill-backend/internal/whatsapp"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type deps struct {
	cfg      *config.Config
	db       *gorm.DB
	slips    *slip.Service
	pdf      *pdf.Service
	links    slip.LinkStore // nil without object storage
	whatsapp *whatsapp.Client
}

func setupRoutes(app *fiber.App, d deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(d.db, d.cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.cfg.JWT.Secret))

	protected.Get("/auth/me", auth.MeHandler(d.db))

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", auth.CreateUserHandler(d.db))

	// Slips
	protected.Get("/next-bill-no", slip.NextBillNoHandler(d.slips))
	protected.Post("/add-slip", slip.CreateSlipHandler(d.slips))
	protected.Post("/slips", slip.CreateSlipHandler(d.slips))
	protected.Get("/slips", slip.ListSlipsHandler(d.slips))
	protected.Get("/slips/export", report.ExportHandler(d.slips))
	protected.Get("/slip/:id", slip.GetSlipHandler(d.slips))
	protected.Put("/slip/:id", slip.UpdateSlipHandler(d.slips))
	protected.Delete("/slip/:id", slip.DeleteSlipHandler(d.slips))
	protected.Get("/slip/:id/pdf", slip.SlipPDFHandler(d.slips, d.pdf))

	// WhatsApp
	protected.Get("/whatsapp/config", whatsapp.ConfigHandler(d.whatsapp))
	protected.Post("/slip/:id/share/whatsapp", slip.ShareWhatsAppHandler(d.slips, d.pdf, d.links, d.whatsapp))

	// Godowns
	protected.Get("/unloading-godowns", godown.ListGodownsHandler(d.db))
	protected.Post("/unloading-godowns", godown.CreateGodownHandler(d.db))

	// Dashboard
	protected.Get("/dashboard", dashboard.DashboardHandler(d.slips))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(d.db))
	protected.Post("/audit-logs/:id/undo", auth.RequireRole(models.RoleAdmin), audit.UndoAuditLogHandler(d.db, func(entry models.AuditLog) {
		if entry.EntityType != models.EntityPurchaseSlip {
			return
		}
		if err := d.pdf.Invalidate(context.Background(), entry.EntityID); err != nil {
			logger.L().Warn("could not invalidate slip cache", zap.Uint("slip_id", entry.EntityID), zap.Error(err))
		}
	}))
}
