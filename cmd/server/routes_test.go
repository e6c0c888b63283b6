package main

import (
	"bytes"
	"fmt"
	"testing"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/pdf"
	"ricemill-backend/internal/slip"
	"ricemill-backend/internal/testutil"
	"ricemill-backend/internal/whatsapp"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	cfg := testutil.Config(t)
	db := testutil.SetupTestDBWith(t, cfg)

	pdfSvc := pdf.NewService(pdf.NewFPDF(""), nil)
	app := testutil.NewApp()
	setupRoutes(app, deps{
		cfg:      cfg,
		db:       db,
		slips:    slip.NewService(db, slip.WithInvalidator(pdfSvc)),
		pdf:      pdfSvc,
		whatsapp: whatsapp.NewClient(cfg.WhatsApp),
	})
	return app, db
}

func TestHealthIsPublic(t *testing.T) {
	app, _ := setupServer(t)

	resp := testutil.DoRequest(t, app, "GET", "/health", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = testutil.DoRequest(t, app, "GET", "/api/slips", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginThenSlipLifecycle(t *testing.T) {
	app, _ := setupServer(t)

	resp := testutil.DoRequest(t, app, "POST", "/api/auth/login", map[string]string{"username": "admin", "password": "admin"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	token := testutil.ParseResponse(t, resp)["token"].(string)

	resp = testutil.DoRequest(t, app, "POST", "/api/slips", map[string]any{
		"party_name":      "Ramesh Traders",
		"net_weight_kg":   1000,
		"gunny_weight_kg": 50,
		"rate_value":      2000,
	}, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := uint(testutil.ParseResponse(t, resp)["slip_id"].(float64))

	resp = testutil.DoRequest(t, app, "GET", fmt.Sprintf("/api/slip/%d/pdf", id), nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(testutil.ReadBody(t, resp), []byte("%PDF-")))

	resp = testutil.DoRequest(t, app, "GET", "/api/dashboard?period=all", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	metrics := testutil.ParseResponse(t, resp)["metrics"].(map[string]any)
	assert.EqualValues(t, 19000, metrics["netPayable"])

	resp = testutil.DoRequest(t, app, "GET", "/api/slips/export", nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = testutil.DoRequest(t, app, "GET", "/api/whatsapp/config", nil, token)
	assert.Equal(t, false, testutil.ParseResponse(t, resp)["configured"])
}

func TestUndoNeedsAdmin(t *testing.T) {
	app, db := setupServer(t)
	clerk := testutil.SeedTestUser(t, db, "clerk", models.RoleUser)
	clerkToken := testutil.GenerateTestToken(clerk.ID, clerk.Username, clerk.Role)
	adminToken := testutil.AdminToken(t, db)

	resp := testutil.DoRequest(t, app, "POST", "/api/add-slip", map[string]any{"party_name": "A", "net_weight_kg": 100, "rate_value": 1000}, clerkToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "clerk", entry.UserName)

	path := fmt.Sprintf("/api/audit-logs/%d/undo", entry.ID)
	assert.Equal(t, fiber.StatusForbidden, testutil.DoRequest(t, app, "POST", path, nil, clerkToken).StatusCode)
	assert.Equal(t, fiber.StatusOK, testutil.DoRequest(t, app, "POST", path, nil, adminToken).StatusCode)

	var count int64
	db.Model(&models.PurchaseSlip{}).Count(&count)
	assert.Zero(t, count)

	resp = testutil.DoRequest(t, app, "POST", "/api/admin/users", map[string]string{"username": "x", "password": "secret123"}, clerkToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
