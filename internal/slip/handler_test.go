package slip

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"ricemill-backend/internal/auth"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/testutil"
	"ricemill-backend/internal/whatsapp"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocs struct{ err error }

func (d stubDocs) Document(_ context.Context, s *models.PurchaseSlip) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	return []byte("%PDF-stub " + s.PartyName), nil
}

type memLinks struct {
	objects map[string][]byte
}

func (m *memLinks) Upload(_ context.Context, key string, data []byte, _ string) error {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func (m *memLinks) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://files.example/" + key, nil
}

type stubMessenger struct {
	configured bool
	to         string
	doc        whatsapp.Document
}

func (m *stubMessenger) Configured() bool { return m.configured }

func (m *stubMessenger) SendDocument(_ context.Context, to string, doc whatsapp.Document) (*whatsapp.Result, error) {
	m.to, m.doc = to, doc
	return &whatsapp.Result{MessageID: "wamid.1", Recipient: to}, nil
}

type routes struct {
	app   *fiber.App
	token string
	links *memLinks
	wa    *stubMessenger
}

func setupApp(t *testing.T, links LinkStore, docs Documents) routes {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	wa := &stubMessenger{configured: true}

	app := testutil.NewApp()
	api := app.Group("/api", auth.JWTMiddleware(testutil.JWTSecret))
	api.Get("/next-bill-no", NextBillNoHandler(svc))
	api.Post("/add-slip", CreateSlipHandler(svc))
	api.Get("/slips", ListSlipsHandler(svc))
	api.Get("/slip/:id", GetSlipHandler(svc))
	api.Put("/slip/:id", UpdateSlipHandler(svc))
	api.Delete("/slip/:id", DeleteSlipHandler(svc))
	api.Get("/slip/:id/pdf", SlipPDFHandler(svc, docs))
	api.Post("/slip/:id/share/whatsapp", ShareWhatsAppHandler(svc, docs, links, wa))

	r := routes{app: app, token: testutil.AdminToken(t, db), wa: wa}
	if m, ok := links.(*memLinks); ok {
		r.links = m
	}
	return r
}

func (r routes) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	return testutil.DoRequest(t, r.app, method, path, body, r.token)
}

func (r routes) create(t *testing.T, body map[string]any) uint {
	t.Helper()
	resp := r.do(t, "POST", "/api/add-slip", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out := testutil.ParseResponse(t, resp)
	return uint(out["slip_id"].(float64))
}

func slipBody() map[string]any {
	return map[string]any{
		"date":                 "2024-05-01T10:30",
		"party_name":           "Ramesh Traders",
		"mobile_number":        "+91 98765 43210",
		"broker":               "Suresh",
		"broker_mobile_number": "9123456789",
		"net_weight_kg":        1000,
		"gunny_weight_kg":      "50",
		"rate_basis":           "Quintal",
		"rate_value":           2000,
		"instalment_1_amount":  4000,
	}
}

func TestSlipCRUD(t *testing.T) {
	r := setupApp(t, nil, stubDocs{})

	body := testutil.ParseResponse(t, r.do(t, "GET", "/api/next-bill-no", nil))
	assert.EqualValues(t, 1, body["bill_no"])

	id := r.create(t, slipBody())

	body = testutil.ParseResponse(t, r.do(t, "GET", fmt.Sprintf("/api/slip/%d", id), nil))
	slip := body["slip"].(map[string]any)
	assert.EqualValues(t, 1, slip["bill_no"])
	assert.EqualValues(t, 19000, slip["payable_amount"])
	assert.EqualValues(t, 4000, slip["total_paid_amount"])
	assert.EqualValues(t, 15000, slip["balance_amount"])

	resp := r.do(t, "PUT", fmt.Sprintf("/api/slip/%d", id), map[string]any{"freight": 1000})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = testutil.ParseResponse(t, resp)
	assert.EqualValues(t, id, body["slip_id"])

	body = testutil.ParseResponse(t, r.do(t, "GET", "/api/slips", nil))
	items := body["slips"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "01-05-2024 10:30", item["date"])
	assert.EqualValues(t, 18000, item["payable_amount"])
	assert.EqualValues(t, 14000, item["balance_amount"])
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pagination["total"])
	assert.EqualValues(t, 1, pagination["pages"])

	resp = r.do(t, "DELETE", fmt.Sprintf("/api/slip/%d", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = r.do(t, "GET", fmt.Sprintf("/api/slip/%d", id), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body = testutil.ParseResponse(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestSlipErrorsMapToStatus(t *testing.T) {
	r := setupApp(t, nil, stubDocs{})

	r.create(t, slipBody())
	assert.Equal(t, fiber.StatusConflict, r.do(t, "POST", "/api/add-slip", slipBody()).StatusCode)

	bad := slipBody()
	bad["rate_basis"] = "Tonne"
	assert.Equal(t, fiber.StatusBadRequest, r.do(t, "POST", "/api/add-slip", bad).StatusCode)

	assert.Equal(t, fiber.StatusBadRequest, r.do(t, "POST", "/api/add-slip", []int{1}).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, r.do(t, "PUT", "/api/slip/999", map[string]any{"postage": 1}).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, r.do(t, "DELETE", "/api/slip/999", nil).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, r.do(t, "GET", "/api/slip/abc", nil).StatusCode)

	resp := testutil.DoRequest(t, r.app, "GET", "/api/slips", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSlipPDF(t *testing.T) {
	r := setupApp(t, nil, stubDocs{})
	id := r.create(t, slipBody())

	resp := r.do(t, "GET", fmt.Sprintf("/api/slip/%d/pdf", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `inline; filename="Purchase_Slip_Ramesh_Traders_1.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "%PDF-stub Ramesh Traders", string(testutil.ReadBody(t, resp)))

	resp = r.do(t, "GET", fmt.Sprintf("/api/slip/%d/pdf?download=1", id), nil)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment;"))

	assert.Equal(t, fiber.StatusNotFound, r.do(t, "GET", "/api/slip/999/pdf", nil).StatusCode)
}

func TestSlipPDFRenderFailure(t *testing.T) {
	r := setupApp(t, nil, stubDocs{err: errors.New("font missing")})
	id := r.create(t, slipBody())

	resp := r.do(t, "GET", fmt.Sprintf("/api/slip/%d/pdf", id), nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, testutil.ParseResponse(t, resp)["message"], "font missing")
}

func TestShareWithoutStorage(t *testing.T) {
	r := setupApp(t, nil, stubDocs{})
	id := r.create(t, slipBody())

	resp := r.do(t, "POST", fmt.Sprintf("/api/slip/%d/share/whatsapp", id), map[string]any{"recipient_type": "party"})
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
	body := testutil.ParseResponse(t, resp)
	assert.Equal(t, "919876543210", body["recipient"])
	assert.NotEmpty(t, body["instructions"])
}

func TestShareSendsPresignedLink(t *testing.T) {
	r := setupApp(t, &memLinks{}, stubDocs{})
	id := r.create(t, slipBody())

	resp := r.do(t, "POST", fmt.Sprintf("/api/slip/%d/share/whatsapp", id), map[string]any{"recipient_type": "broker"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := testutil.ParseResponse(t, resp)
	assert.Equal(t, "wamid.1", body["message_id"])

	assert.Equal(t, "9123456789", r.wa.to)
	assert.Equal(t, "Purchase_Slip_Ramesh_Traders_1.pdf", r.wa.doc.Filename)
	require.Len(t, r.links.objects, 1)
	for key, data := range r.links.objects {
		assert.Equal(t, "https://files.example/"+key, r.wa.doc.Link)
		assert.Equal(t, "%PDF-stub Ramesh Traders", string(data))
	}

	resp = r.do(t, "POST", fmt.Sprintf("/api/slip/%d/share/whatsapp", id), map[string]any{"recipient_number": "+1 (555) 010-0000"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "15550100000", r.wa.to)

	resp = r.do(t, "POST", fmt.Sprintf("/api/slip/%d/share/whatsapp", id), map[string]any{"recipient_type": "driver"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestShareNeedsConfiguredWhatsApp(t *testing.T) {
	r := setupApp(t, &memLinks{}, stubDocs{})
	r.wa.configured = false
	id := r.create(t, slipBody())

	resp := r.do(t, "POST", fmt.Sprintf("/api/slip/%d/share/whatsapp", id), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
