package auth

import (
	"testing"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) (*fiber.App, func() string) {
	t.Helper()
	cfg := testutil.Config(t)
	db := testutil.SetupTestDBWith(t, cfg)

	app := testutil.NewApp()
	api := app.Group("/api")
	api.Post("/auth/login", LoginHandler(db, cfg))

	protected := api.Group("", JWTMiddleware(cfg.JWT.Secret))
	protected.Get("/auth/me", MeHandler(db))
	protected.Post("/admin/users", RequireRole(models.RoleAdmin), CreateUserHandler(db))

	return app, func() string { return testutil.AdminToken(t, db) }
}

func TestLoginWithSeededAdmin(t *testing.T) {
	app, _ := setupApp(t)

	resp := testutil.DoRequest(t, app, "POST", "/api/auth/login",
		map[string]string{"username": "admin", "password": "admin"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := testutil.ParseResponse(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	me := testutil.ParseResponse(t, testutil.DoRequest(t, app, "GET", "/api/auth/me", nil, token))
	assert.Equal(t, "admin", me["username"])
	assert.Equal(t, "admin", me["role"])
	assert.NotNil(t, me["last_login"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, _ := setupApp(t)

	resp := testutil.DoRequest(t, app, "POST", "/api/auth/login",
		map[string]string{"username": "admin", "password": "nope"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = testutil.DoRequest(t, app, "POST", "/api/auth/login",
		map[string]string{"username": "", "password": ""}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMiddlewareRejectsMissingAndForgedTokens(t *testing.T) {
	app, _ := setupApp(t)

	resp := testutil.DoRequest(t, app, "GET", "/api/auth/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	forged, err := GenerateToken("another-secret-that-is-long-enough!!", 0, &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	resp = testutil.DoRequest(t, app, "GET", "/api/auth/me", nil, forged)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	app, adminToken := setupApp(t)

	userToken := testutil.GenerateTestToken(99, "clerk", models.RoleUser)
	resp := testutil.DoRequest(t, app, "POST", "/api/admin/users",
		map[string]string{"username": "x", "password": "y"}, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = testutil.DoRequest(t, app, "POST", "/api/admin/users",
		map[string]string{"username": "clerk", "password": "secret", "full_name": "Clerk"}, adminToken())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := testutil.ParseResponse(t, resp)
	assert.Equal(t, "user", created["role"])
	assert.Nil(t, created["password_hash"])

	resp = testutil.DoRequest(t, app, "POST", "/api/admin/users",
		map[string]string{"username": "clerk", "password": "again"}, adminToken())
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = testutil.DoRequest(t, app, "POST", "/api/auth/login",
		map[string]string{"username": "clerk", "password": "secret"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	app, adminToken := setupApp(t)

	resp := testutil.DoRequest(t, app, "POST", "/api/admin/users",
		map[string]string{"username": "boss", "password": "pw", "role": "owner"}, adminToken())
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
