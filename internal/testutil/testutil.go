package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ricemill-backend/internal/config"
	"ricemill-backend/internal/database"
	"ricemill-backend/internal/httperr"
	"ricemill-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const JWTSecret = "ricemill-test-jwt-secret-0123456789abcdef"

// Config returns a configuration pointing at a throwaway sqlite file.
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		HTTPPort: "0",
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(t.TempDir(), "test.db"),
		},
		JWT: config.JWTConfig{Secret: JWTSecret, Expire: time.Hour},
		Log: config.LogConfig{Level: "error"},
		PDF: config.PDFConfig{Renderer: "fpdf"},
		WhatsApp: config.WhatsAppConfig{
			APIBaseURL: "http://127.0.0.1:0",
			Timeout:    5 * time.Second,
		},
		Backup: config.BackupConfig{Dir: t.TempDir(), Interval: time.Hour},
	}
}

// SetupTestDB opens a migrated and seeded sqlite database private to the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return SetupTestDBWith(t, Config(t))
}

func SetupTestDBWith(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := database.Open(cfg.Database, cfg.Log.Level)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewApp returns a fiber app with the production error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
}

// GenerateTestToken signs a token the auth middleware accepts.
func GenerateTestToken(userID uint, username string, role models.UserRole) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     string(role),
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(JWTSecret))
	return signed
}

// AdminToken is a token for the seeded admin user.
func AdminToken(t *testing.T, db *gorm.DB) string {
	t.Helper()
	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("Seeded admin missing: %v", err)
	}
	return GenerateTestToken(admin.ID, admin.Username, admin.Role)
}

// SeedTestUser creates an active user with the given role.
func SeedTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "-",
		FullName:     username,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// DoRequest sends body as JSON (nil for none) and returns the response.
func DoRequest(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseResponse decodes a JSON object body.
func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return result
}

// ReadBody returns the raw response body.
func ReadBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return raw
}
