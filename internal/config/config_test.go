package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("s", 32)

func TestReadDefaults(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())

	cfg, err := Read()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expire)
	assert.Equal(t, "fpdf", cfg.PDF.Renderer)
	assert.Equal(t, "https://graph.facebook.com/v18.0", cfg.WhatsApp.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.WhatsApp.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval)
	assert.False(t, cfg.WhatsApp.Configured())
}

func TestReadEnvironmentOverrides(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "file:test.db")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("WHATSAPP_BUSINESS_PHONE_NUMBER_ID", "1234")
	t.Setenv("WHATSAPP_BUSINESS_ACCESS_TOKEN", "token")
	t.Setenv("BACKUP_INTERVAL", "6h")

	cfg, err := Read()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, 6*time.Hour, cfg.Backup.Interval)
	assert.True(t, cfg.WhatsApp.Configured())
	assert.NoError(t, cfg.Validate())
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  driver: sqlite
  dsn: mill.db
whatsapp:
  phone_number_id: "555"
  access_token: abc
backup:
  keep: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Read()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "mill.db", cfg.Database.DSN)
	assert.Equal(t, "555", cfg.WhatsApp.PhoneNumberID)
	assert.Equal(t, 3, cfg.Backup.Keep)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "postgres"},
			JWT:      JWTConfig{Secret: testSecret},
			PDF:      PDFConfig{Renderer: "fpdf"},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.JWT.Secret = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.JWT.Secret = "short"
	assert.ErrorContains(t, c.Validate(), "32")

	c = valid()
	c.Database.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = valid()
	c.PDF.Renderer = "gotenberg"
	assert.Error(t, c.Validate())
	c.PDF.GotenbergURL = "http://localhost:3000"
	assert.NoError(t, c.Validate())
}
