package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=purchase_slips port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string         `mapstructure:"http_port"`
	CORSOrigins string         `mapstructure:"cors_origins"`
	Database    DatabaseConfig `mapstructure:"database"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Log         LogConfig      `mapstructure:"log"`
	PDF         PDFConfig      `mapstructure:"pdf"`
	Redis       RedisConfig    `mapstructure:"redis"`
	MinIO       MinIOConfig    `mapstructure:"minio"`
	WhatsApp    WhatsAppConfig `mapstructure:"whatsapp"`
	Backup      BackupConfig   `mapstructure:"backup"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expire time.Duration `mapstructure:"expire"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PDFConfig struct {
	Renderer     string        `mapstructure:"renderer"` // fpdf | gotenberg
	GotenbergURL string        `mapstructure:"gotenberg_url"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	LogoPath     string        `mapstructure:"logo_path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	Region        string        `mapstructure:"region"` // skips the bucket-location lookup when set
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

type WhatsAppConfig struct {
	PhoneNumberID string        `mapstructure:"phone_number_id"`
	AccessToken   string        `mapstructure:"access_token"`
	APIBaseURL    string        `mapstructure:"api_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Configured reports whether the Business API credentials are present.
func (w WhatsAppConfig) Configured() bool {
	return w.PhoneNumberID != "" && w.AccessToken != ""
}

type BackupConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Dir        string        `mapstructure:"dir"`
	Interval   time.Duration `mapstructure:"interval"`
	Keep       int           `mapstructure:"keep"`
	PgDumpPath string        `mapstructure:"pg_dump_path"`
}

// Load reads .env, the optional config file and the environment, and stops the
// process when the result is unsafe to serve with.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] failed to load .env: %v", err)
	}

	cfg, err := Read()
	if err != nil {
		log.Fatalf("[FATAL] failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.DSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN default value in use; set your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ORIGINS default value in use; set your own domain for production.")
	}

	return cfg
}

// Read builds a Config from defaults, an optional config.{json,yaml} and the
// environment, in increasing priority.
func Read() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.PDF.Renderer = strings.ToLower(strings.TrimSpace(cfg.PDF.Renderer))

	return &cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set; it is required in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.PDF.Renderer {
	case "fpdf":
	case "gotenberg":
		if c.PDF.GotenbergURL == "" {
			return errors.New("pdf.gotenberg_url is required for the gotenberg renderer")
		}
	default:
		return fmt.Errorf("unsupported pdf renderer %q", c.PDF.Renderer)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8080")
	v.SetDefault("cors_origins", defaultCORSOrigins)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("pdf.renderer", "fpdf")
	v.SetDefault("pdf.gotenberg_url", "")
	v.SetDefault("pdf.cache_ttl", 10*time.Minute)
	v.SetDefault("pdf.logo_path", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "purchase-slips")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.presign_expiry", 24*time.Hour)

	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.access_token", "")
	v.SetDefault("whatsapp.api_base_url", "https://graph.facebook.com/v18.0")
	v.SetDefault("whatsapp.timeout", 30*time.Second)

	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.dir", "./backups")
	v.SetDefault("backup.interval", 24*time.Hour)
	v.SetDefault("backup.keep", 14)
	v.SetDefault("backup.pg_dump_path", "pg_dump")
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("http_port", "HTTP_PORT")
	_ = v.BindEnv("cors_origins", "CORS_ORIGINS", "CORS_ALLOWED_ORIGINS")

	_ = v.BindEnv("database.driver", "DATABASE_DRIVER", "DB_DRIVER")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN")

	_ = v.BindEnv("jwt.secret", "JWT_SECRET")

	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")

	_ = v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	_ = v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	_ = v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	_ = v.BindEnv("minio.bucket", "MINIO_BUCKET")

	// names the desktop build already ships with
	_ = v.BindEnv("whatsapp.phone_number_id", "WHATSAPP_BUSINESS_PHONE_NUMBER_ID", "WHATSAPP_PHONE_NUMBER_ID")
	_ = v.BindEnv("whatsapp.access_token", "WHATSAPP_BUSINESS_ACCESS_TOKEN", "WHATSAPP_ACCESS_TOKEN")
}
