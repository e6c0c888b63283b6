package database

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"ricemill-backend/internal/config"
	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

var (
	DB       *gorm.DB
	initOnce sync.Once
	initErr  error
)

// Open connects with the configured driver. It does not migrate.
func Open(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLevel(logLevel)),
		NowFunc:        timeutil.Now,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// Init opens, migrates and seeds the process database once. Later calls return
// the first result.
func Init(cfg *config.Config) (*gorm.DB, error) {
	initOnce.Do(func() {
		db, err := Open(cfg.Database, cfg.Log.Level)
		if err != nil {
			initErr = err
			return
		}
		if err := Migrate(db); err != nil {
			initErr = err
			return
		}
		if err := Seed(db); err != nil {
			initErr = err
			return
		}
		DB = db
		logger.L().Info("database ready", zap.String("driver", cfg.Database.Driver))
	})
	return DB, initErr
}

// Get returns the handle installed by Init.
func Get() *gorm.DB {
	return DB
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.PurchaseSlip{},
		&models.UnloadingGodown{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Seed installs the default admin account and godown list into empty tables.
func Seed(db *gorm.DB) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if users == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash default password: %w", err)
		}
		admin := models.User{
			Username:     defaultAdminUsername,
			PasswordHash: string(hash),
			FullName:     "Administrator",
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("create default admin: %w", err)
		}
		logger.L().Warn("default admin user created; change its password", zap.String("username", admin.Username))
	}

	var godowns int64
	if err := db.Model(&models.UnloadingGodown{}).Count(&godowns).Error; err != nil {
		return fmt.Errorf("count godowns: %w", err)
	}
	if godowns == 0 {
		rows := make([]models.UnloadingGodown, 0, len(models.DefaultGodowns))
		for _, name := range models.DefaultGodowns {
			rows = append(rows, models.UnloadingGodown{Name: name})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("seed godowns: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "info":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
