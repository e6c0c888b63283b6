package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ricemill-backend/internal/backup"
	"ricemill-backend/internal/config"
	"ricemill-backend/internal/database"
	"ricemill-backend/internal/httperr"
	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/pdf"
	"ricemill-backend/internal/slip"
	"ricemill-backend/internal/storage"
	"ricemill-backend/internal/whatsapp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	zl, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("[FATAL] logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Init(cfg)
	if err != nil {
		zl.Fatal("database init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := pdf.NewRenderer(cfg.PDF)
	if err != nil {
		zl.Fatal("pdf renderer", zap.Error(err))
	}
	pdfSvc := pdf.NewService(renderer, newPDFCache(ctx, cfg))

	store, err := storage.New(cfg.MinIO)
	if err != nil {
		zl.Warn("object storage disabled", zap.Error(err))
		store = nil
	}
	if store != nil {
		if err := store.EnsureBucket(ctx); err != nil {
			zl.Warn("object storage unavailable", zap.Error(err))
		}
	}

	d := deps{
		cfg:      cfg,
		db:       db,
		slips:    slip.NewService(db, slip.WithInvalidator(pdfSvc)),
		pdf:      pdfSvc,
		whatsapp: whatsapp.NewClient(cfg.WhatsApp),
	}
	if store != nil {
		d.links = store
	}

	if cfg.Backup.Enabled {
		startBackups(ctx, cfg, db, store)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		BodyLimit:    8 * 1024 * 1024,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logger.RequestID(), logger.Middleware(zl))

	setupRoutes(app, d)

	go func() {
		<-ctx.Done()
		zl.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Error("shutdown", zap.Error(err))
		}
	}()

	zl.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("db", cfg.Database.Driver))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		zl.Fatal("listen", zap.Error(err))
	}
}

// newPDFCache connects to Redis when configured. Without it every PDF request
// renders afresh.
func newPDFCache(ctx context.Context, cfg *config.Config) pdf.Cache {
	if cfg.Redis.Addr == "" {
		return pdf.NopCache{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.L().Warn("redis unavailable, pdf cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		rdb.Close()
		return pdf.NopCache{}
	}
	return pdf.NewRedisCache(rdb, cfg.PDF.CacheTTL)
}

func startBackups(ctx context.Context, cfg *config.Config, db *gorm.DB, store *storage.Store) {
	dumper, err := backup.NewDumper(cfg.Database.Driver, cfg.Database.DSN, cfg.Backup.PgDumpPath, db)
	if err != nil {
		logger.L().Warn("backups disabled", zap.Error(err))
		return
	}
	var uploader backup.Uploader
	if store != nil {
		uploader = store
	}
	svc := backup.NewService(cfg.Backup, dumper, uploader)
	go backup.NewScheduler(svc, cfg.Backup.Interval).Start(ctx)
}
