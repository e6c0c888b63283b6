// Package backup dumps the database on a schedule, keeps the newest copies on
// disk and optionally ships each one to object storage.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ricemill-backend/internal/config"
	"ricemill-backend/internal/logger"
	"ricemill-backend/internal/storage"
	"ricemill-backend/internal/timeutil"

	"go.uber.org/zap"
)

const (
	filePrefix  = "purchase_slips_backup_"
	stampLayout = "2006-01-02_15-04-05"
)

// Uploader ships a finished dump off the machine.
type Uploader interface {
	UploadFile(ctx context.Context, key, path string) error
}

type Service struct {
	dumper   Dumper
	uploader Uploader
	dir      string
	keep     int
	now      func() time.Time
}

// NewService returns a backup service writing into cfg.Dir. uploader may be nil.
func NewService(cfg config.BackupConfig, dumper Dumper, uploader Uploader) *Service {
	return &Service{
		dumper:   dumper,
		uploader: uploader,
		dir:      cfg.Dir,
		keep:     cfg.Keep,
		now:      timeutil.Now,
	}
}

// Run takes one backup and returns its path. A failed upload is logged and
// does not fail the run.
func (s *Service) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := filePrefix + s.now().Format(stampLayout) + "." + s.dumper.Ext()
	path := filepath.Join(s.dir, name)

	start := time.Now()
	if err := s.dumper.Dump(ctx, path); err != nil {
		return "", err
	}
	logger.L().Info("database backup created", zap.String("path", path), zap.Duration("took", time.Since(start)))

	if s.uploader != nil {
		if err := s.uploader.UploadFile(ctx, storage.BackupKey(name), path); err != nil {
			logger.L().Warn("backup upload failed; kept locally", zap.String("path", path), zap.Error(err))
		} else {
			logger.L().Info("backup uploaded", zap.String("key", storage.BackupKey(name)))
		}
	}

	if err := s.prune(); err != nil {
		logger.L().Warn("backup prune failed", zap.Error(err))
	}
	return path, nil
}

// prune deletes the oldest dumps beyond keep. keep <= 0 keeps everything.
func (s *Service) prune() error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var dumps []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) {
			dumps = append(dumps, e.Name())
		}
	}
	if len(dumps) <= s.keep {
		return nil
	}

	// timestamped names sort chronologically
	sort.Strings(dumps)
	for _, name := range dumps[:len(dumps)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return err
		}
		logger.L().Debug("old backup removed", zap.String("file", name))
	}
	return nil
}
