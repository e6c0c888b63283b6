package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gorm.io/gorm"
)

// Dumper writes a full copy of the database to path.
type Dumper interface {
	Dump(ctx context.Context, path string) error
	// Ext is the file extension of a dump, without the dot.
	Ext() string
}

// PgDump shells out to pg_dump in plain SQL format.
type PgDump struct {
	Binary string
	DSN    string
}

func (d PgDump) Ext() string { return "sql" }

func (d PgDump) Dump(ctx context.Context, path string) error {
	bin := d.Binary
	if bin == "" {
		bin = "pg_dump"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--no-owner", "--no-privileges", "--file="+path, "--dbname="+d.DSN)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(path)
		return fmt.Errorf("pg_dump: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// SQLiteSnapshot copies a live sqlite database with VACUUM INTO.
type SQLiteSnapshot struct {
	DB *gorm.DB
}

func (d SQLiteSnapshot) Ext() string { return "db" }

func (d SQLiteSnapshot) Dump(ctx context.Context, path string) error {
	if err := d.DB.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}

// NewDumper picks the dump method for the configured driver.
func NewDumper(driver, dsn, pgDumpPath string, db *gorm.DB) (Dumper, error) {
	switch driver {
	case "postgres":
		return PgDump{Binary: pgDumpPath, DSN: dsn}, nil
	case "sqlite":
		return SQLiteSnapshot{DB: db}, nil
	default:
		return nil, fmt.Errorf("no backup method for driver %q", driver)
	}
}
