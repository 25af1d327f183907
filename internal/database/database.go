// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/internal/config"
	"github.com/open-edge-platform/bvh-loader/internal/database/models"
)

// RecordManager stores the outcome of every parse in the skeleton catalog.
type RecordManager interface {
	// CreateRecord stores a parse record together with its joints.
	CreateRecord(ctx context.Context, rec *models.ParseRecord) error

	// GetRecord gets a parse record and its joints in registration order.
	GetRecord(ctx context.Context, id uuid.UUID) (*models.ParseRecord, error)

	// ListRecords gets the most recent records, newest first, without joints.
	// A limit below 1 returns every record.
	ListRecords(ctx context.Context, limit int) ([]*models.ParseRecord, error)

	// DeleteRecordsOlderThan deletes records created more than dur ago and returns
	// how many were deleted.
	DeleteRecordsOlderThan(ctx context.Context, dur time.Duration) (int64, error)
}

type DBService struct {
	DB *gorm.DB
}

// ConnectDB opens the catalog database. An empty postgres DSN is built from the
// standard PG* environment variables.
func ConnectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = postgresDSNFromEnv()
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}
	return db, nil
}

func postgresDSNFromEnv() string {
	host := os.Getenv("PGHOST")
	port := os.Getenv("PGPORT")
	user := os.Getenv("PGUSER")
	password := os.Getenv("PGPASSWORD")
	dbname := os.Getenv("PGDATABASE")

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=prefer", host, user, password, dbname, port)
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ParseRecord{}, &models.JointRecord{}); err != nil {
		return fmt.Errorf("failed to migrate catalog tables: %w", err)
	}
	return nil
}
