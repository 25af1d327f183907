// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/internal/clock"
	"github.com/open-edge-platform/bvh-loader/internal/database/models"
)

func (d *DBService) CreateRecord(ctx context.Context, rec *models.ParseRecord) error {
	return d.DB.WithContext(ctx).Create(rec).Error
}

func (d *DBService) GetRecord(ctx context.Context, id uuid.UUID) (*models.ParseRecord, error) {
	var rec models.ParseRecord
	err := d.DB.WithContext(ctx).
		Preload("Joints", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DBService) ListRecords(ctx context.Context, limit int) ([]*models.ParseRecord, error) {
	if limit < 1 {
		limit = -1
	}

	var recs []*models.ParseRecord
	err := d.DB.WithContext(ctx).
		Order("creation_date DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (d *DBService) DeleteRecordsOlderThan(ctx context.Context, dur time.Duration) (int64, error) {
	cutoff := clock.Now().Add(-dur)

	var deleted int64
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.ParseRecord{}).
			Where("creation_date < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("record_id IN ?", ids).Delete(&models.JointRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.ParseRecord{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}
