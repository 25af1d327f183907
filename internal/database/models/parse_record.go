// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/clock"
)

type ParseState string

const (
	ParseParsed ParseState = "Parsed"
	ParseFailed ParseState = "Failed"
)

func (ps ParseState) Validate() error {
	switch ps {
	case ParseParsed:
	case ParseFailed:
	default:
		return fmt.Errorf("unknown parse state: %q", ps)
	}
	return nil
}

// ParseRecord is the catalog entry written for every parsed stream.
type ParseRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name         string     `gorm:"not null"`
	Source       string
	State        ParseState `gorm:"not null;index"`
	ErrorKind    string
	ErrorMessage string
	JointCount   int
	EndSiteCount int
	ChannelCount int
	FrameCount   int
	FrameTime    float64
	Depth        int
	CreationDate time.Time     `gorm:"index"`
	Joints       []JointRecord `gorm:"foreignKey:RecordID"`
}

// JointRecord stores one joint of a parsed skeleton, motion data excluded.
type JointRecord struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	RecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Position is the registration index of the joint.
	Position    int    `gorm:"not null"`
	Name        string `gorm:"not null"`
	ParentIndex int
	EndSite     bool
	// Channels holds the channel names separated by spaces.
	Channels string
	OffsetX  float64
	OffsetY  float64
	OffsetZ  float64
}

// NewParseRecord builds the record for a parse of name read from source. When parseErr
// is not nil the record is Failed and sk is ignored.
func NewParseRecord(name, source string, sk *bvh.Skeleton, parseErr error) *ParseRecord {
	rec := &ParseRecord{
		ID:     uuid.New(),
		Name:   name,
		Source: source,
		State:  ParseParsed,
	}
	if parseErr != nil {
		rec.State = ParseFailed
		rec.ErrorKind = bvh.KindName(parseErr)
		if rec.ErrorKind == "" {
			rec.ErrorKind = "Internal"
		}
		rec.ErrorMessage = parseErr.Error()
		return rec
	}

	rec.JointCount = len(sk.Joints)
	rec.ChannelCount = sk.NumChannels()
	rec.FrameCount = sk.FrameCount
	rec.FrameTime = sk.FrameTime
	rec.Depth = sk.Depth()
	rec.Joints = make([]JointRecord, 0, len(sk.Joints))
	for _, j := range sk.Joints {
		if j.IsEndSite() {
			rec.EndSiteCount++
		}
		names := make([]string, 0, len(j.Channels))
		for _, c := range j.Channels {
			names = append(names, c.String())
		}
		rec.Joints = append(rec.Joints, JointRecord{
			RecordID:    rec.ID,
			Position:    int(j.ID()),
			Name:        j.Name,
			ParentIndex: int(j.Parent),
			EndSite:     j.IsEndSite(),
			Channels:    strings.Join(names, " "),
			OffsetX:     j.Offset.X,
			OffsetY:     j.Offset.Y,
			OffsetZ:     j.Offset.Z,
		})
	}
	return rec
}

// Duration returns the length of the recorded motion.
func (r *ParseRecord) Duration() time.Duration {
	return bvh.MotionDuration(r.FrameCount, r.FrameTime)
}

func (r *ParseRecord) validateError() error {
	if r.State == ParseFailed && r.ErrorKind == "" {
		return errors.New("failed record has no error kind")
	}
	if r.State == ParseParsed && r.ErrorKind != "" {
		return errors.New("parsed record has an error kind")
	}
	return nil
}

func (r *ParseRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreationDate.IsZero() {
		r.CreationDate = clock.Now()
	}
	if err := r.State.Validate(); err != nil {
		return err
	}
	return r.validateError()
}
