// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/clock"
)

const armBVH = "" +
	"HIERARCHY\n" +
	"ROOT Shoulder\n" +
	"{\n" +
	"	OFFSET 0 0 0\n" +
	"	CHANNELS 3 Zrotation Xrotation Yrotation\n" +
	"	JOINT Elbow\n" +
	"	{\n" +
	"		OFFSET 0 -10 0\n" +
	"		CHANNELS 1 Xrotation\n" +
	"		End Site\n" +
	"		{\n" +
	"			OFFSET 0 -8 0\n" +
	"		}\n" +
	"	}\n" +
	"}\n" +
	"MOTION\n" +
	"Frames: 2\n" +
	"Frame Time: 0.5\n" +
	"1 2 3 4\n" +
	"5 6 7 8\n"

type ParseRecordSuite struct {
	suite.Suite

	db  *gorm.DB
	now time.Time
}

func (s *ParseRecordSuite) SetupSubTest() {
	clock.SetFakeClock()
	s.now = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	clock.FakeClock.Set(s.now)

	var err error
	s.db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(s.db.AutoMigrate(&ParseRecord{}, &JointRecord{}))
}

func (s *ParseRecordSuite) TearDownSubTest() {
	clock.UnsetFakeClock()

	s.db.Exec("DELETE FROM joint_records")
	s.db.Exec("DELETE FROM parse_records")

	dbConn, err := s.db.DB()
	s.Require().NoError(err)
	dbConn.Close()
}

func TestParseRecords(t *testing.T) {
	suite.Run(t, new(ParseRecordSuite))
}

func (s *ParseRecordSuite) parseArm() *bvh.Skeleton {
	sk := &bvh.Skeleton{}
	s.Require().NoError(bvh.NewParser(strings.NewReader(armBVH)).Parse(sk))
	return sk
}

func (s *ParseRecordSuite) TestNewParseRecord() {
	s.Run("Parsed", func() {
		rec := NewParseRecord("arm", "upload", s.parseArm(), nil)

		s.Require().Equal(ParseParsed, rec.State)
		s.Require().Empty(rec.ErrorKind)
		s.Require().Equal(3, rec.JointCount)
		s.Require().Equal(1, rec.EndSiteCount)
		s.Require().Equal(4, rec.ChannelCount)
		s.Require().Equal(2, rec.FrameCount)
		s.Require().Equal(3, rec.Depth)
		s.Require().Equal(time.Second, rec.Duration())

		s.Require().Len(rec.Joints, 3)
		s.Require().Equal("Zrotation Xrotation Yrotation", rec.Joints[0].Channels)
		s.Require().Equal(-1, rec.Joints[0].ParentIndex)
		s.Require().Equal("Elbow", rec.Joints[1].Name)
		s.Require().Equal(0, rec.Joints[1].ParentIndex)
		s.Require().Equal(-10.0, rec.Joints[1].OffsetY)
		s.Require().True(rec.Joints[2].EndSite)
		s.Require().Empty(rec.Joints[2].Channels)
		for _, j := range rec.Joints {
			s.Require().Equal(rec.ID, j.RecordID)
		}
	})

	s.Run("Failed", func() {
		err := bvh.NewParser(strings.NewReader("HIERARCHY ROOT")).Parse(&bvh.Skeleton{})
		s.Require().Error(err)

		rec := NewParseRecord("broken", "upload", nil, err)
		s.Require().Equal(ParseFailed, rec.State)
		s.Require().Equal("UnexpectedEndOfInput", rec.ErrorKind)
		s.Require().Equal(err.Error(), rec.ErrorMessage)
		s.Require().Empty(rec.Joints)
	})

	s.Run("FailedWithForeignError", func() {
		rec := NewParseRecord("broken", "upload", nil, errors.New("disk full"))
		s.Require().Equal("Internal", rec.ErrorKind)
	})
}

func (s *ParseRecordSuite) TestDurationSaturates() {
	rec := &ParseRecord{FrameCount: 2, FrameTime: 1e300}
	s.Require().Equal(time.Duration(math.MaxInt64), rec.Duration())

	rec.FrameTime = -1e300
	s.Require().Equal(time.Duration(math.MinInt64), rec.Duration())
}

func (s *ParseRecordSuite) TestBeforeCreate() {
	s.Run("InvalidState", func() {
		invalidState := ParseState("Pending")
		s.Require().ErrorContains(s.db.Create(&ParseRecord{
			Name:  "arm",
			State: invalidState,
		}).Error, fmt.Sprintf("unknown parse state: %q", invalidState))
	})

	s.Run("FailedWithoutKind", func() {
		s.Require().ErrorContains(s.db.Create(&ParseRecord{
			Name:  "arm",
			State: ParseFailed,
		}).Error, "failed record has no error kind")
	})

	s.Run("ParsedWithKind", func() {
		s.Require().ErrorContains(s.db.Create(&ParseRecord{
			Name:      "arm",
			State:     ParseParsed,
			ErrorKind: "MalformedNumber",
		}).Error, "parsed record has an error kind")
	})

	s.Run("Succeeded", func() {
		rec := NewParseRecord("arm", "upload", s.parseArm(), nil)
		rec.ID = uuid.Nil
		rec.Joints = nil
		s.Require().NoError(s.db.Create(rec).Error)

		s.Require().NotEqual(uuid.Nil, rec.ID)
		s.Require().True(s.now.Equal(rec.CreationDate))

		var out ParseRecord
		s.Require().NoError(s.db.First(&out, "id = ?", rec.ID).Error)
		s.Require().Equal(rec.Name, out.Name)
		s.Require().Equal(ParseParsed, out.State)
	})

	s.Run("JointsCreatedWithRecord", func() {
		rec := NewParseRecord("arm", "upload", s.parseArm(), nil)
		s.Require().NoError(s.db.Create(rec).Error)

		var joints []JointRecord
		s.Require().NoError(s.db.Where("record_id = ?", rec.ID).Order("position").Find(&joints).Error)
		s.Require().Len(joints, 3)
		s.Require().Equal("Shoulder", joints[0].Name)
		s.Require().Equal("End Site", joints[2].Name)
	})
}
