// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package database_test

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/clock"
	"github.com/open-edge-platform/bvh-loader/internal/config"
	"github.com/open-edge-platform/bvh-loader/internal/database"
	"github.com/open-edge-platform/bvh-loader/internal/database/models"
)

const (
	dbQueryTimeout = 5 * time.Second

	armBVH = `HIERARCHY
ROOT Shoulder
{
	OFFSET 0 0 0
	CHANNELS 3 Zrotation Xrotation Yrotation
	JOINT Elbow
	{
		OFFSET 0 -10 0
		CHANNELS 1 Xrotation
		End Site
		{
			OFFSET 0 -8 0
		}
	}
}
MOTION
Frames: 2
Frame Time: 0.5
1 2 3 4
5 6 7 8
`
)

var db *database.DBService

func parsedRecord(name string) *models.ParseRecord {
	var sk bvh.Skeleton
	Expect(bvh.NewParser(strings.NewReader(armBVH)).Parse(&sk)).To(Succeed())
	return models.NewParseRecord(name, "testdata/"+name+".bvh", &sk, nil)
}

func failedRecord(name string) *models.ParseRecord {
	var sk bvh.Skeleton
	err := bvh.NewParser(strings.NewReader("HIERARCHY ROOT")).Parse(&sk)
	Expect(err).To(HaveOccurred())
	return models.NewParseRecord(name, "testdata/"+name+".bvh", &sk, err)
}

var _ = Describe("Database", func() {
	BeforeEach(func() {
		dbConn, err := database.ConnectDB(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:?cache=shared"})
		Expect(err).ToNot(HaveOccurred())
		Expect(database.Migrate(dbConn)).To(Succeed())
		db = &database.DBService{DB: dbConn}

		clock.SetFakeClock()
		clock.FakeClock.Set(time.Now())
	})

	AfterEach(func() {
		clock.UnsetFakeClock()

		if db == nil {
			return
		}
		dbConn, err := db.DB.DB()
		Expect(err).ToNot(HaveOccurred())
		Expect(dbConn.Close()).To(Succeed())
	})

	Describe("Connecting", func() {
		It("Fail to connect with an unknown driver", func() {
			_, err := database.ConnectDB(config.DatabaseConfig{Driver: "mysql"})
			Expect(err).To(MatchError(ContainSubstring(`unknown database driver "mysql"`)))
		})
	})

	Describe("Parse records", func() {
		Context("With no records", func() {
			It("Get empty list of records", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				recs, err := db.ListRecords(ctx, 0)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(recs).To(BeEmpty())
			})

			It("Fail to get a record that does not exist", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				rec, err := db.GetRecord(ctx, uuid.New())
				Expect(err).To(MatchError(gorm.ErrRecordNotFound))
				Expect(rec).To(BeNil())
			})

			It("Delete nothing", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				n, err := db.DeleteRecordsOlderThan(ctx, time.Hour)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(n).To(BeZero())
			})
		})

		Context("With stored records", func() {
			var arm, broken *models.ParseRecord

			BeforeEach(func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				arm = parsedRecord("arm")
				Expect(db.CreateRecord(ctx, arm)).To(Succeed())

				clock.FakeClock.Add(time.Minute)
				broken = failedRecord("broken")
				Expect(db.CreateRecord(ctx, broken)).To(Succeed())
			})

			It("Get a parsed record with its joints in registration order", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				rec, err := db.GetRecord(ctx, arm.ID)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(*rec).To(MatchFields(IgnoreExtras, Fields{
					"ID":           Equal(arm.ID),
					"Name":         Equal("arm"),
					"State":        Equal(models.ParseParsed),
					"ErrorKind":    BeEmpty(),
					"JointCount":   Equal(3),
					"EndSiteCount": Equal(1),
					"ChannelCount": Equal(4),
					"FrameCount":   Equal(2),
					"FrameTime":    Equal(0.5),
					"Depth":        Equal(3),
				}))
				Expect(rec.Joints).To(HaveLen(3))
				Expect(rec.Joints).To(HaveExactElements(
					MatchFields(IgnoreExtras, Fields{
						"Position":    Equal(0),
						"Name":        Equal("Shoulder"),
						"ParentIndex": Equal(-1),
						"Channels":    Equal("Zrotation Xrotation Yrotation"),
					}),
					MatchFields(IgnoreExtras, Fields{
						"Position":    Equal(1),
						"Name":        Equal("Elbow"),
						"ParentIndex": Equal(0),
						"Channels":    Equal("Xrotation"),
						"OffsetY":     Equal(-10.0),
					}),
					MatchFields(IgnoreExtras, Fields{
						"Position":    Equal(2),
						"Name":        Equal(bvh.EndSiteName),
						"ParentIndex": Equal(1),
						"EndSite":     BeTrue(),
						"Channels":    BeEmpty(),
					}),
				))
				Expect(rec.Duration()).To(Equal(time.Second))
			})

			It("Get a failed record with its error kind", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				rec, err := db.GetRecord(ctx, broken.ID)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(*rec).To(MatchFields(IgnoreExtras, Fields{
					"State":        Equal(models.ParseFailed),
					"ErrorKind":    Equal("UnexpectedEndOfInput"),
					"ErrorMessage": ContainSubstring("unexpected end of input"),
					"JointCount":   BeZero(),
					"Joints":       BeEmpty(),
				}))
			})

			It("List records newest first", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				recs, err := db.ListRecords(ctx, 0)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(recs).To(HaveLen(2))
				Expect(recs[0].ID).To(Equal(broken.ID))
				Expect(recs[1].ID).To(Equal(arm.ID))
			})

			It("List records up to the limit", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				recs, err := db.ListRecords(ctx, 1)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(recs).To(HaveLen(1))
				Expect(recs[0].ID).To(Equal(broken.ID))
			})

			It("Get a failed record without joints", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				rec, err := db.GetRecord(ctx, broken.ID)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(rec.Joints).To(BeEmpty())
			})

			It("Fail to store a record with an existing ID", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				dup := parsedRecord("arm")
				dup.ID = arm.ID
				Expect(db.CreateRecord(ctx, dup)).ToNot(Succeed())
			})

			It("Delete records older than the retention time with their joints", func() {
				ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
				defer cancel()

				clock.FakeClock.Add(time.Hour)

				n, err := db.DeleteRecordsOlderThan(ctx, time.Hour+30*time.Second)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(n).To(BeEquivalentTo(1))

				_, err = db.GetRecord(ctx, arm.ID)
				Expect(err).To(MatchError(gorm.ErrRecordNotFound))

				var joints int64
				Expect(db.DB.Model(&models.JointRecord{}).Where("record_id = ?", arm.ID).Count(&joints).Error).To(Succeed())
				Expect(joints).To(BeZero())

				rec, err := db.GetRecord(ctx, broken.ID)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(rec.Name).To(Equal("broken"))
			})
		})
	})
})
