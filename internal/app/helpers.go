// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/open-edge-platform/bvh-loader/api/v1"
	"github.com/open-edge-platform/bvh-loader/internal/database/models"
)

const (
	statusEndpoint = "/api/v1/status"

	// defaultSkeletonName is used for uploads without a name parameter.
	defaultSkeletonName = "unnamed"
)

func toSummary(rec *models.ParseRecord) api.SkeletonSummary {
	s := api.SkeletonSummary{
		Id:           rec.ID,
		Name:         rec.Name,
		Source:       rec.Source,
		State:        api.SkeletonState(rec.State),
		Joints:       rec.JointCount,
		EndSites:     rec.EndSiteCount,
		Channels:     rec.ChannelCount,
		Frames:       rec.FrameCount,
		FrameTime:    rec.FrameTime,
		Duration:     rec.Duration().Seconds(),
		Depth:        rec.Depth,
		CreationDate: rec.CreationDate,
	}
	if rec.ErrorKind != "" {
		kind, msg := rec.ErrorKind, rec.ErrorMessage
		s.ErrorKind = &kind
		s.ErrorMessage = &msg
	}
	return s
}

func toJoints(joints []models.JointRecord) []api.Joint {
	out := make([]api.Joint, 0, len(joints))
	for _, j := range joints {
		channels := strings.Fields(j.Channels)
		if channels == nil {
			channels = []string{}
		}
		out = append(out, api.Joint{
			Index:    j.Position,
			Name:     j.Name,
			Parent:   j.ParentIndex,
			EndSite:  j.EndSite,
			Channels: channels,
			Offset:   [3]float64{j.OffsetX, j.OffsetY, j.OffsetZ},
		})
	}
	return out
}

func skipLog(c echo.Context) bool {
	userAgent := c.Request().Header.Get("User-Agent")
	path := c.Request().URL.Path
	method := c.Request().Method

	if (strings.HasPrefix(userAgent, "curl") || strings.HasPrefix(userAgent, "kube-probe")) &&
		(path == statusEndpoint || path == metricsEndpoint) &&
		method == http.MethodGet {
		return true
	}
	return false
}

func logError(ctx echo.Context, msg string, err error) {
	ctx.Logger().Errorf("(%s): %s: %v", ctx.Path(), msg, err)
}

func logWarn(ctx echo.Context, msg string) {
	ctx.Logger().Warnf("(%s): %s", ctx.Path(), msg)
}
