// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/api/v1"
	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/clock"
	"github.com/open-edge-platform/bvh-loader/internal/config"
	db "github.com/open-edge-platform/bvh-loader/internal/database"
	"github.com/open-edge-platform/bvh-loader/internal/database/models"
	"github.com/open-edge-platform/bvh-loader/internal/loader"
)

type ServerInterfaceHandler struct {
	records db.RecordManager
	metrics *parseMetrics

	configuration config.Config
}

const (
	errHTTPEmptyBody            = "request body is empty"
	errHTTPBodyTooLarge         = "request body too large"
	errHTTPFailedToReadBody     = "failed to read request body"
	errHTTPFailedToParse        = "failed to parse skeleton"
	errHTTPFailedToStore        = "failed to store skeleton"
	errHTTPFailedToGetSkeletons = "failed to get skeletons"
	errHTTPFailedToGetSkeleton  = "failed to get skeleton"
	errHTTPSkeletonNotFound     = "skeleton not found"
)

func NewServerInterfaceHandler(configuration config.Config, records db.RecordManager, metrics *parseMetrics) *ServerInterfaceHandler {
	return &ServerInterfaceHandler{
		configuration: configuration,
		records:       records,
		metrics:       metrics,
	}
}

func (w *ServerInterfaceHandler) PostSkeleton(ctx echo.Context, params api.PostSkeletonParams) error {
	name := defaultSkeletonName
	if params.Name != nil && *params.Name != "" {
		name = *params.Name
	}

	body := ctx.Request().Body
	if limit := w.configuration.Server.MaxBodyBytes; limit > 0 {
		body = http.MaxBytesReader(ctx.Response(), body, limit)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logWarn(ctx, fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return ctx.JSON(http.StatusRequestEntityTooLarge, api.HttpError{
				Code:    http.StatusRequestEntityTooLarge,
				Message: errHTTPBodyTooLarge,
			})
		}
		logError(ctx, "Failed to read request body", err)
		return ctx.JSON(http.StatusBadRequest, api.HttpError{
			Code:    http.StatusBadRequest,
			Message: errHTTPFailedToReadBody,
		})
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return ctx.JSON(http.StatusBadRequest, api.HttpError{
			Code:    http.StatusBadRequest,
			Message: errHTTPEmptyBody,
		})
	}

	logger := slog.Default().With(slog.String("skeleton", name))
	start := clock.Now()
	sk, parseErr := loader.Load(bytes.NewReader(content), w.configuration.Parser, logger)
	elapsed := clock.Since(start)

	kind := bvh.KindName(parseErr)
	if parseErr != nil && kind == "" {
		// The stream parsed but the skeleton failed validation.
		logError(ctx, "Parsed skeleton is inconsistent", parseErr)
		w.observe("error", "Internal", elapsed)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToParse,
		})
	}

	rec := models.NewParseRecord(name, "upload", sk, parseErr)
	if err := w.records.CreateRecord(ctx.Request().Context(), rec); err != nil {
		logError(ctx, "Failed to store parse record", err)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToStore,
		})
	}

	if parseErr != nil {
		w.observe("failed", kind, elapsed)
		logWarn(ctx, fmt.Sprintf("Rejected skeleton %q: %v", name, parseErr))
		return ctx.JSON(http.StatusUnprocessableEntity, api.ParseFailure{
			Code:    http.StatusUnprocessableEntity,
			Message: parseErr.Error(),
			Kind:    kind,
			Id:      &rec.ID,
		})
	}

	w.observe("parsed", "", elapsed)
	return ctx.JSON(http.StatusCreated, api.SkeletonDetail{
		Summary: toSummary(rec),
		Joints:  toJoints(rec.Joints),
	})
}

func (w *ServerInterfaceHandler) GetSkeletons(ctx echo.Context, params api.GetSkeletonsParams) error {
	limit := 0
	if params.Limit != nil {
		if *params.Limit < 0 {
			return ctx.JSON(http.StatusBadRequest, api.HttpError{
				Code:    http.StatusBadRequest,
				Message: "limit must not be negative",
			})
		}
		limit = *params.Limit
	}

	recs, err := w.records.ListRecords(ctx.Request().Context(), limit)
	if err != nil {
		logError(ctx, "Failed to list parse records", err)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToGetSkeletons,
		})
	}

	list := api.SkeletonList{Skeletons: make([]api.SkeletonSummary, 0, len(recs))}
	for _, rec := range recs {
		list.Skeletons = append(list.Skeletons, toSummary(rec))
	}
	return ctx.JSON(http.StatusOK, list)
}

func (w *ServerInterfaceHandler) GetSkeleton(ctx echo.Context, id api.SkeletonId) error {
	rec, err := w.records.GetRecord(ctx.Request().Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.JSON(http.StatusNotFound, api.HttpError{
			Code:    http.StatusNotFound,
			Message: errHTTPSkeletonNotFound,
		})
	} else if err != nil {
		logError(ctx, fmt.Sprintf("Failed to get parse record %q", id), err)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToGetSkeleton,
		})
	}

	return ctx.JSON(http.StatusOK, api.SkeletonDetail{
		Summary: toSummary(rec),
		Joints:  toJoints(rec.Joints),
	})
}

// GetStatus reports ready while the catalog can be queried.
func (w *ServerInterfaceHandler) GetStatus(ctx echo.Context) error {
	if _, err := w.records.ListRecords(ctx.Request().Context(), 1); err != nil {
		logError(ctx, "Catalog is not reachable", err)
		return ctx.JSON(http.StatusOK, &api.ServiceStatus{
			State: api.Failed,
		})
	}

	return ctx.JSON(http.StatusOK, &api.ServiceStatus{
		State: api.Ready,
	})
}

func (w *ServerInterfaceHandler) observe(result, kind string, elapsed time.Duration) {
	if w.metrics != nil {
		w.metrics.observe(result, kind, elapsed)
	}
}
