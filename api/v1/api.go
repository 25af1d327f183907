// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package api holds the HTTP API of the skeleton catalog: its wire types, the
// ServerInterface implemented by the service and the echo routing that binds request
// parameters before calling it.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Defines values for ServiceStatusState.
const (
	Failed ServiceStatusState = "failed"
	Ready  ServiceStatusState = "ready"
)

// Defines values for SkeletonState.
const (
	SkeletonStateFailed SkeletonState = "Failed"
	SkeletonStateParsed SkeletonState = "Parsed"
)

// HttpError defines model for HttpError.
type HttpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ParseFailure is returned when an uploaded stream is not a valid motion capture file.
type ParseFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	// Kind names the parse error, e.g. UnexpectedToken.
	Kind string `json:"kind"`

	// Id is the catalog record written for the failed parse.
	Id *openapi_types.UUID `json:"id,omitempty"`
}

// ServiceStatus defines model for ServiceStatus.
type ServiceStatus struct {
	State ServiceStatusState `json:"state"`
}

// ServiceStatusState defines model for ServiceStatus.State.
type ServiceStatusState string

// SkeletonState defines model for SkeletonSummary.State.
type SkeletonState string

// SkeletonSummary describes one catalog record.
type SkeletonSummary struct {
	Id           openapi_types.UUID `json:"id"`
	Name         string             `json:"name"`
	Source       string             `json:"source,omitempty"`
	State        SkeletonState      `json:"state"`
	ErrorKind    *string            `json:"errorKind,omitempty"`
	ErrorMessage *string            `json:"errorMessage,omitempty"`
	Joints       int                `json:"joints"`
	EndSites     int                `json:"endSites"`
	Channels     int                `json:"channels"`
	Frames       int                `json:"frames"`
	FrameTime    float64            `json:"frameTime"`

	// Duration is the length of the motion in seconds.
	Duration     float64   `json:"duration"`
	Depth        int       `json:"depth"`
	CreationDate time.Time `json:"creationDate"`
}

// Joint defines model for Joint.
type Joint struct {
	Index int    `json:"index"`
	Name  string `json:"name"`

	// Parent is the index of the parent joint, -1 for the root.
	Parent   int        `json:"parent"`
	EndSite  bool       `json:"endSite"`
	Channels []string   `json:"channels"`
	Offset   [3]float64 `json:"offset"`
}

// SkeletonDetail defines model for SkeletonDetail.
type SkeletonDetail struct {
	Summary SkeletonSummary `json:"summary"`
	Joints  []Joint         `json:"joints"`
}

// SkeletonList defines model for SkeletonList.
type SkeletonList struct {
	Skeletons []SkeletonSummary `json:"skeletons"`
}

// SkeletonId defines model for SkeletonId.
type SkeletonId = openapi_types.UUID

// PostSkeletonParams defines parameters for PostSkeleton.
type PostSkeletonParams struct {
	// Name of the skeleton, "unnamed" when omitted.
	Name *string `form:"name,omitempty" json:"name,omitempty"`
}

// GetSkeletonsParams defines parameters for GetSkeletons.
type GetSkeletonsParams struct {
	// Limit is the maximum number of records returned, newest first.
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Parse a BVH stream and store it in the catalog
	// (POST /api/v1/skeletons)
	PostSkeleton(ctx echo.Context, params PostSkeletonParams) error
	// List catalog records
	// (GET /api/v1/skeletons)
	GetSkeletons(ctx echo.Context, params GetSkeletonsParams) error
	// Get a catalog record with its joints
	// (GET /api/v1/skeletons/{id})
	GetSkeleton(ctx echo.Context, id SkeletonId) error
	// Get service status
	// (GET /api/v1/status)
	GetStatus(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// PostSkeleton converts echo context to params.
func (w *ServerInterfaceWrapper) PostSkeleton(ctx echo.Context) error {
	var err error

	var params PostSkeletonParams
	err = runtime.BindQueryParameter("form", true, false, "name", ctx.QueryParams(), &params.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter name: %s", err))
	}

	return w.Handler.PostSkeleton(ctx, params)
}

// GetSkeletons converts echo context to params.
func (w *ServerInterfaceWrapper) GetSkeletons(ctx echo.Context) error {
	var err error

	var params GetSkeletonsParams
	err = runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}

	return w.Handler.GetSkeletons(ctx, params)
}

// GetSkeleton converts echo context to params.
func (w *ServerInterfaceWrapper) GetSkeleton(ctx echo.Context) error {
	var err error

	var id SkeletonId
	err = runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}

	return w.Handler.GetSkeleton(ctx, id)
}

// GetStatus converts echo context to params.
func (w *ServerInterfaceWrapper) GetStatus(ctx echo.Context) error {
	return w.Handler.GetStatus(ctx)
}

// EchoRouter is an interface that wraps the methods of echo.Echo and echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends BaseURL to the paths, so
// that the paths can be served under a prefix.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST(baseURL+"/api/v1/skeletons", wrapper.PostSkeleton)
	router.GET(baseURL+"/api/v1/skeletons", wrapper.GetSkeletons)
	router.GET(baseURL+"/api/v1/skeletons/:id", wrapper.GetSkeleton)
	router.GET(baseURL+"/api/v1/status", wrapper.GetStatus)
}
