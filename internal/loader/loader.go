// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package loader acquires motion capture files and hands them to the bvh parser.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/config"
)

// Extension is the file extension accepted by LoadFile, compared case-insensitively.
const Extension = ".bvh"

var ErrUnsupportedFile = errors.New("unsupported file")

// CanLoad reports whether path names a file LoadFile accepts.
func CanLoad(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// InferName returns the base name of path without its extension.
func InferName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFile opens path and parses it into a validated skeleton. Reads fail with
// ErrStreamUnavailable once ctx is done.
func LoadFile(ctx context.Context, path string, cfg config.ParserConfig, logger *slog.Logger) (*bvh.Skeleton, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !CanLoad(path) {
		return nil, fmt.Errorf("%w: %q does not have extension %q", ErrUnsupportedFile, path, Extension)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &bvh.ParseError{Kind: bvh.ErrStreamUnavailable, Err: err}
	}
	defer f.Close()

	logger = logger.With(slog.String("file", path))
	logger.Info("parsing file")
	sk, err := Load(&ctxReader{ctx: ctx, r: f}, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", path, err)
	}
	logger.Info("successfully parsed file",
		slog.Int("joints", len(sk.Joints)),
		slog.Int("frames", sk.FrameCount),
	)
	return sk, nil
}

// ctxReader stops reading once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// Load parses an already opened stream.
func Load(r io.Reader, cfg config.ParserConfig, logger *slog.Logger) (*bvh.Skeleton, error) {
	var sk bvh.Skeleton
	err := bvh.NewParser(r).
		WithLogger(logger).
		WithMaxDepth(cfg.MaxDepth).
		WithMaxFrames(cfg.MaxFrames).
		Parse(&sk)
	if err != nil {
		return nil, err
	}
	if err := sk.Validate(); err != nil {
		return nil, fmt.Errorf("parsed skeleton is inconsistent: %w", err)
	}
	return &sk, nil
}

// Summary describes a parsed skeleton without its motion data.
type Summary struct {
	Name       string        `json:"name"`
	Joints     int           `json:"joints"`
	EndSites   int           `json:"endSites"`
	Channels   int           `json:"channels"`
	Frames     int           `json:"frames"`
	FrameTime  float64       `json:"frameTime"`
	Duration   time.Duration `json:"duration"`
	Depth      int           `json:"depth"`
	JointNames []string      `json:"jointNames"`
}

func Summarize(name string, sk *bvh.Skeleton) Summary {
	s := Summary{
		Name:       name,
		Joints:     len(sk.Joints),
		Channels:   sk.NumChannels(),
		Frames:     sk.FrameCount,
		FrameTime:  sk.FrameTime,
		Duration:   sk.Duration(),
		Depth:      sk.Depth(),
		JointNames: make([]string, 0, len(sk.Joints)),
	}
	for _, j := range sk.Joints {
		if j.IsEndSite() {
			s.EndSites++
		}
		s.JointNames = append(s.JointNames, j.Name)
	}
	return s
}
