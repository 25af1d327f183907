// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/clock"
	"github.com/open-edge-platform/bvh-loader/internal/config"
	"github.com/open-edge-platform/bvh-loader/internal/database"
	"github.com/open-edge-platform/bvh-loader/internal/database/models"
	"github.com/open-edge-platform/bvh-loader/internal/loader"
)

// ErrorKindTimeout is stored for files whose parse exceeded the task timeout.
const ErrorKindTimeout = "Timeout"

type loadFunc func(ctx context.Context, path string, cfg config.ParserConfig, logger *slog.Logger) (*bvh.Skeleton, error)

// Result is the outcome of one file of a batch.
type Result struct {
	TaskID uuid.UUID
	Path   string
	Name   string

	Skeleton *bvh.Skeleton
	Err      error
	Elapsed  time.Duration

	// RecordID is the catalog record written for the file, uuid.Nil when no catalog is set.
	RecordID uuid.UUID
	// StoreErr is set when the record could not be written.
	StoreErr error
}

// BatchExecutor parses files concurrently, one parser per file, and records every
// outcome in the catalog. It also periodically removes records exceeding the retention time.
type BatchExecutor struct {
	parserConfig   config.ParserConfig
	executorConfig config.ExecutorConfig
	logger         *slog.Logger
	quit           chan struct{}

	records database.RecordManager
	load    loadFunc
}

// NewBatchExecutor creates a BatchExecutor. records may be nil, in which case nothing
// is persisted.
func NewBatchExecutor(cfg config.Config, records database.RecordManager, loglevel string) *BatchExecutor {
	opts := setLogLvl(loglevel)
	return &BatchExecutor{
		parserConfig:   cfg.Parser,
		executorConfig: cfg.Executor,
		logger:         slog.New(slog.NewTextHandler(os.Stdout, &opts)),
		quit:           make(chan struct{}),

		records: records,
		load:    loader.LoadFile,
	}
}

// WithLogger replaces the logger created from the log level.
func (be *BatchExecutor) WithLogger(logger *slog.Logger) *BatchExecutor {
	if logger != nil {
		be.logger = logger
	}
	return be
}

// Run parses paths with executor.workers goroutines and returns one result per path, in
// the order of paths. Files that cannot be loaded are reported in their Result.
func (be *BatchExecutor) Run(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	workers := min(max(be.executorConfig.Workers, 1), len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = be.executeTask(ctx, paths[i])
			}
		}()
	}

	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(paths); j++ {
				results[j] = Result{
					TaskID: uuid.New(),
					Path:   paths[j],
					Name:   loader.InferName(paths[j]),
					Err:    ctx.Err(),
				}
			}
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

type loadResult struct {
	sk  *bvh.Skeleton
	err error
}

// executeTask parses one file with the configured task timeout and stores its record.
func (be *BatchExecutor) executeTask(ctx context.Context, path string) Result {
	res := Result{
		TaskID: uuid.New(),
		Path:   path,
		Name:   loader.InferName(path),
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	logger := be.logger.With(slog.String("task", res.TaskID.String()))

	ctxWithTimeout, cancel := context.WithTimeout(ctx, be.executorConfig.TaskTimeout)
	defer cancel()

	// Buffered so the parse goroutine can finish after a timeout. The load itself
	// stops at its next read once ctxWithTimeout is done.
	resChan := make(chan loadResult, 1)
	start := clock.Now()

	go func() {
		sk, err := be.load(ctxWithTimeout, path, be.parserConfig, logger)
		resChan <- loadResult{sk: sk, err: err}
	}()

	select {
	case <-ctxWithTimeout.Done():
		res.Err = ctxWithTimeout.Err()
		logger.Error(fmt.Sprintf("failed to parse %q within timeout", path), slog.Any("error", res.Err))
	case lr := <-resChan:
		res.Skeleton, res.Err = lr.sk, lr.err
	}
	res.Elapsed = clock.Since(start)

	if res.Err != nil {
		logger.Error(fmt.Sprintf("failed to execute task for %q", path), slog.Any("error", res.Err))
	}

	be.store(ctx, logger, &res)
	return res
}

func (be *BatchExecutor) store(ctx context.Context, logger *slog.Logger, res *Result) {
	if be.records == nil {
		return
	}

	rec := models.NewParseRecord(res.Name, res.Path, res.Skeleton, res.Err)
	if errors.Is(res.Err, context.DeadlineExceeded) {
		rec.ErrorKind = ErrorKindTimeout
	}

	if err := be.records.CreateRecord(ctx, rec); err != nil {
		logger.Error(fmt.Sprintf("failed to store record for %q", res.Path), slog.Any("error", err))
		res.StoreErr = err
		return
	}
	res.RecordID = rec.ID
}

// Start periodically deletes catalog records older than the retention time.
// NOTE: Once this method is invoked, Stop must be called to release the goroutine.
func (be *BatchExecutor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		cleanupTicker := time.NewTicker(interval)
		defer cleanupTicker.Stop()

		for {
			select {
			case <-be.quit:
				be.logger.Info("Received signal: stopping executor")
				return
			case <-ctx.Done():
				return
			case <-cleanupTicker.C:
				be.cleanup(ctx)
			}
		}
	}()
}

// Stop stops the retention loop.
func (be *BatchExecutor) Stop() {
	close(be.quit)
}

func (be *BatchExecutor) cleanup(ctx context.Context) {
	if be.records == nil {
		return
	}
	n, err := be.records.DeleteRecordsOlderThan(ctx, be.executorConfig.RetentionTime)
	if err != nil {
		be.logger.Error("failed to clean up old records", slog.Any("error", err))
		return
	}
	if n > 0 {
		be.logger.Info("deleted old records", slog.Int64("count", n))
	}
}

func setLogLvl(logLvl string) slog.HandlerOptions {
	switch logLvl {
	case "debug":
		return slog.HandlerOptions{
			Level: slog.LevelDebug,
		}
	case "info":
		return slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	case "warn":
		return slog.HandlerOptions{
			Level: slog.LevelWarn,
		}
	case "error":
		return slog.HandlerOptions{
			Level: slog.LevelError,
		}
	default:
		return slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}
}
