// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"github.com/open-edge-platform/bvh-loader/api/v1"
	"github.com/open-edge-platform/bvh-loader/internal/config"
	"github.com/open-edge-platform/bvh-loader/internal/database"
	"github.com/open-edge-platform/bvh-loader/internal/executor"
)

// retentionInterval is how often records exceeding the retention time are deleted.
const retentionInterval = 10 * time.Minute

var logger *slog.Logger

// NewServer creates the echo server of the skeleton catalog with its routes and middleware.
func NewServer(conf config.Config, logLvl string, records database.RecordManager) *echo.Echo {
	// Creating new Echo server
	e := echo.New()

	// Create a custom logger using slog
	opts := setLogLvl(e, logLvl)
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &opts))

	// Set slog logger as the default logger so parser diagnostics share its configuration.
	slog.SetDefault(logger)

	metrics := newParseMetrics()
	serverInterface := NewServerInterfaceHandler(conf, records, metrics)

	// Registering API call handlers
	api.RegisterHandlers(e, serverInterface)
	e.GET(metricsEndpoint, metrics.handler())

	e.Use(middleware.Recover())
	// Use middleware to log requests with the custom logger
	e.Use(middleware.RequestLoggerWithConfig(
		middleware.RequestLoggerConfig{
			// NOTE: skipping GET requests from curl/kube-probe to the status and metrics
			// endpoints in order to not log probes and scrapes
			Skipper:      skipLog,
			LogURI:       true,
			LogStatus:    true,
			LogError:     true,
			LogUserAgent: true,
			LogMethod:    true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				if v.Error != nil {
					logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
						slog.String("uri", v.URI),
						slog.Int("status", v.Status),
						slog.String("user-agent", v.UserAgent),
						slog.String("method", v.Method),
						slog.String("error", v.Error.Error()),
					)
				} else {
					logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
						slog.String("uri", v.URI),
						slog.Int("status", v.Status),
						slog.String("user-agent", v.UserAgent),
						slog.String("method", v.Method),
					)
				}
				return nil
			},
		},
	))

	return e
}

// StartServer serves the catalog on conf.Server.Port until ctx is done, then shuts the
// server down gracefully.
func StartServer(ctx context.Context, conf config.Config, logLvl string, db *gorm.DB) error {
	records := &database.DBService{DB: db}
	e := NewServer(conf, logLvl, records)

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	retention := executor.NewBatchExecutor(conf, records, logLvl)
	retention.Start(ctx, retentionInterval)
	defer retention.Stop()

	// Print welcome message in logs
	welcomeMessage(e, conf, logLvl)

	// Start server
	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", conf.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server shutdown: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown in 5 seconds after interrupt
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	return e.Shutdown(ctxTimeout)
}

func setLogLvl(e *echo.Echo, logLvl string) slog.HandlerOptions {
	switch logLvl {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
		return slog.HandlerOptions{
			Level: slog.LevelDebug,
		}
	case "info":
		e.Logger.SetLevel(log.INFO)
		return slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	case "warn":
		e.Logger.SetLevel(log.WARN)
		return slog.HandlerOptions{
			Level: slog.LevelWarn,
		}
	case "error":
		e.Logger.SetLevel(log.ERROR)
		return slog.HandlerOptions{
			Level: slog.LevelError,
		}
	default:
		e.Logger.SetLevel(log.INFO)
		return slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}
}

func welcomeMessage(e *echo.Echo, cfg config.Config, logLvl string) {
	e.HidePort = true
	e.HideBanner = true
	fmt.Println("BVH Loader")
	fmt.Printf("⇨ Log level: %s\n", logLvl)
	fmt.Printf("⇨ HTTP server port: %d\n", cfg.Server.Port)
	fmt.Printf("⇨ Database driver: %s\n", cfg.Database.Driver)
	fmt.Println("Configuration:")
	printStruct("Parser", cfg.Parser)
	printStruct("Executor", cfg.Executor)
	printStruct("Server", cfg.Server)
}

func printStruct(header string, obj any) {
	fmt.Printf("⇨ %s:\n", header)
	vals := reflect.ValueOf(obj)
	types := vals.Type()
	for i := 0; i < vals.NumField(); i++ {
		fmt.Printf("  %s: %v\n", types.Field(i).Name, vals.Field(i))
	}
}
