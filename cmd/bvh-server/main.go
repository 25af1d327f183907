// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/open-edge-platform/bvh-loader/internal/app"
	"github.com/open-edge-platform/bvh-loader/internal/config"
	"github.com/open-edge-platform/bvh-loader/internal/database"
)

const shutdownTimeout = 5 * time.Second

func validateLogLevel(value string) error {
	switch value {
	case "debug":
	case "info":
	case "warn":
	case "error":
	default:
		return fmt.Errorf("invalid log level %q", value)
	}
	return nil
}

func loadConfig(file string) (config.Config, error) {
	if file == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(file)
}

// healthServer reports the serving status of the catalog over the gRPC health protocol.
type healthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
}

func newHealthServer() *healthServer {
	s := &healthServer{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
	}
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// serve blocks until ctx is done, then stops the server, gracefully if it can within
// shutdownTimeout.
func (s *healthServer) serve(ctx context.Context, lis net.Listener) error {
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		s.health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()

		t := time.NewTimer(shutdownTimeout)
		select {
		case <-t.C:
			log.Printf("Graceful shutdown could not be completed within %q, attempting ungraceful shutdown.", shutdownTimeout)
			s.grpcServer.Stop()
		case <-stopped:
			t.Stop()
		}
	}()

	err := s.grpcServer.Serve(lis)
	wg.Wait()
	return err
}

func main() {
	configFile := flag.String("config", "", "config file path")
	logLevel := flag.String("log-level", "info", "server log level")

	flag.Parse()

	configuration, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	err = validateLogLevel(*logLevel)
	if err != nil {
		log.Fatal(err.Error())
	}

	db, err := database.ConnectDB(configuration.Database)
	if err != nil {
		log.Fatal(err.Error())
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", ":"+strconv.Itoa(configuration.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	log.Printf("Health server listening on :%v", configuration.Server.GRPCPort)

	hs := newHealthServer()
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hs.serve(ctx, lis); err != nil {
			log.Printf("Health server stopped: %v", err)
			stop()
		}
	}()

	if err := app.StartServer(ctx, configuration, *logLevel, db); err != nil {
		log.Printf("HTTP server stopped: %v", err)
	}
	stop()
	wg.Wait()
	log.Println("Shutdown completed.")
}
