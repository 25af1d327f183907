// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Command bvh-inspect parses motion capture files and prints what they contain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/open-edge-platform/bvh-loader/internal/bvh"
	"github.com/open-edge-platform/bvh-loader/internal/config"
	"github.com/open-edge-platform/bvh-loader/internal/database"
	"github.com/open-edge-platform/bvh-loader/internal/executor"
	"github.com/open-edge-platform/bvh-loader/internal/loader"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

type options struct {
	configFile string
	logLevel   string
	tree       bool
	frames     int
	store      bool
	files      []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseArgs(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("bvh-inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.configFile, "config", "", "config file path")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fs.BoolVar(&opts.tree, "tree", false, "print the joint hierarchy")
	fs.IntVar(&opts.frames, "frames", 0, "print the first `N` frames of motion data")
	fs.BoolVar(&opts.store, "store", false, "record every parse in the configured catalog database")
	fs.Usage = func() {
		fmt.Fprintln(errOut, "usage: bvh-inspect [flags] file.bvh...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if err := validateLogLevel(opts.logLevel); err != nil {
		return opts, err
	}
	if opts.frames < 0 {
		return opts, fmt.Errorf("invalid frame count %d", opts.frames)
	}
	opts.files = fs.Args()
	if len(opts.files) == 0 {
		return opts, errors.New("no input files")
	}
	return opts, nil
}

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

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	// validated by parseArgs
	_ = lvl.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	opts, err := parseArgs(args, errOut)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	} else if err != nil {
		fmt.Fprintf(errOut, "bvh-inspect: %v\n", err)
		return exitUsage
	}

	cfg := config.Default()
	if opts.configFile != "" {
		cfg, err = config.LoadConfig(opts.configFile)
		if err != nil {
			fmt.Fprintf(errOut, "bvh-inspect: %v\n", err)
			return exitUsage
		}
	}
	logger := newLogger(opts.logLevel, errOut)

	results, err := parseFiles(ctx, opts, cfg, logger)
	if err != nil {
		fmt.Fprintf(errOut, "bvh-inspect: %v\n", err)
		return exitFailure
	}

	code := exitOK
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", res.Path, res.Err)
			code = exitFailure
			continue
		}
		printSummary(out, loader.Summarize(res.Name, res.Skeleton))
		if res.RecordID != uuid.Nil {
			fmt.Fprintf(out, "  record: %s\n", res.RecordID)
		}
		if opts.tree {
			printTree(out, res.Skeleton)
		}
		if opts.frames > 0 {
			printFrames(out, res.Skeleton, opts.frames)
		}
	}
	return code
}

// parseFiles parses a single file in place and hands batches, or any run that records
// to the catalog, to the batch executor.
func parseFiles(ctx context.Context, opts options, cfg config.Config, logger *slog.Logger) ([]executor.Result, error) {
	if len(opts.files) == 1 && !opts.store {
		path := opts.files[0]
		sk, err := loader.LoadFile(ctx, path, cfg.Parser, logger)
		return []executor.Result{{Path: path, Name: loader.InferName(path), Skeleton: sk, Err: err}}, nil
	}

	var records database.RecordManager
	if opts.store {
		db, err := database.ConnectDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		records = &database.DBService{DB: db}
	}

	be := executor.NewBatchExecutor(cfg, records, opts.logLevel).WithLogger(logger)
	return be.Run(ctx, opts.files), nil
}

func printSummary(w io.Writer, s loader.Summary) {
	fmt.Fprintf(w, "%s: %d joints (%d end sites), %d channels, depth %d, %d frames at %ss (%v)\n",
		s.Name, s.Joints, s.EndSites, s.Channels, s.Depth, s.Frames,
		strconv.FormatFloat(s.FrameTime, 'g', -1, 64), s.Duration)
}

func printTree(w io.Writer, sk *bvh.Skeleton) {
	depth := make([]int, len(sk.Joints))
	for _, j := range sk.Joints {
		if p := sk.Parent(j); p != nil {
			depth[j.ID()] = depth[p.ID()] + 1
		}
		indent := strings.Repeat("  ", depth[j.ID()]+1)
		fmt.Fprintf(w, "%s%s offset (%s)", indent, j.Name, formatFloats([]float64{j.Offset.X, j.Offset.Y, j.Offset.Z}, ", "))
		if len(j.Channels) > 0 {
			names := make([]string, 0, len(j.Channels))
			for _, c := range j.Channels {
				names = append(names, c.String())
			}
			fmt.Fprintf(w, " [%s]", strings.Join(names, " "))
		}
		fmt.Fprintln(w)
	}
}

func printFrames(w io.Writer, sk *bvh.Skeleton, n int) {
	n = min(n, sk.FrameCount)
	for f := range n {
		values := make([]float64, 0, sk.NumChannels())
		for _, j := range sk.Joints {
			values = append(values, j.Frame(f)...)
		}
		fmt.Fprintf(w, "  frame %d: %s\n", f, formatFloats(values, " "))
	}
}

func formatFloats(values []float64, sep string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, sep)
}
