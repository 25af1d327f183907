// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type (
	// Lint is the Mage namespace for linting targets.
	Lint mg.Namespace

	// Test is the Mage namespace for testing targets.
	Test mg.Namespace
)

var (
	binaries = []string{
		"bvh-inspect",
		"bvh-server",
	}

	fuzzTestList = []string{
		"FuzzPostSkeletonRandomInput",
		"FuzzGetSkeletonID",
	}
)

// Ensures all files have copyright and license set.
func (Lint) License() error {
	return sh.Run("reuse", "lint")
}

// Runs golangci-lint over the module.
func (Lint) Go() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Runs unit tests with coverage.
func (Test) Unit() error {
	return sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./...")
}

// Runs fuzz tests.
func (Test) Fuzz(fuzzMinutes string) error {
	outputDir := filepath.Join("internal", "app", "fuzz-output")

	// Create the directory if it doesn't exist
	err := os.MkdirAll(outputDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fuzzSeconds, err := parseMinutesToSeconds(fuzzMinutes)
	if err != nil {
		return err
	}

	for _, fuzzTest := range fuzzTestList {
		outputFile := filepath.Join(outputDir, "fuzz_output.txt")
		cmd := fmt.Sprintf("nohup go test ./internal/app/ -fuzz=%s -run=%s -fuzztime=%ds >> %s 2>&1 &", fuzzTest, fuzzTest, fuzzSeconds, outputFile)
		fmt.Println("Running command:", cmd)

		err := sh.Run("sh", "-c", cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

// Builds the command binaries into bin/.
func Build() error {
	mg.Deps(Test.Unit)
	for _, name := range binaries {
		out := filepath.Join("bin", name)
		if err := sh.RunWith(map[string]string{"CGO_ENABLED": "1"}, "go", "build", "-o", out, "./cmd/"+name); err != nil {
			return fmt.Errorf("failed to build %q: %w", name, err)
		}
	}
	return nil
}

// parseMinutesToSeconds converts a duration in minutes to seconds.
func parseMinutesToSeconds(minutes string) (int, error) {
	if minutes == "" {
		return 60, nil
	}

	minValue, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes format: %w", err)
	}

	return minValue * 60, nil
}
