// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ParserConfig struct {
	MaxDepth  int `yaml:"maxDepth"`
	MaxFrames int `yaml:"maxFrames"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ExecutorConfig struct {
	Workers     int           `yaml:"workers"`
	TaskTimeout time.Duration `yaml:"taskTimeout"`
	// RetentionTime is how long catalog records are kept.
	RetentionTime time.Duration `yaml:"retentionTime"`
}

type ServerConfig struct {
	Port         int   `yaml:"port"`
	GRPCPort     int   `yaml:"grpcPort"`
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

type Config struct {
	Parser   ParserConfig   `yaml:"parser"`
	Database DatabaseConfig `yaml:"database"`
	Executor ExecutorConfig `yaml:"executor"`
	Server   ServerConfig   `yaml:"server"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Parser: ParserConfig{
			MaxDepth:  256,
			MaxFrames: 1 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
		Executor: ExecutorConfig{
			Workers:       4,
			TaskTimeout:   30 * time.Second,
			RetentionTime: 240 * time.Hour,
		},
		Server: ServerConfig{
			Port:         8080,
			GRPCPort:     51001,
			MaxBodyBytes: 64 << 20,
		},
	}
}

// LoadConfig reads file on top of the defaults.
func LoadConfig(file string) (Config, error) {
	yfile, err := os.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file %q: %w", file, err)
	}

	config := Default()
	err = yaml.Unmarshal(yfile, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Parser.MaxDepth < 1 {
		return fmt.Errorf("parser.maxDepth must be positive, got %d", c.Parser.MaxDepth)
	}
	if c.Parser.MaxFrames < 1 {
		return fmt.Errorf("parser.maxFrames must be positive, got %d", c.Parser.MaxFrames)
	}
	if c.Executor.Workers < 1 {
		return fmt.Errorf("executor.workers must be positive, got %d", c.Executor.Workers)
	}
	if c.Executor.TaskTimeout <= 0 {
		return fmt.Errorf("executor.taskTimeout must be positive, got %v", c.Executor.TaskTimeout)
	}
	return nil
}
