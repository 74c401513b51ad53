// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package config defines the runtime configuration for both the batch
// pipeline command and the estimation server. Configuration is layered:
// built-in defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration shared by every command.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	LLM       LLMConfig       `koanf:"llm"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP estimation API.
type ServerConfig struct {
	Host        string        `koanf:"host" validate:"required"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"min=1s"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig controls the embedded DuckDB store the pipeline uses for
// dataset ingest and run summaries.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads 0 means use every CPU.
	Threads int `koanf:"threads" validate:"min=0"`
}

// PipelineConfig carries the batch-run knobs. These must match the values
// the deployed artifacts were fitted under.
type PipelineConfig struct {
	DatasetPath string `koanf:"dataset_path"`
	OutputDir   string `koanf:"output_dir" validate:"required"`

	TestSize          float64 `koanf:"test_size" validate:"gt=0,lt=1"`
	Seed              int64   `koanf:"seed"`
	OutlierFilter     bool    `koanf:"outlier_filter"`
	OutlierMultiplier float64 `koanf:"outlier_multiplier" validate:"gt=0"`
	RareDistrictMin   int     `koanf:"rare_district_min" validate:"min=0"`
	RareCityMin       int     `koanf:"rare_city_min" validate:"min=0"`
	ScaleInteractions bool    `koanf:"scale_interactions"`
}

// ArtifactsConfig locates the frozen fit products the server replays.
type ArtifactsConfig struct {
	Path string `koanf:"path" validate:"required"`
	// ReloadInterval is how often the server re-checks the bundle on disk
	// for a newer pipeline run. Zero disables reloading.
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// LLMConfig controls the optional natural-language request parser, an
// external API the server calls with a circuit breaker and rate limit.
type LLMConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url" validate:"required_if=Enabled true,omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	RateLimitPerSecond float64       `koanf:"rate_limit_per_second" validate:"min=0"`
	RateLimitBurst     int           `koanf:"rate_limit_burst" validate:"min=0"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig mirrors the logging package's init options.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks field constraints and cross-field consistency. Called by
// the loader; commands can also call it on programmatically built configs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when the LLM parser is enabled")
	}
	return nil
}
