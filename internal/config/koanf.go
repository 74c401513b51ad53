// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/homeval/config.yaml",
	"/etc/homeval/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied before file and env
// layers. Pipeline values match the configuration the published artifacts
// were fitted under.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			Environment:     "development",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "/data/homeval.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Pipeline: PipelineConfig{
			DatasetPath:       "/data/listings.csv",
			OutputDir:         "/data/out",
			TestSize:          0.2,
			Seed:              42,
			OutlierFilter:     true,
			OutlierMultiplier: 1.5,
			RareDistrictMin:   100,
			RareCityMin:       10,
			ScaleInteractions: false,
		},
		Artifacts: ArtifactsConfig{
			Path:           "/data/out/bundle.json",
			ReloadInterval: 0,
		},
		LLM: LLMConfig{
			Enabled:            false,
			URL:                "",
			APIKey:             "",
			Model:              "",
			Timeout:            20 * time.Second,
			RateLimitPerSecond: 2,
			RateLimitBurst:     4,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in increasing precedence, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config path, env override first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths:
//
//	HTTP_PORT        -> server.port
//	DUCKDB_PATH      -> database.path
//	PIPELINE_SEED    -> pipeline.seed
//	ARTIFACTS_PATH   -> artifacts.path
//	LLM_API_KEY      -> llm.api_key
//	LOG_LEVEL        -> logging.level
//
// Unknown variables map to "" and are ignored, so unrelated environment
// noise never leaks into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Short aliases kept for operator convenience.
	aliases := map[string]string{
		"http_port":    "server.port",
		"http_host":    "server.host",
		"environment":  "server.environment",
		"cors_origins": "server.cors_origins",
		"duckdb_path":  "database.path",
		"log_level":    "logging.level",
		"log_format":   "logging.format",
		"log_caller":   "logging.caller",
	}
	if path, ok := aliases[key]; ok {
		return path
	}

	for _, section := range []string{"server", "database", "pipeline", "artifacts", "llm", "logging"} {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}
	return ""
}
