// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package main runs the feature-engineering pipeline: it ingests the raw
// listings CSV into DuckDB, produces leakage-safe train/test feature
// tables, and freezes the fit products into the artifact bundle the
// server replays.
//
// Typical invocation:
//
//	pipeline -dataset /data/vietnam_housing.csv
//
// With no -dataset flag the run reads listings already ingested into
// DuckDB, so feature engineering can be re-run without the original file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/homeval/internal/artifact"
	"github.com/tomtom215/homeval/internal/config"
	"github.com/tomtom215/homeval/internal/dataset"
	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/logging"
	"github.com/tomtom215/homeval/internal/metrics"
	"github.com/tomtom215/homeval/internal/pipeline"
)

func main() {
	datasetPath := flag.String("dataset", "", "raw listings CSV to ingest before running (default: use stored listings)")
	outputDir := flag.String("out", "", "output directory for train/test CSVs and the run report (overrides config)")
	bundlePath := flag.String("bundle", "", "artifact bundle path (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if *datasetPath == "" {
		*datasetPath = cfg.Pipeline.DatasetPath
	}
	if *outputDir == "" {
		*outputDir = cfg.Pipeline.OutputDir
	}
	if *bundlePath == "" {
		*bundlePath = cfg.Artifacts.Path
	}

	db, err := dataset.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open dataset database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx := context.Background()
	raw, err := loadRaw(ctx, db, *datasetPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load raw listings")
	}
	if raw.Rows() == 0 {
		logging.Fatal().Msg("No listings to process; provide -dataset or ingest first")
	}
	logging.Info().Int("rows", raw.Rows()).Msg("Raw listings loaded")

	runCfg := pipeline.Config{
		TestSize:          cfg.Pipeline.TestSize,
		Seed:              cfg.Pipeline.Seed,
		OutlierFilter:     cfg.Pipeline.OutlierFilter,
		OutlierMultiplier: cfg.Pipeline.OutlierMultiplier,
		RareDistrictMin:   cfg.Pipeline.RareDistrictMin,
		RareCityMin:       cfg.Pipeline.RareCityMin,
		ScaleInteractions: cfg.Pipeline.ScaleInteractions,
	}

	start := time.Now()
	result, err := pipeline.Run(raw, runCfg)
	metrics.RecordPipelineRun(time.Since(start), raw.Rows(), err)
	if err != nil {
		logging.Fatal().Err(err).Bool("fatal", pipeline.IsFatal(err)).Msg("Pipeline run failed")
	}

	if err := writeOutputs(*outputDir, *bundlePath, result); err != nil {
		logging.Fatal().Err(err).Msg("Failed to write pipeline outputs")
	}

	if id, err := db.SaveRunReport(ctx, result.Report); err != nil {
		logging.Error().Err(err).Msg("Failed to persist run report")
	} else {
		logging.Info().Str("run_id", id).Msg("Run report stored")
	}

	fmt.Println(result.Report.Summary())
}

// loadRaw ingests the CSV when a path is given, then reads the working
// copy back from DuckDB so every run processes the stored listings.
func loadRaw(ctx context.Context, db *dataset.DB, path string) (*frame.Frame, error) {
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer file.Close()

		f, err := frame.ReadCSV(file)
		if err != nil {
			return nil, fmt.Errorf("parse dataset: %w", err)
		}
		n, err := db.IngestListings(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("ingest listings: %w", err)
		}
		logging.Info().Int("rows", n).Str("path", path).Msg("Listings ingested")
	}
	return db.LoadListings(ctx)
}

// writeOutputs writes the train/test feature tables, the artifact
// bundle, and the JSON run report.
func writeOutputs(outDir, bundlePath string, result *pipeline.Result) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeFrame(filepath.Join(outDir, "train.csv"), result.Train); err != nil {
		return err
	}
	if err := writeFrame(filepath.Join(outDir, "test.csv"), result.Test); err != nil {
		return err
	}

	if err := artifact.Save(bundlePath, result.Bundle); err != nil {
		return fmt.Errorf("save artifact bundle: %w", err)
	}
	logging.Info().Str("path", bundlePath).Msg("Artifact bundle written")

	report, err := json.MarshalIndent(result.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	reportPath := filepath.Join(outDir, "report.json")
	if err := os.WriteFile(reportPath, report, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeFrame(path string, f *frame.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
