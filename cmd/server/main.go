// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package main is the entry point for the Homeval estimation server.
//
// The server loads the artifact bundle written by a pipeline run and
// answers price estimates over HTTP. Startup order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env)
//  2. Logging: zerolog, configured from the logging section
//  3. Artifact reload service: loads the bundle and watches it for updates
//  4. LLM parse client (optional): free-text description parsing
//  5. Supervisor tree: artifact layer and API layer under suture
//
// A missing or corrupt bundle does not prevent startup: the server runs
// in degraded mode with static fallback encodings and recovers as soon
// as a valid bundle appears on disk.
//
// The server handles graceful shutdown on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/homeval/internal/api"
	"github.com/tomtom215/homeval/internal/config"
	"github.com/tomtom215/homeval/internal/llmparse"
	"github.com/tomtom215/homeval/internal/logging"
	"github.com/tomtom215/homeval/internal/serve"
	"github.com/tomtom215/homeval/internal/supervisor"
	"github.com/tomtom215/homeval/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("artifact_path", cfg.Artifacts.Path).
		Bool("llm_enabled", cfg.LLM.Enabled).
		Msg("Starting Homeval estimation server")

	reload := services.NewReloadService(cfg.Artifacts.Path, cfg.Artifacts.ReloadInterval)
	if reload.Preprocessor().Degraded() {
		logging.Warn().
			Str("path", cfg.Artifacts.Path).
			Msg("No usable artifact bundle, serving with fallback encodings")
	}

	predictor := serve.NewBaselinePredictor(reload.Preprocessor().FeatureOrder())

	var parser api.TextParser
	if cfg.LLM.Enabled {
		parser = llmparse.New(cfg.LLM)
		logging.Info().Str("model", cfg.LLM.Model).Msg("Natural-language parsing enabled")
	}

	handler := api.NewHandler(reload, predictor, parser)
	router := api.NewRouter(cfg.Server, handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddArtifactService(reload)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("Listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop in time")
		}
	}
	logging.Info().Msg("Shutdown complete")
}
