// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package services

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/tomtom215/homeval/internal/logging"
	"github.com/tomtom215/homeval/internal/metrics"
	"github.com/tomtom215/homeval/internal/serve"
)

// ReloadService watches the artifact bundle file and hot-swaps the
// preprocessor when the pipeline writes a new one. The server keeps
// answering with the previous preprocessor while a reload is in flight,
// and a corrupt bundle on disk never replaces a working one.
type ReloadService struct {
	path     string
	interval time.Duration
	current  atomic.Pointer[serve.Preprocessor]
	lastMod  time.Time
}

// NewReloadService loads the initial preprocessor from path and returns
// a service that refreshes it every interval. A missing or unreadable
// bundle starts the server in degraded mode; a later successful reload
// recovers it.
func NewReloadService(path string, interval time.Duration) *ReloadService {
	s := &ReloadService{path: path, interval: interval}

	pre := serve.LoadPreprocessor(path)
	s.current.Store(pre)
	if info, err := os.Stat(path); err == nil {
		s.lastMod = info.ModTime()
	}
	setDegradedGauge(pre.Degraded())

	return s
}

// Preprocessor returns the current preprocessor. Safe for concurrent use
// with reloads.
func (s *ReloadService) Preprocessor() *serve.Preprocessor {
	return s.current.Load()
}

// Serve implements suture.Service. A non-positive interval disables
// watching; the service then just blocks until shutdown.
func (s *ReloadService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.reloadIfChanged()
		}
	}
}

// reloadIfChanged swaps in a new preprocessor when the bundle file's
// modification time has advanced.
func (s *ReloadService) reloadIfChanged() {
	info, err := os.Stat(s.path)
	if err != nil {
		// File gone; keep serving with what we have.
		return
	}
	if !info.ModTime().After(s.lastMod) {
		return
	}

	pre := serve.LoadPreprocessor(s.path)
	if pre.Degraded() && !s.Preprocessor().Degraded() {
		// New bundle failed to load; keep the working one.
		metrics.ArtifactReloadsTotal.WithLabelValues("error").Inc()
		logging.Warn().Str("path", s.path).Msg("artifact reload failed, keeping current bundle")
		s.lastMod = info.ModTime()
		return
	}

	s.current.Store(pre)
	s.lastMod = info.ModTime()
	setDegradedGauge(pre.Degraded())
	metrics.ArtifactReloadsTotal.WithLabelValues("ok").Inc()
	logging.Info().Str("path", s.path).Bool("degraded", pre.Degraded()).Msg("artifact bundle reloaded")
}

// String identifies the service in supervisor logs.
func (s *ReloadService) String() string {
	return "artifact-reload"
}

func setDegradedGauge(degraded bool) {
	if degraded {
		metrics.ServeDegraded.Set(1)
	} else {
		metrics.ServeDegraded.Set(0)
	}
}
