// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/homeval/internal/artifact"
	"github.com/tomtom215/homeval/internal/encode"
	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/pipeline"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// mockServer implements HTTPServer for lifecycle tests.
type mockServer struct {
	listenErr   error
	listenDone  chan struct{}
	shutdownErr error
	shutdowns   int
}

func newMockServer() *mockServer {
	return &mockServer{listenDone: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.listenDone
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(_ context.Context) error {
	m.shutdowns++
	close(m.listenDone)
	return m.shutdownErr
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newMockServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if srv.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", srv.shutdowns)
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	srv := newMockServer()
	srv.listenErr = errors.New("address already in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Fatalf("Serve = %v, want wrapped listen failure", err)
	}
}

func writeTestBundle(t *testing.T, path string) {
	t.Helper()
	b := &artifact.Bundle{
		Version:      artifact.Version,
		CreatedAt:    time.Now().UTC(),
		FeatureOrder: pipeline.ExpectedFeatures(),
		Encoders: map[string]*encode.LabelEncoder{
			taxonomy.ColHouseDirection: encode.FitLabel(taxonomy.ColHouseDirection, []string{"Đông", "Tây"}),
		},
		Location: &location.StatsTable{
			Column:    taxonomy.ColDistrict,
			Districts: map[string]location.DistrictStats{},
			Defaults:  location.DefaultDistrictStats(),
		},
	}
	if err := artifact.Save(path, b); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestReloadServiceInitialLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	writeTestBundle(t, path)

	svc := NewReloadService(path, time.Hour)
	if svc.Preprocessor().Degraded() {
		t.Fatal("expected non-degraded preprocessor from a valid bundle")
	}
}

func TestReloadServiceMissingBundleDegrades(t *testing.T) {
	svc := NewReloadService(filepath.Join(t.TempDir(), "absent.json"), time.Hour)
	if !svc.Preprocessor().Degraded() {
		t.Fatal("expected degraded preprocessor when bundle is missing")
	}
}

func TestReloadServicePicksUpNewBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")

	svc := NewReloadService(path, time.Hour)
	if !svc.Preprocessor().Degraded() {
		t.Fatal("expected degraded start without a bundle")
	}

	writeTestBundle(t, path)
	svc.reloadIfChanged()

	if svc.Preprocessor().Degraded() {
		t.Fatal("expected reload to recover from degraded mode")
	}
}

func TestReloadServiceKeepsWorkingBundleOnCorruptWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	writeTestBundle(t, path)

	svc := NewReloadService(path, time.Hour)
	before := svc.Preprocessor()

	// Corrupt the file with a newer mtime.
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	svc.reloadIfChanged()
	if svc.Preprocessor() != before {
		t.Fatal("corrupt bundle replaced a working preprocessor")
	}
	if svc.Preprocessor().Degraded() {
		t.Fatal("service degraded after corrupt reload attempt")
	}
}

func TestReloadServiceStopsOnCancel(t *testing.T) {
	svc := NewReloadService(filepath.Join(t.TempDir(), "absent.json"), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
