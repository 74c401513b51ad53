// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package dataset stores raw property listings and pipeline run reports in
// DuckDB. The listings table is the durable copy of scraped data: the CSV
// is ingested once and later pipeline runs read from here, so re-running
// feature engineering does not depend on the original file surviving.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/homeval/internal/config"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the DuckDB database at the configured path and
// initializes the schema.
func New(cfg config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, cfg.MaxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is in-process; a single writer connection avoids lock
	// contention between ingest and report writes.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

// Conn exposes the underlying connection for tests.
func (db *DB) Conn() *sql.DB { return db.conn }

// Close closes the database connection.
func (db *DB) Close() error { return db.conn.Close() }

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error { return db.conn.PingContext(ctx) }

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the listings and pipeline_runs tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY,
			area DOUBLE,
			frontage DOUBLE,
			access_road DOUBLE,
			floors DOUBLE,
			bedrooms DOUBLE,
			bathrooms DOUBLE,
			house_direction TEXT,
			balcony_direction TEXT,
			legal_status TEXT,
			furniture_state TEXT,
			address TEXT,
			price DOUBLE,
			ingested_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id UUID PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			duration_seconds DOUBLE NOT NULL,
			rows_in INTEGER NOT NULL,
			rows_train INTEGER NOT NULL,
			rows_test INTEGER NOT NULL,
			feature_count INTEGER NOT NULL,
			outliers_removed INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			report JSON NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON pipeline_runs (started_at)`,
	}
	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute %q: %w", query[:40], err)
		}
	}
	return nil
}
