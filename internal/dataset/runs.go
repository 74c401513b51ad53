// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/homeval/internal/metrics"
	"github.com/tomtom215/homeval/internal/pipeline"
)

// RunRecord is a stored pipeline run summary.
type RunRecord struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	RowsIn          int       `json:"rows_in"`
	RowsTrain       int       `json:"rows_train"`
	RowsTest        int       `json:"rows_test"`
	FeatureCount    int       `json:"feature_count"`
	OutliersRemoved int       `json:"outliers_removed"`
	Warnings        int       `json:"warnings"`
}

// SaveRunReport persists a pipeline run report. The summary columns allow
// querying run history without unpacking JSON; the full report is kept as
// a JSON document alongside.
func (db *DB) SaveRunReport(ctx context.Context, report pipeline.Report) (string, error) {
	start := time.Now()
	id, err := db.saveRunReport(ctx, report)
	metrics.RecordDBQuery("insert", "pipeline_runs", time.Since(start), err)
	return id, err
}

func (db *DB) saveRunReport(ctx context.Context, report pipeline.Report) (string, error) {
	doc, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode run report: %w", err)
	}

	id := uuid.New().String()
	_, err = db.conn.ExecContext(ctx, `INSERT INTO pipeline_runs (
		id, started_at, duration_seconds, rows_in, rows_train, rows_test,
		feature_count, outliers_removed, warnings, report
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, report.StartedAt.UTC(), report.DurationSeconds,
		report.RowsIn, report.RowsTrain, report.RowsTest,
		report.FeatureCount, report.OutliersRemoved, report.Warnings,
		string(doc),
	)
	if err != nil {
		return "", fmt.Errorf("insert run report: %w", err)
	}
	return id, nil
}

// RecentRuns returns the most recent run summaries, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, started_at, duration_seconds, rows_in, rows_train, rows_test,
		feature_count, outliers_removed, warnings
	FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	metrics.RecordDBQuery("select", "pipeline_runs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.DurationSeconds,
			&r.RowsIn, &r.RowsTrain, &r.RowsTest,
			&r.FeatureCount, &r.OutliersRemoved, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// RunReport loads the full stored report for a run ID.
func (db *DB) RunReport(ctx context.Context, id string) (pipeline.Report, error) {
	var doc string
	err := db.conn.QueryRowContext(ctx,
		`SELECT report FROM pipeline_runs WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("load run report %s: %w", id, err)
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return pipeline.Report{}, fmt.Errorf("decode run report %s: %w", id, err)
	}
	return report, nil
}
