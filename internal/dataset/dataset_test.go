// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package dataset

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/homeval/internal/config"
	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/pipeline"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "homeval.db"),
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func rawListings(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New(3)
	mustNum := func(name string, vals []float64) {
		if err := f.AddNumeric(name, vals); err != nil {
			t.Fatalf("AddNumeric %s: %v", name, err)
		}
	}
	mustStr := func(name string, vals []string, null []bool) {
		if err := f.AddString(name, vals, null); err != nil {
			t.Fatalf("AddString %s: %v", name, err)
		}
	}
	nan := math.NaN()
	mustNum(taxonomy.ColArea, []float64{80, 120, 45})
	mustNum(taxonomy.ColFrontage, []float64{4, nan, 3.5})
	mustNum(taxonomy.ColAccessRoad, []float64{6, 8, nan})
	mustNum(taxonomy.ColFloors, []float64{3, 4, 2})
	mustNum(taxonomy.ColBedrooms, []float64{3, 4, 2})
	mustNum(taxonomy.ColBathrooms, []float64{2, nan, 1})
	mustStr(taxonomy.ColHouseDirection, []string{"Đông", "", "Tây"}, []bool{false, true, false})
	mustStr(taxonomy.ColBalconyDirection, []string{"Nam", "Bắc", ""}, []bool{false, false, true})
	mustStr(taxonomy.ColLegalStatus, []string{"Sổ đỏ", "Sổ hồng", "Sổ đỏ"}, nil)
	mustStr(taxonomy.ColFurnitureState, []string{"Đầy đủ", "", "Cơ bản"}, []bool{false, true, false})
	mustStr(taxonomy.ColAddress, []string{
		"Đường A, Quận 1, Hồ Chí Minh",
		"Đường B, Quận 7, Hồ Chí Minh",
		"Phố C, Đống Đa, Hà Nội",
	}, nil)
	mustNum(taxonomy.ColPrice, []float64{5.2, 8.9, 3.1})
	return f
}

func TestIngestAndLoadListingsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, err := db.IngestListings(ctx, rawListings(t))
	if err != nil {
		t.Fatalf("IngestListings: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted = %d, want 3", n)
	}

	count, err := db.CountListings(ctx)
	if err != nil {
		t.Fatalf("CountListings: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	loaded, err := db.LoadListings(ctx)
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if loaded.Rows() != 3 {
		t.Fatalf("loaded rows = %d, want 3", loaded.Rows())
	}

	area := loaded.Column(taxonomy.ColArea)
	if area == nil || area.Floats[1] != 120 {
		t.Errorf("Area[1] = %v, want 120", area)
	}
	frontage := loaded.Column(taxonomy.ColFrontage)
	if !frontage.IsMissing(1) {
		t.Error("Frontage[1] should round-trip as missing")
	}
	dir := loaded.Column(taxonomy.ColHouseDirection)
	if !dir.IsMissing(1) {
		t.Error("House direction[1] should round-trip as missing")
	}
	if dir.Strings[0] != "Đông" {
		t.Errorf("House direction[0] = %q", dir.Strings[0])
	}
	addr := loaded.Column(taxonomy.ColAddress)
	if addr.Strings[2] != "Phố C, Đống Đa, Hà Nội" {
		t.Errorf("Address[2] = %q", addr.Strings[2])
	}
}

func TestLoadListingsEmpty(t *testing.T) {
	db := newTestDB(t)

	f, err := db.LoadListings(context.Background())
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if f.Rows() != 0 {
		t.Errorf("rows = %d, want 0", f.Rows())
	}
	if !f.Has(taxonomy.ColPrice) {
		t.Error("empty frame should still carry the raw schema")
	}
}

func TestSaveAndLoadRunReport(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	report := pipeline.Report{
		StartedAt:       time.Now().UTC().Truncate(time.Millisecond),
		DurationSeconds: 1.25,
		Config:          pipeline.DefaultConfig(),
		RowsIn:          1000,
		RowsTrain:       760,
		RowsTest:        200,
		FeatureCount:    41,
		OutliersRemoved: 40,
		Warnings:        2,
		Entries:         []string{"split: 800 train, 200 test"},
	}

	id, err := db.SaveRunReport(ctx, report)
	if err != nil {
		t.Fatalf("SaveRunReport: %v", err)
	}

	got, err := db.RunReport(ctx, id)
	if err != nil {
		t.Fatalf("RunReport: %v", err)
	}
	if got.RowsIn != 1000 || got.FeatureCount != 41 {
		t.Errorf("report = %+v", got)
	}
	if len(got.Entries) != 1 {
		t.Errorf("entries = %v", got.Entries)
	}

	runs, err := db.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].RowsTrain != 760 {
		t.Errorf("RowsTrain = %d", runs[0].RowsTrain)
	}
}

func TestRecentRunsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := db.SaveRunReport(ctx, pipeline.Report{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			RowsIn:    100 + i,
		})
		if err != nil {
			t.Fatalf("SaveRunReport %d: %v", i, err)
		}
	}

	runs, err := db.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].RowsIn != 102 {
		t.Errorf("newest run RowsIn = %d, want 102", runs[0].RowsIn)
	}
}
