// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/homeval/internal/encode"
	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

func validBundle() *Bundle {
	return &Bundle{
		Version:      Version,
		CreatedAt:    time.Now().UTC(),
		FeatureOrder: []string{"Area", "Bedrooms"},
		Encoders: map[string]*encode.LabelEncoder{
			taxonomy.ColHouseDirection: encode.FitLabel(taxonomy.ColHouseDirection,
				[]string{"Đông", "Tây", "Đông"}),
		},
		Location: &location.StatsTable{
			Column: taxonomy.ColDistrict,
			Districts: map[string]location.DistrictStats{
				"Quận 1": {AreaMean: 85, AreaMedian: 80, AreaStd: 25, SampleCount: 40, Tier: 3},
			},
			Defaults: location.DefaultDistrictStats(),
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bundle.json")

	if err := Save(path, validBundle()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.FeatureOrder) != 2 {
		t.Errorf("FeatureOrder = %v", got.FeatureOrder)
	}

	enc := got.Encoder(taxonomy.ColHouseDirection)
	if enc == nil {
		t.Fatal("direction encoder missing after load")
	}
	// Classes are sorted at fit time; codes must survive the round trip.
	if code := enc.Code("Tây"); code != 1 {
		t.Errorf("Code(Tây) = %d, want 1", code)
	}
	if code := enc.Code("Nam"); code != encode.OOV {
		t.Errorf("Code(Nam) = %d, want OOV", code)
	}

	stats := got.Location.Lookup("Quận 1")
	if stats.AreaMedian != 80 {
		t.Errorf("AreaMedian = %v", stats.AreaMedian)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Bundle)
	}{
		{"wrong version", func(b *Bundle) { b.Version = 99 }},
		{"empty feature order", func(b *Bundle) { b.FeatureOrder = nil }},
		{"no encoders", func(b *Bundle) { b.Encoders = nil }},
		{"no location stats", func(b *Bundle) { b.Location = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBundle()
			tt.mutate(b)
			if err := b.Validate(); err == nil {
				t.Error("Validate accepted an invalid bundle")
			}
		})
	}
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")

	if err := Save(path, validBundle()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(path, validBundle()); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover temp files: %v", entries)
	}
}
