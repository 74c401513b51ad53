// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package pipeline turns the raw housing dataset into the fixed-width
// feature tables the regression models train on, and produces the frozen
// artifacts the serving path replays.
//
// The orchestrator owns the fit/transform boundary: every statistic and
// encoding is fitted on the training partition alone and then applied to
// both partitions. Stages run in a fixed linear order; nothing branches
// back, so a run is auditable top to bottom from its processing log.
package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/homeval/internal/artifact"
	"github.com/tomtom215/homeval/internal/encode"
	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// Config carries the knobs of one pipeline run. They are fixed before
// fitting; a serve deployment must consume artifacts produced under the
// same configuration or its frozen vocabularies go stale.
type Config struct {
	// TestSize is the held-out fraction, in (0,1).
	TestSize float64 `json:"test_size"`
	// Seed drives the split shuffle; fixed seed, fixed partition.
	Seed int64 `json:"seed"`
	// OutlierFilter enables IQR removal of extreme training targets.
	OutlierFilter bool `json:"outlier_filter"`
	// OutlierMultiplier is the IQR fence multiplier.
	OutlierMultiplier float64 `json:"outlier_multiplier"`
	// RareDistrictMin collapses districts and street/wards below this count
	// into the "Other" bucket.
	RareDistrictMin int `json:"rare_district_min"`
	// RareCityMin drops rows in cities below this count.
	RareCityMin int `json:"rare_city_min"`
	// ScaleInteractions standardizes the interaction products, for the
	// regularized linear model variants. Tree models leave this off.
	ScaleInteractions bool `json:"scale_interactions"`
}

// DefaultConfig returns the configuration the published models were
// trained under.
func DefaultConfig() Config {
	return Config{
		TestSize:          0.2,
		Seed:              42,
		OutlierFilter:     true,
		OutlierMultiplier: 1.5,
		RareDistrictMin:   100,
		RareCityMin:       10,
		ScaleInteractions: false,
	}
}

// Result is the output of one orchestrated run: the two feature tables,
// the frozen artifact bundle, and the audit trail.
type Result struct {
	Train  *frame.Frame
	Test   *frame.Frame
	Bundle *artifact.Bundle
	Log    *Log
	Report Report
}

// Run executes the full pipeline over a raw frame:
//
//	decompose addresses → resolve missing → derive features → collapse rare
//	categories → split → outlier filter (train) → fit location stats (train)
//	→ apply (both) → fit encoders (train) → apply (both) → optional scaler
//	→ select the canonical schema.
//
// The input frame is not mutated.
func Run(raw *frame.Frame, cfg Config) (*Result, error) {
	start := time.Now()
	plog := NewLog()

	if !raw.Has(taxonomy.ColPrice) {
		return nil, fmt.Errorf("%w: %q", ErrMissingTarget, taxonomy.ColPrice)
	}

	f := raw.Clone()
	plog.Infof("pipeline start: %d rows, %d columns", f.Rows(), len(f.Names()))

	decomposeAddresses(f)

	if err := NewResolver().Resolve(f, plog); err != nil {
		return nil, fmt.Errorf("resolve missing values: %w", err)
	}
	DeriveFeatures(f, plog)

	// Rare-category cleanup happens over the full frame before the split:
	// the collapse is a data-quality rewrite, and the post-collapse values
	// are what the encoders later see on train alone.
	for _, col := range []string{taxonomy.ColDistrict, taxonomy.ColStreetWard} {
		if _, err := GroupRare(f, col, cfg.RareDistrictMin, plog); err != nil {
			plog.Warnf("rare collapse on %q skipped: %v", col, err)
		}
	}
	f, cityRowsRemoved, err := RemoveRare(f, taxonomy.ColCity, cfg.RareCityMin, plog)
	if err != nil {
		plog.Warnf("rare city removal skipped: %v", err)
		cityRowsRemoved = 0
	}

	f, targetRemoved, err := dropMissingTarget(f, plog)
	if err != nil {
		return nil, err
	}

	train, test, err := Split(f, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if train.Rows() == 0 {
		return nil, ErrEmptyTrain
	}
	plog.Infof("split: %d train rows, %d test rows (test size %.2f, seed %d)",
		train.Rows(), test.Rows(), cfg.TestSize, cfg.Seed)

	outliersRemoved := 0
	if cfg.OutlierFilter {
		train, outliersRemoved, err = RemoveOutliers(train, taxonomy.ColPrice, cfg.OutlierMultiplier, plog)
		if err != nil {
			return nil, fmt.Errorf("outlier filter: %w", err)
		}
		if train.Rows() == 0 {
			return nil, ErrEmptyTrain
		}
	}

	stats, err := location.FitStats(train, taxonomy.ColDistrict, taxonomy.ColArea)
	if err != nil {
		return nil, fmt.Errorf("fit location stats: %w", err)
	}
	if err := stats.Apply(train); err != nil {
		return nil, fmt.Errorf("apply location stats to train: %w", err)
	}
	if err := stats.Apply(test); err != nil {
		return nil, fmt.Errorf("apply location stats to test: %w", err)
	}
	plog.Infof("location stats: fitted %d districts from train", len(stats.DistrictNames()))

	encoders, oneHot, oovCounts, err := fitAndEncode(train, test, plog)
	if err != nil {
		return nil, err
	}

	var scaler *encode.StandardScaler
	if cfg.ScaleInteractions {
		scaler, err = encode.FitScaler(train, InteractionColumns())
		if err != nil {
			return nil, fmt.Errorf("fit scaler: %w", err)
		}
		if err := scaler.Transform(train); err != nil {
			return nil, fmt.Errorf("scale train: %w", err)
		}
		if err := scaler.Transform(test); err != nil {
			return nil, fmt.Errorf("scale test: %w", err)
		}
		plog.Infof("standardized %d interaction columns", len(scaler.Columns))
	}

	trainOut, err := selectSchema(train)
	if err != nil {
		return nil, err
	}
	testOut, err := selectSchema(test)
	if err != nil {
		return nil, err
	}

	bundle := &artifact.Bundle{
		Version:      artifact.Version,
		CreatedAt:    time.Now().UTC(),
		FeatureOrder: ExpectedFeatures(),
		Encoders:     encoders,
		OneHot:       oneHot,
		Location:     stats,
		Scaler:       scaler,
	}

	report := Report{
		StartedAt:            start.UTC(),
		DurationSeconds:      time.Since(start).Seconds(),
		Config:               cfg,
		RowsIn:               raw.Rows(),
		RowsTrain:            trainOut.Rows(),
		RowsTest:             testOut.Rows(),
		FeatureCount:         len(ExpectedFeatures()),
		OutliersRemoved:      outliersRemoved,
		RareCityRowsRemoved:  cityRowsRemoved,
		MissingTargetRemoved: targetRemoved,
		DistrictsFitted:      len(stats.DistrictNames()),
		OOVCounts:            oovCounts,
		Warnings:             plog.Warnings(),
		Entries:              plog.Entries(),
	}
	plog.Infof("pipeline done in %.2fs: %d train rows, %d test rows, %d features",
		report.DurationSeconds, report.RowsTrain, report.RowsTest, report.FeatureCount)

	return &Result{Train: trainOut, Test: testOut, Bundle: bundle, Log: plog, Report: report}, nil
}

// decomposeAddresses splits the free-text address into city, district, and
// street/ward columns, normalizing city spelling variants. A frame without
// an address column gets all-Unknown location columns rather than failing.
func decomposeAddresses(f *frame.Frame) {
	rows := f.Rows()
	cities := make([]string, rows)
	districts := make([]string, rows)
	streetWards := make([]string, rows)

	addr := f.Column(taxonomy.ColAddress)
	for i := 0; i < rows; i++ {
		var loc location.Location
		if addr != nil && addr.Kind == frame.String && !addr.Null[i] {
			loc = location.Decompose(addr.Strings[i])
		} else {
			loc = location.Decompose("")
		}
		cities[i] = location.NormalizeCity(loc.City)
		districts[i] = loc.District
		streetWards[i] = loc.StreetWard
	}

	// AddString with a nil mask cannot fail here: lengths match by construction.
	_ = f.AddString(taxonomy.ColCity, cities, nil)
	_ = f.AddString(taxonomy.ColDistrict, districts, nil)
	_ = f.AddString(taxonomy.ColStreetWard, streetWards, nil)
}

// dropMissingTarget removes rows without a usable label. There is nothing
// to fit or evaluate against for them.
func dropMissingTarget(f *frame.Frame, plog *Log) (*frame.Frame, int, error) {
	col := f.Column(taxonomy.ColPrice)
	if col == nil || col.Kind != frame.Numeric {
		return nil, 0, fmt.Errorf("%w: %q", ErrMissingTarget, taxonomy.ColPrice)
	}
	mask := make([]bool, col.Len())
	removed := 0
	for i, v := range col.Floats {
		mask[i] = !math.IsNaN(v)
		if !mask[i] {
			removed++
		}
	}
	if removed == 0 {
		return f, 0, nil
	}
	out, err := f.Filter(mask)
	if err != nil {
		return nil, 0, err
	}
	plog.Infof("dropped %d rows without a target value", removed)
	return out, removed, nil
}

// fitAndEncode fits one label encoder per categorical string column on the
// training partition and applies it to both partitions. Low-cardinality
// columns additionally get a one-hot vocabulary persisted for the linear
// model variants; the canonical tables stay label-encoded.
func fitAndEncode(train, test *frame.Frame, plog *Log) (
	map[string]*encode.LabelEncoder, map[string]*encode.OneHotEncoder, map[string]int, error,
) {
	encoders := make(map[string]*encode.LabelEncoder)
	oneHot := make(map[string]*encode.OneHotEncoder)
	oovCounts := make(map[string]int)

	for _, name := range taxonomy.CategoricalColumns() {
		col := train.Column(name)
		if col == nil || col.Kind != frame.String {
			continue
		}
		if spec := taxonomy.Lookup(name); spec.Kind == taxonomy.LowCardinality {
			oneHot[name] = encode.FitOneHot(name, col.Strings)
		}
		enc := encode.FitLabel(name, col.Strings)
		encoders[name] = enc

		if _, err := enc.Transform(train); err != nil {
			return nil, nil, nil, fmt.Errorf("encode train %q: %w", name, err)
		}
		if test.Has(name) {
			oov, err := enc.Transform(test)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("encode test %q: %w", name, err)
			}
			if oov > 0 {
				oovCounts[name] = oov
				plog.Infof("column %q: %d test values out of vocabulary", name, oov)
			}
		}
		plog.Infof("column %q: label-encoded %d classes", name, len(enc.Classes))
	}
	return encoders, oneHot, oovCounts, nil
}

// selectSchema projects a partition onto the canonical feature order plus
// the target. A missing column here is fatal: training on a silently
// defaulted column would corrupt every downstream model.
func selectSchema(f *frame.Frame) (*frame.Frame, error) {
	var missing []string
	for _, name := range ExpectedFeatures() {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	cols := append(ExpectedFeatures(), taxonomy.ColPrice)
	return f.Select(cols...)
}
