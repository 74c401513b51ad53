// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package serve

import (
	"fmt"

	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/pipeline"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// Predictor consumes a preprocessed feature vector and returns a price in
// billions of VND. The vector arrives in the persisted feature order; a
// predictor must never reorder or reselect columns.
type Predictor interface {
	Predict(vector []float64) (float64, error)
	// FeatureImportance maps feature names to relative weights summing
	// to roughly 1. May return nil when the model cannot attribute.
	FeatureImportance() map[string]float64
	Name() string
}

// BaselinePredictor is a rule-based estimator used when no trained model is
// deployed: price per square meter anchored on the HCMC market, adjusted by
// size band, district tier, and the luxury composite. Deterministic: the
// same vector always yields the same price.
type BaselinePredictor struct {
	index map[string]int
	width int
}

// Base price per square meter, in VND.
const baselinePricePerM2 = 50_000_000

// NewBaselinePredictor builds a predictor bound to a feature order.
func NewBaselinePredictor(order []string) *BaselinePredictor {
	index := make(map[string]int, len(order))
	for i, name := range order {
		index[name] = i
	}
	return &BaselinePredictor{index: index, width: len(order)}
}

// Name identifies the predictor in responses and logs.
func (b *BaselinePredictor) Name() string { return "baseline" }

// FeatureImportance returns the fixed weights of the rule-based formula.
// Area dominates since price scales linearly with it.
func (b *BaselinePredictor) FeatureImportance() map[string]float64 {
	return map[string]float64{
		taxonomy.ColArea:                           0.55,
		taxonomy.ColDistrict + location.SuffixTier: 0.25,
		pipeline.ColLuxuryScore:                    0.20,
	}
}

// Predict estimates a price in billions of VND. The only failure mode is a
// vector whose length does not match the bound feature order.
func (b *BaselinePredictor) Predict(vector []float64) (float64, error) {
	if len(vector) != b.width {
		return 0, fmt.Errorf("feature vector has %d values, schema expects %d", len(vector), b.width)
	}

	area := b.at(vector, taxonomy.ColArea, 80)
	tier := b.at(vector, taxonomy.ColDistrict+location.SuffixTier, 2)
	luxury := b.at(vector, pipeline.ColLuxuryScore, 0)

	areaMult := 1.0
	switch {
	case area < 50:
		areaMult = 0.8
	case area < 100:
		areaMult = 1.0
	case area < 150:
		areaMult = 1.1
	default:
		areaMult = 1.2
	}

	// District tier stands in for the prime/good/other district lists: the
	// tier already ranks districts by training coverage.
	locationMult := 1.0
	switch {
	case tier >= 3:
		locationMult = 1.5
	case tier >= 2:
		locationMult = 1.2
	}

	qualityMult := 1.0
	switch {
	case luxury >= 2:
		qualityMult = 1.15
	case luxury >= 1:
		qualityMult = 1.05
	}

	price := area * baselinePricePerM2 * areaMult * locationMult * qualityMult
	return price / 1_000_000_000, nil
}

func (b *BaselinePredictor) at(vector []float64, name string, def float64) float64 {
	if i, ok := b.index[name]; ok && i < len(vector) {
		return vector[i]
	}
	return def
}
