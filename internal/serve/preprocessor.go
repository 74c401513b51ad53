// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package serve is the online half of the train/serve contract: it replays
// the batch pipeline's fills, encodings, and derived formulas for exactly one
// record, using the frozen artifacts a pipeline run persisted. A Preprocessor
// is immutable after construction and safe for concurrent use.
package serve

import (
	"strings"

	"github.com/tomtom215/homeval/internal/artifact"
	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/logging"
	"github.com/tomtom215/homeval/internal/pipeline"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// Preprocessor turns one raw input into the fixed-order feature vector the
// trained models expect. With a nil bundle it runs in degraded mode: static
// fallback code tables and fixed location defaults instead of the frozen
// artifacts, logged loudly but still serving.
type Preprocessor struct {
	bundle *artifact.Bundle
	order  []string
}

// NewPreprocessor wraps a loaded artifact bundle. A nil bundle yields a
// degraded preprocessor with the compiled-in feature order.
func NewPreprocessor(b *artifact.Bundle) *Preprocessor {
	order := pipeline.ExpectedFeatures()
	if b != nil {
		order = append([]string(nil), b.FeatureOrder...)
	}
	return &Preprocessor{bundle: b, order: order}
}

// LoadPreprocessor reads the bundle at path, degrading instead of failing
// when it is missing or corrupt: a partially available estimator is more
// useful than none.
func LoadPreprocessor(path string) *Preprocessor {
	b, err := artifact.Load(path)
	if err != nil {
		logging.Err(err).Str("path", path).
			Msg("artifact bundle unavailable, serving in degraded mode")
		return NewPreprocessor(nil)
	}
	logging.Info().Str("path", path).
		Int("encoders", len(b.Encoders)).
		Int("features", len(b.FeatureOrder)).
		Msg("artifact bundle loaded")
	return NewPreprocessor(b)
}

// Degraded reports whether the preprocessor is running without a bundle.
func (p *Preprocessor) Degraded() bool { return p.bundle == nil }

// Bundle returns the frozen artifact bundle, or nil in degraded mode.
// Callers must treat it as read-only.
func (p *Preprocessor) Bundle() *artifact.Bundle { return p.bundle }

// FeatureOrder returns the persisted feature order the output vector follows.
func (p *Preprocessor) FeatureOrder() []string {
	return append([]string(nil), p.order...)
}

// Preprocess maps one input to its feature vector. It never fails: absent
// fields take serving defaults, unknown categories take the out-of-vocabulary
// code, and an expected feature no step produced defaults to 0 with a logged
// warning.
func (p *Preprocessor) Preprocess(in Input) []float64 {
	features := make(map[string]float64, len(p.order))

	area := orDefault(in.Area, defaultArea)
	bedrooms := orDefault(in.Bedrooms, defaultBedrooms)
	bathrooms := orDefault(in.Bathrooms, defaultBathrooms)
	floors := orDefault(in.Floors, defaultFloors)
	frontage := orDefault(in.Frontage, 0)
	accessRoad := orDefault(in.AccessRoad, 0)

	features[taxonomy.ColArea] = area
	features[taxonomy.ColFrontage] = frontage
	features[taxonomy.ColAccessRoad] = accessRoad
	features[taxonomy.ColFloors] = floors
	features[taxonomy.ColBedrooms] = bedrooms
	features[taxonomy.ColBathrooms] = bathrooms

	// Categoricals: normalize to the canonical dataset labels, then encode
	// with the frozen encoder. Absent values take the batch pipeline's fill
	// sentinel so they encode exactly like a training row with that gap.
	direction := NormalizeDirection(in.Direction)
	if direction == "" {
		direction = taxonomy.SentinelKhongRo
	}
	balcony := NormalizeDirection(in.BalconyDirection)
	if balcony == "" {
		balcony = taxonomy.SentinelUnknown
	}
	legal := NormalizeLegalStatus(in.LegalStatus)
	if legal == "" {
		legal = taxonomy.SentinelKhongRo
	}
	furniture := NormalizeFurniture(in.Furniture)
	if furniture == "" {
		furniture = taxonomy.SentinelKhongRo
	}

	features[taxonomy.ColHouseDirection] = p.encodeLabel(
		taxonomy.ColHouseDirection, direction, fallbackDirectionCodes, fallbackDirectionDefault)
	features[taxonomy.ColBalconyDirection] = p.encodeLabel(
		taxonomy.ColBalconyDirection, balcony, fallbackDirectionCodes, fallbackDirectionDefault)
	features[taxonomy.ColLegalStatus] = p.encodeLabel(
		taxonomy.ColLegalStatus, legal, fallbackLegalCodes, fallbackLegalDefault)
	features[taxonomy.ColFurnitureState] = p.encodeLabel(
		taxonomy.ColFurnitureState, furniture, fallbackFurnitureCodes, fallbackFurnitureDefault)

	features[taxonomy.ColHasHouseDirection] = pipeline.BoolFlag(strings.TrimSpace(in.Direction) != "")
	features[taxonomy.ColHasBalconyDirection] = pipeline.BoolFlag(strings.TrimSpace(in.BalconyDirection) != "")
	features[taxonomy.ColHasAccessRoad] = pipeline.BoolFlag(accessRoad > 0)
	features[taxonomy.ColHasFrontage] = pipeline.BoolFlag(frontage > 0)

	city := location.NormalizeCity(strings.TrimSpace(in.City))
	if city == "" {
		city = location.CityHoChiMinh
	}
	district := strings.TrimSpace(in.District)
	if district == "" {
		district = location.Unknown
	}
	ward := strings.TrimSpace(in.Ward)
	if ward == "" {
		ward = location.Unknown
	}
	features[taxonomy.ColCity] = p.encodeLabel(taxonomy.ColCity, city, nil, 0)
	features[taxonomy.ColDistrict] = p.encodeLabel(taxonomy.ColDistrict, district, nil, 0)
	features[taxonomy.ColStreetWard] = p.encodeLabel(taxonomy.ColStreetWard, ward, nil, 0)

	// Derived features, recomputed with the exact batch formulas.
	totalRooms := bedrooms + bathrooms
	features[pipeline.ColBathroomBedroomRatio] = pipeline.SafeRatio(bathrooms, bedrooms)
	features[pipeline.ColTotalRooms] = totalRooms
	features[pipeline.ColIsLargeHouse] = pipeline.BoolFlag(area > 140)
	features[pipeline.ColAvgRoomSize] = pipeline.SafeRatio(area, totalRooms)
	features[pipeline.ColIsLuxury] = pipeline.BoolFlag(bathrooms >= 4)
	features[pipeline.ColIsMultiStory] = pipeline.BoolFlag(floors > 2)
	features[taxonomy.ColAreaBinned] = pipeline.AreaBin(area)
	features[pipeline.ColAreaXBathrooms] = area * bathrooms
	features[pipeline.ColAreaXBedrooms] = area * bedrooms
	features[pipeline.ColAreaXFloors] = area * floors
	features[pipeline.ColBedroomsXBathrooms] = bedrooms * bathrooms
	features[pipeline.ColBedroomsXFloors] = bedrooms * floors
	features[pipeline.ColLuxuryScore] = pipeline.LuxuryScore(bathrooms, bedrooms, floors, area)
	features[pipeline.ColRoomDensity] = pipeline.SafeRatio(totalRooms, area)
	features[pipeline.ColAccessQuality] = pipeline.AccessQuality(accessRoad)

	for _, major := range location.MajorCities {
		mask := 0.0
		if city == major {
			mask = area
		}
		features[pipeline.CityMaskColumn(major)] = mask
	}

	stats := p.districtStats(district)
	features[taxonomy.ColDistrict+location.SuffixAreaMean] = stats.AreaMean
	features[taxonomy.ColDistrict+location.SuffixAreaMedian] = stats.AreaMedian
	features[taxonomy.ColDistrict+location.SuffixAreaStd] = stats.AreaStd
	features[taxonomy.ColDistrict+location.SuffixSampleCount] = float64(stats.SampleCount)
	features[taxonomy.ColDistrict+location.SuffixTier] = float64(stats.Tier)

	if p.bundle != nil && p.bundle.Scaler != nil {
		s := p.bundle.Scaler
		for i, col := range s.Columns {
			if v, ok := features[col]; ok {
				features[col] = (v - s.Means[i]) / s.Stds[i]
			}
		}
	}

	vector := make([]float64, len(p.order))
	for i, name := range p.order {
		v, ok := features[name]
		if !ok {
			logging.Warn().Str("feature", name).
				Msg("expected feature not produced, defaulting to 0")
		}
		vector[i] = v
	}
	return vector
}

// encodeLabel encodes through the frozen encoder when one is loaded,
// otherwise through the static fallback table.
func (p *Preprocessor) encodeLabel(column, value string, fallback map[string]float64, def float64) float64 {
	if p.bundle != nil {
		if enc := p.bundle.Encoder(column); enc != nil {
			return float64(enc.Code(value))
		}
	}
	if code, ok := fallback[value]; ok {
		return code
	}
	return def
}

// districtStats looks the district up in the frozen table, falling back to
// the fixed serving defaults. The table is never re-fitted here.
func (p *Preprocessor) districtStats(district string) location.DistrictStats {
	if p.bundle != nil && p.bundle.Location != nil {
		return p.bundle.Location.Lookup(district)
	}
	return location.DefaultDistrictStats()
}
