// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// expectedFeatures is the canonical model schema: every feature the trained
// regressors consume, in the exact order they consume it. The order is part
// of the persisted artifact contract; changing it invalidates every trained
// model, so it is frozen here rather than derived from frame state.
var expectedFeatures = buildExpectedFeatures()

func buildExpectedFeatures() []string {
	names := []string{
		taxonomy.ColArea,
		taxonomy.ColFrontage,
		taxonomy.ColAccessRoad,
		taxonomy.ColHouseDirection,
		taxonomy.ColBalconyDirection,
		taxonomy.ColFloors,
		taxonomy.ColBedrooms,
		taxonomy.ColBathrooms,
		taxonomy.ColLegalStatus,
		taxonomy.ColFurnitureState,
		taxonomy.ColHasBalconyDirection,
		taxonomy.ColHasHouseDirection,
		taxonomy.ColCity,
		taxonomy.ColDistrict,
		taxonomy.ColStreetWard,
		taxonomy.ColHasAccessRoad,
		taxonomy.ColHasFrontage,
		ColBathroomBedroomRatio,
		ColTotalRooms,
		ColIsLargeHouse,
		ColAvgRoomSize,
		ColIsLuxury,
		ColIsMultiStory,
		taxonomy.ColAreaBinned,
		ColAreaXBathrooms,
		ColAreaXBedrooms,
		ColAreaXFloors,
		ColBedroomsXBathrooms,
		ColBedroomsXFloors,
		ColLuxuryScore,
	}
	for _, city := range location.MajorCities {
		names = append(names, CityMaskColumn(city))
	}
	names = append(names,
		ColRoomDensity,
		ColAccessQuality,
	)
	for _, suffix := range []string{
		location.SuffixAreaMean,
		location.SuffixAreaMedian,
		location.SuffixAreaStd,
		location.SuffixSampleCount,
		location.SuffixTier,
	} {
		names = append(names, taxonomy.ColDistrict+suffix)
	}
	return names
}

// ExpectedFeatures returns the canonical feature order. The returned slice
// is a copy and safe to mutate.
func ExpectedFeatures() []string {
	return append([]string(nil), expectedFeatures...)
}

// InteractionColumns returns the interaction-product columns, the only set
// the optional scaler standardizes.
func InteractionColumns() []string {
	return []string{
		ColAreaXBathrooms,
		ColAreaXBedrooms,
		ColAreaXFloors,
		ColBedroomsXBathrooms,
		ColBedroomsXFloors,
	}
}
