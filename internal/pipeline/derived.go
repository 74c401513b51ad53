// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"fmt"
	"strings"

	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/location"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// Derived feature column names. The "new_" prefix marks columns the pipeline
// adds on top of the scraped schema.
const (
	ColBathroomBedroomRatio = "new_bathroom_bedroom_ratio"
	ColTotalRooms           = "new_total_rooms"
	ColIsLargeHouse         = "new_is_large_house"
	ColAvgRoomSize          = "new_avg_room_size"
	ColIsLuxury             = "new_is_luxury"
	ColIsMultiStory         = "new_is_multi_story"
	ColAreaXBathrooms       = "area_x_bathrooms"
	ColAreaXBedrooms        = "area_x_bedrooms"
	ColAreaXFloors          = "area_x_floors"
	ColBedroomsXBathrooms   = "bedrooms_x_bathrooms"
	ColBedroomsXFloors      = "bedrooms_x_floors"
	ColLuxuryScore          = "luxury_score"
	ColRoomDensity          = "room_density"
	ColAccessQuality        = "access_quality"
)

// Thresholds for the row-local flags and the luxury composite.
const (
	largeHouseArea  = 140.0
	luxuryBathrooms = 4.0
	luxuryBedrooms  = 5.0
	luxuryFloors    = 4.0
	multiStoryMin   = 2.0
	narrowRoadWidth = 5.0
)

// Scalar formulas shared by the batch generator and the online preprocessor.
// Both paths must produce identical values for identical inputs, so the
// formulas live here once.

// SafeRatio divides a by b, clamping the denominator to at least 1.
func SafeRatio(a, b float64) float64 {
	if b < 1 {
		b = 1
	}
	return a / b
}

// LuxuryScore counts how many luxury conditions the row satisfies (0-4).
func LuxuryScore(bathrooms, bedrooms, floors, area float64) float64 {
	score := 0.0
	if bathrooms >= luxuryBathrooms {
		score++
	}
	if bedrooms >= luxuryBedrooms {
		score++
	}
	if floors >= luxuryFloors {
		score++
	}
	if area > largeHouseArea {
		score++
	}
	return score
}

// AreaBin maps an area to its ordinal size bucket 0-4 with fixed edges at
// 30, 60, 100, and 150 square meters.
func AreaBin(area float64) float64 {
	switch {
	case area <= 30:
		return 0
	case area <= 60:
		return 1
	case area <= 100:
		return 2
	case area <= 150:
		return 3
	default:
		return 4
	}
}

// AccessQuality scores the access road: 0 for no road, 1 for a narrow road
// under 5m, 2 for a wide one.
func AccessQuality(width float64) float64 {
	switch {
	case width <= 0:
		return 0
	case width < narrowRoadWidth:
		return 1
	default:
		return 2
	}
}

// BoolFlag renders a condition as the 0/1 float the feature schema uses.
func BoolFlag(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

// CityMaskColumn returns the per-city area mask column name for a canonical
// city ("Hồ Chí Minh" → "area_in_hồ_chí_minh").
func CityMaskColumn(city string) string {
	return "area_in_" + strings.ReplaceAll(strings.ToLower(city), " ", "_")
}

// builder is one derived feature. A failing builder is skipped with a
// warning; the remaining features still run.
type builder struct {
	name  string
	build func(f *frame.Frame) error
}

// DeriveFeatures computes every derived column over the already-filled frame.
// All formulas are row-local; cross-row statistics belong to the location
// stats stage.
func DeriveFeatures(f *frame.Frame, plog *Log) {
	builders := []builder{
		{ColBathroomBedroomRatio, func(f *frame.Frame) error {
			return binaryOp(f, ColBathroomBedroomRatio, taxonomy.ColBathrooms, taxonomy.ColBedrooms, SafeRatio)
		}},
		{ColTotalRooms, func(f *frame.Frame) error {
			return binaryOp(f, ColTotalRooms, taxonomy.ColBedrooms, taxonomy.ColBathrooms,
				func(a, b float64) float64 { return a + b })
		}},
		{ColIsLargeHouse, func(f *frame.Frame) error {
			return unaryOp(f, ColIsLargeHouse, taxonomy.ColArea,
				func(a float64) float64 { return BoolFlag(a > largeHouseArea) })
		}},
		{ColAvgRoomSize, func(f *frame.Frame) error {
			return binaryOp(f, ColAvgRoomSize, taxonomy.ColArea, ColTotalRooms, SafeRatio)
		}},
		{ColIsLuxury, func(f *frame.Frame) error {
			return unaryOp(f, ColIsLuxury, taxonomy.ColBathrooms,
				func(a float64) float64 { return BoolFlag(a >= luxuryBathrooms) })
		}},
		{ColIsMultiStory, func(f *frame.Frame) error {
			return unaryOp(f, ColIsMultiStory, taxonomy.ColFloors,
				func(a float64) float64 { return BoolFlag(a > multiStoryMin) })
		}},
		{taxonomy.ColAreaBinned, func(f *frame.Frame) error {
			return unaryOp(f, taxonomy.ColAreaBinned, taxonomy.ColArea, AreaBin)
		}},
		{ColAreaXBathrooms, product(ColAreaXBathrooms, taxonomy.ColArea, taxonomy.ColBathrooms)},
		{ColAreaXBedrooms, product(ColAreaXBedrooms, taxonomy.ColArea, taxonomy.ColBedrooms)},
		{ColAreaXFloors, product(ColAreaXFloors, taxonomy.ColArea, taxonomy.ColFloors)},
		{ColBedroomsXBathrooms, product(ColBedroomsXBathrooms, taxonomy.ColBedrooms, taxonomy.ColBathrooms)},
		{ColBedroomsXFloors, product(ColBedroomsXFloors, taxonomy.ColBedrooms, taxonomy.ColFloors)},
		{ColLuxuryScore, buildLuxuryScore},
		{ColRoomDensity, func(f *frame.Frame) error {
			return binaryOp(f, ColRoomDensity, ColTotalRooms, taxonomy.ColArea, SafeRatio)
		}},
		{ColAccessQuality, func(f *frame.Frame) error {
			return unaryOp(f, ColAccessQuality, taxonomy.ColAccessRoad, AccessQuality)
		}},
	}
	for _, city := range location.MajorCities {
		builders = append(builders, builder{CityMaskColumn(city), cityMask(city)})
	}

	for _, b := range builders {
		if err := b.build(f); err != nil {
			plog.Warnf("derived feature %q skipped: %v", b.name, err)
		}
	}
}

func numericColumn(f *frame.Frame, name string) (*frame.Column, error) {
	col := f.Column(name)
	if col == nil {
		return nil, fmt.Errorf("column %q not present", name)
	}
	if col.Kind != frame.Numeric {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	return col, nil
}

func unaryOp(f *frame.Frame, out, in string, op func(float64) float64) error {
	col, err := numericColumn(f, in)
	if err != nil {
		return err
	}
	vals := make([]float64, col.Len())
	for i, v := range col.Floats {
		vals[i] = op(v)
	}
	return f.AddNumeric(out, vals)
}

func binaryOp(f *frame.Frame, out, a, b string, op func(float64, float64) float64) error {
	ca, err := numericColumn(f, a)
	if err != nil {
		return err
	}
	cb, err := numericColumn(f, b)
	if err != nil {
		return err
	}
	vals := make([]float64, ca.Len())
	for i := range vals {
		vals[i] = op(ca.Floats[i], cb.Floats[i])
	}
	return f.AddNumeric(out, vals)
}

func product(out, a, b string) func(*frame.Frame) error {
	return func(f *frame.Frame) error {
		return binaryOp(f, out, a, b, func(x, y float64) float64 { return x * y })
	}
}

func buildLuxuryScore(f *frame.Frame) error {
	bath, err := numericColumn(f, taxonomy.ColBathrooms)
	if err != nil {
		return err
	}
	bed, err := numericColumn(f, taxonomy.ColBedrooms)
	if err != nil {
		return err
	}
	floors, err := numericColumn(f, taxonomy.ColFloors)
	if err != nil {
		return err
	}
	area, err := numericColumn(f, taxonomy.ColArea)
	if err != nil {
		return err
	}
	vals := make([]float64, bath.Len())
	for i := range vals {
		vals[i] = LuxuryScore(bath.Floats[i], bed.Floats[i], floors.Floats[i], area.Floats[i])
	}
	return f.AddNumeric(ColLuxuryScore, vals)
}

// cityMask builds "area if the row's city matches, else 0" for one major city.
func cityMask(city string) func(*frame.Frame) error {
	return func(f *frame.Frame) error {
		area, err := numericColumn(f, taxonomy.ColArea)
		if err != nil {
			return err
		}
		cities := f.Column(taxonomy.ColCity)
		if cities == nil || cities.Kind != frame.String {
			return fmt.Errorf("column %q not present", taxonomy.ColCity)
		}
		vals := make([]float64, area.Len())
		for i := range vals {
			if !cities.Null[i] && cities.Strings[i] == city {
				vals[i] = area.Floats[i]
			}
		}
		return f.AddNumeric(CityMaskColumn(city), vals)
	}
}
