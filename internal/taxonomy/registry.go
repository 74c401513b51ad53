// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package taxonomy classifies every raw dataset column and fixes its fill
// policy. Every encoding decision downstream keys off this registry, so the
// classification is static: it is built once at package load and never
// mutated. Unknown columns classify as excluded rather than failing, which
// lets the pipeline tolerate schema drift in upstream scrapes.
package taxonomy

// Kind classifies a column for encoding purposes.
type Kind int

const (
	// Excluded columns are dropped before modeling (and are the default for
	// columns the registry does not know).
	Excluded Kind = iota
	// Numeric columns pass through as float features.
	Numeric
	// LowCardinality categoricals are one-hot encodable; the tree scheme
	// label-encodes them instead.
	LowCardinality
	// HighCardinality categoricals (address-derived) are always label-encoded.
	HighCardinality
	// Target is the label column; it is never a feature.
	Target
)

// Raw dataset column names. These match the scraped CSV header verbatim,
// spaces included.
const (
	ColArea             = "Area"
	ColFrontage         = "Frontage"
	ColAccessRoad       = "Access Road"
	ColHouseDirection   = "House direction"
	ColBalconyDirection = "Balcony direction"
	ColFloors           = "Floors"
	ColBedrooms         = "Bedrooms"
	ColBathrooms        = "Bathrooms"
	ColLegalStatus      = "Legal status"
	ColFurnitureState   = "Furniture state"
	ColAddress          = "Address"
	ColPrice            = "Price"
)

// Address-derived and flag column names.
const (
	ColCity       = "new_city"
	ColDistrict   = "new_district"
	ColStreetWard = "new_street_ward"

	ColHasBalconyDirection = "new_has_balcony_direction"
	ColHasHouseDirection   = "new_has_house_direction"
	ColHasAccessRoad       = "new_has_access_road"
	ColHasFrontage         = "has_frontage"

	ColAreaBinned = "Area_binned"
)

// Sentinel fill values.
const (
	SentinelUnknown   = "Unknown"
	SentinelKhongRo   = "Không rõ"
	SentinelRareOther = "Other"
)

// FillPolicy describes how missing values in a column are resolved.
type FillPolicy struct {
	// Sentinel is the categorical fill value (severity >30%, or the grouped
	// fallback for categoricals).
	Sentinel string
	// NumericSentinel is the numeric fill for flag-and-fill columns.
	NumericSentinel float64
	// GroupBy names a correlated column used for grouped median/mode fills;
	// empty means ungrouped.
	GroupBy string
	// FlagColumn names the binary presence flag added before filling when
	// missingness exceeds the high threshold; empty means no flag.
	FlagColumn string
}

// ColumnSpec is the static metadata for one raw column.
type ColumnSpec struct {
	Name string
	Kind Kind
	Fill FillPolicy
}

// registry is fixed at load; order matters for deterministic iteration.
var registry = []ColumnSpec{
	{Name: ColArea, Kind: Numeric},
	{Name: ColFrontage, Kind: Numeric, Fill: FillPolicy{FlagColumn: ColHasFrontage}},
	{Name: ColAccessRoad, Kind: Numeric, Fill: FillPolicy{FlagColumn: ColHasAccessRoad}},
	{Name: ColFloors, Kind: Numeric},
	{Name: ColBedrooms, Kind: Numeric},
	{Name: ColBathrooms, Kind: Numeric, Fill: FillPolicy{GroupBy: ColBedrooms}},
	{Name: ColHouseDirection, Kind: LowCardinality, Fill: FillPolicy{
		Sentinel: SentinelKhongRo, FlagColumn: ColHasHouseDirection}},
	{Name: ColBalconyDirection, Kind: LowCardinality, Fill: FillPolicy{
		Sentinel: SentinelUnknown, FlagColumn: ColHasBalconyDirection}},
	{Name: ColLegalStatus, Kind: LowCardinality, Fill: FillPolicy{
		Sentinel: SentinelKhongRo, GroupBy: ColCity}},
	{Name: ColFurnitureState, Kind: LowCardinality, Fill: FillPolicy{
		Sentinel: SentinelKhongRo, GroupBy: ColCity}},
	{Name: ColAreaBinned, Kind: LowCardinality},
	{Name: ColCity, Kind: LowCardinality, Fill: FillPolicy{Sentinel: SentinelUnknown}},
	{Name: ColDistrict, Kind: HighCardinality, Fill: FillPolicy{Sentinel: SentinelUnknown}},
	{Name: ColStreetWard, Kind: HighCardinality, Fill: FillPolicy{Sentinel: SentinelUnknown}},
	{Name: ColAddress, Kind: Excluded},
	{Name: ColPrice, Kind: Target},
}

var byName = func() map[string]ColumnSpec {
	m := make(map[string]ColumnSpec, len(registry))
	for _, spec := range registry {
		m[spec.Name] = spec
	}
	return m
}()

// Lookup returns the spec for a column name. Unknown columns come back as
// Excluded so schema drift degrades to "ignore", never to a failure.
func Lookup(name string) ColumnSpec {
	if spec, ok := byName[name]; ok {
		return spec
	}
	return ColumnSpec{Name: name, Kind: Excluded}
}

// Specs returns every registered column spec in registry order.
func Specs() []ColumnSpec {
	return append([]ColumnSpec(nil), registry...)
}

// CategoricalColumns returns the names of all registered categorical columns
// (low and high cardinality), in registry order.
func CategoricalColumns() []string {
	var names []string
	for _, spec := range registry {
		if spec.Kind == LowCardinality || spec.Kind == HighCardinality {
			names = append(names, spec.Name)
		}
	}
	return names
}
