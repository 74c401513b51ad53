// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package location decomposes Vietnamese listing addresses and carries the
// train-fitted per-district aggregate statistics.
//
// Address parsing is a positional heuristic, not a geocoder: listings write
// addresses most-specific-first ("street, ward, district, city"), so the
// last comma segment is taken as the city and the second-to-last as the
// district. Addresses that deviate from this convention are silently
// mis-parsed into the wrong fields; there is no detection for that case.
package location

import "strings"

// Unknown is the placeholder for address parts that cannot be extracted.
const Unknown = "Unknown"

// Location is the decomposed form of a listing address.
type Location struct {
	City       string
	District   string
	StreetWard string
}

// Decompose splits a free-text address on commas into city, district and the
// remaining street/ward prefix. Empty or non-conforming input degrades to
// Unknown placeholders and never fails.
func Decompose(addr string) Location {
	loc := Location{City: Unknown, District: Unknown, StreetWard: Unknown}
	if strings.TrimSpace(addr) == "" {
		return loc
	}

	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 3:
		loc.City = strings.TrimRight(parts[len(parts)-1], ".")
		loc.District = parts[len(parts)-2]
		loc.StreetWard = strings.Join(parts[:len(parts)-2], ", ")
	case len(parts) == 2:
		loc.City = strings.TrimRight(parts[1], ".")
		loc.District = parts[0]
	default:
		loc.City = strings.TrimRight(parts[0], ".")
	}
	return loc
}

// Canonical city names for the major markets with dedicated area features.
const (
	CityHoChiMinh = "Hồ Chí Minh"
	CityHaNoi     = "Hà Nội"
	CityBinhDuong = "Bình Dương"
	CityDaNang    = "Đà Nẵng"
)

// MajorCities lists the cities that get dedicated area-mask features, in
// feature order.
var MajorCities = []string{CityHoChiMinh, CityHaNoi, CityBinhDuong, CityDaNang}

// citySynonyms maps lowercase spelling/diacritic/abbreviation variants to
// canonical city names. Keys must be lowercase.
var citySynonyms = map[string]string{
	"hồ chí minh": CityHoChiMinh,
	"ho chi minh": CityHoChiMinh,
	"hcm":         CityHoChiMinh,
	"tphcm":       CityHoChiMinh,
	"tp hcm":      CityHoChiMinh,
	"tp hồ chí minh": CityHoChiMinh,
	"saigon":      CityHoChiMinh,
	"sài gòn":     CityHoChiMinh,

	"hà nội": CityHaNoi,
	"ha noi": CityHaNoi,
	"hanoi":  CityHaNoi,

	"bình dương": CityBinhDuong,
	"binh duong": CityBinhDuong,

	"đà nẵng": CityDaNang,
	"da nang": CityDaNang,
	"danang":  CityDaNang,
}

// NormalizeCity maps common city-name variants to their canonical form.
// Unmapped input passes through unchanged.
func NormalizeCity(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if canonical, ok := citySynonyms[key]; ok {
		return canonical
	}
	return city
}
