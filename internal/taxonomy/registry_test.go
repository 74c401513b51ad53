// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package taxonomy

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		wantKind Kind
	}{
		{ColArea, Numeric},
		{ColBathrooms, Numeric},
		{ColHouseDirection, LowCardinality},
		{ColDistrict, HighCardinality},
		{ColStreetWard, HighCardinality},
		{ColAddress, Excluded},
		{ColPrice, Target},
		{"ListingURL", Excluded}, // unknown column defaults to excluded
		{"", Excluded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Lookup(tt.name)
			if spec.Kind != tt.wantKind {
				t.Errorf("Lookup(%q).Kind = %v, want %v", tt.name, spec.Kind, tt.wantKind)
			}
		})
	}
}

func TestFillPolicies(t *testing.T) {
	if got := Lookup(ColBathrooms).Fill.GroupBy; got != ColBedrooms {
		t.Errorf("Bathrooms group-by = %q, want %q", got, ColBedrooms)
	}
	if got := Lookup(ColLegalStatus).Fill.GroupBy; got != ColCity {
		t.Errorf("Legal status group-by = %q, want %q", got, ColCity)
	}
	if got := Lookup(ColBalconyDirection).Fill.FlagColumn; got != ColHasBalconyDirection {
		t.Errorf("Balcony direction flag = %q, want %q", got, ColHasBalconyDirection)
	}
	if got := Lookup(ColHouseDirection).Fill.Sentinel; got != SentinelKhongRo {
		t.Errorf("House direction sentinel = %q, want %q", got, SentinelKhongRo)
	}
}

func TestCategoricalColumnsStable(t *testing.T) {
	a := CategoricalColumns()
	b := CategoricalColumns()
	if len(a) == 0 {
		t.Fatal("no categorical columns registered")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ordering not stable: %v vs %v", a, b)
		}
	}
}
