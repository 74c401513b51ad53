// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

func TestSafeRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"normal", 2, 4, 0.5},
		{"zero denominator clamps to one", 3, 0, 3},
		{"sub-one denominator clamps to one", 5, 0.5, 5},
		{"zero numerator", 0, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("SafeRatio(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestAreaBin(t *testing.T) {
	tests := []struct {
		area float64
		want float64
	}{
		{10, 0},
		{30, 0},
		{31, 1},
		{60, 1},
		{100, 2},
		{120, 3},
		{150, 3},
		{151, 4},
		{500, 4},
	}
	for _, tt := range tests {
		if got := AreaBin(tt.area); got != tt.want {
			t.Errorf("AreaBin(%v) = %v, want %v", tt.area, got, tt.want)
		}
	}
}

func TestLuxuryScore(t *testing.T) {
	tests := []struct {
		name                             string
		bathrooms, bedrooms, floors, area float64
		want                             float64
	}{
		{"nothing luxurious", 2, 3, 2, 100, 0},
		{"bathrooms only", 4, 3, 2, 100, 1},
		{"all four", 4, 5, 4, 141, 4},
		{"area boundary is exclusive", 2, 3, 2, 140, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LuxuryScore(tt.bathrooms, tt.bedrooms, tt.floors, tt.area)
			if got != tt.want {
				t.Errorf("LuxuryScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessQuality(t *testing.T) {
	tests := []struct {
		width float64
		want  float64
	}{
		{0, 0},
		{-1, 0},
		{3, 1},
		{4.9, 1},
		{5, 2},
		{12, 2},
	}
	for _, tt := range tests {
		if got := AccessQuality(tt.width); got != tt.want {
			t.Errorf("AccessQuality(%v) = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestCityMaskColumn(t *testing.T) {
	if got := CityMaskColumn("Hồ Chí Minh"); got != "area_in_hồ_chí_minh" {
		t.Errorf("CityMaskColumn = %q", got)
	}
}

func TestResolverGroupedMedian(t *testing.T) {
	f := frame.New(8)
	if err := f.AddNumeric(taxonomy.ColBedrooms, []float64{2, 2, 2, 2, 3, 3, 3, 3}); err != nil {
		t.Fatal(err)
	}
	nan := math.NaN()
	if err := f.AddNumeric(taxonomy.ColBathrooms, []float64{1, 3, 3, nan, 4, 6, 6, nan}); err != nil {
		t.Fatal(err)
	}

	if err := NewResolver().Resolve(f, NewLog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got := f.Column(taxonomy.ColBathrooms).Floats
	// Two-bedroom rows take the two-bedroom median (3), three-bedroom rows
	// take theirs (6).
	want := []float64{1, 3, 3, 3, 4, 6, 6, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("grouped median fill = %v, want %v", got, want)
	}
}

func TestResolverFlagAndSentinel(t *testing.T) {
	nan := math.NaN()
	f := frame.New(4)
	if err := f.AddNumeric(taxonomy.ColFrontage, []float64{5, nan, nan, nan}); err != nil {
		t.Fatal(err)
	}

	if err := NewResolver().Resolve(f, NewLog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	flags := f.Column(taxonomy.ColHasFrontage)
	if flags == nil {
		t.Fatal("presence flag column not added")
	}
	if want := []float64{1, 0, 0, 0}; !reflect.DeepEqual(flags.Floats, want) {
		t.Errorf("flags = %v, want %v", flags.Floats, want)
	}
	if want := []float64{5, 0, 0, 0}; !reflect.DeepEqual(f.Column(taxonomy.ColFrontage).Floats, want) {
		t.Errorf("sentinel fill = %v, want %v", f.Column(taxonomy.ColFrontage).Floats, want)
	}
}

func TestResolverZeroMissingInvariant(t *testing.T) {
	f := newRawFrame(t, 40)
	decomposeAddresses(f)

	if err := NewResolver().Resolve(f, NewLog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	for _, spec := range taxonomy.Specs() {
		if spec.Kind == taxonomy.Excluded || spec.Kind == taxonomy.Target || !f.Has(spec.Name) {
			continue
		}
		if n := f.Column(spec.Name).MissingCount(); n != 0 {
			t.Errorf("column %q: %d missing values after resolution", spec.Name, n)
		}
	}
}

func TestDeriveFeaturesSkipsBrokenFormula(t *testing.T) {
	// No Bathrooms column: ratio and interactions relying on it are skipped
	// with warnings while the rest still compute.
	f := frame.New(2)
	if err := f.AddNumeric(taxonomy.ColArea, []float64{50, 200}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric(taxonomy.ColBedrooms, []float64{2, 5}); err != nil {
		t.Fatal(err)
	}

	plog := NewLog()
	DeriveFeatures(f, plog)

	if f.Has(ColBathroomBedroomRatio) {
		t.Error("ratio computed without bathrooms column")
	}
	if !f.Has(ColIsLargeHouse) {
		t.Error("independent feature not computed")
	}
	if plog.Warnings() == 0 {
		t.Error("skipped features produced no warnings")
	}
	if got := f.Column(ColIsLargeHouse).Floats; !reflect.DeepEqual(got, []float64{0, 1}) {
		t.Errorf("is_large_house = %v", got)
	}
}

func TestGroupRare(t *testing.T) {
	values := []string{"Quận 1", "Quận 1", "Quận 1", "Quận 9", "Quận 1", "Quận 12"}
	f := frame.New(len(values))
	if err := f.AddString(taxonomy.ColDistrict, values, nil); err != nil {
		t.Fatal(err)
	}

	collapsed, err := GroupRare(f, taxonomy.ColDistrict, 2, NewLog())
	if err != nil {
		t.Fatalf("GroupRare: %v", err)
	}
	if collapsed != 2 {
		t.Errorf("collapsed %d categories, want 2", collapsed)
	}
	want := []string{"Quận 1", "Quận 1", "Quận 1", "Other", "Quận 1", "Other"}
	if !reflect.DeepEqual(f.Column(taxonomy.ColDistrict).Strings, want) {
		t.Errorf("values = %v, want %v", f.Column(taxonomy.ColDistrict).Strings, want)
	}
	if f.Rows() != len(values) {
		t.Errorf("row count changed: %d", f.Rows())
	}
}

func TestRemoveRare(t *testing.T) {
	values := []string{"Hồ Chí Minh", "Hồ Chí Minh", "Hồ Chí Minh", "Cần Thơ"}
	f := frame.New(len(values))
	if err := f.AddString(taxonomy.ColCity, values, nil); err != nil {
		t.Fatal(err)
	}

	out, removed, err := RemoveRare(f, taxonomy.ColCity, 2, NewLog())
	if err != nil {
		t.Fatalf("RemoveRare: %v", err)
	}
	if removed != 1 || out.Rows() != 3 {
		t.Errorf("removed %d rows, kept %d; want 1 removed, 3 kept", removed, out.Rows())
	}
}

func TestRemoveOutliers(t *testing.T) {
	prices := []float64{10, 11, 12, 11, 10, 12, 11, 10, 12, 500}
	f := frame.New(len(prices))
	if err := f.AddNumeric(taxonomy.ColPrice, prices); err != nil {
		t.Fatal(err)
	}

	out, removed, err := RemoveOutliers(f, taxonomy.ColPrice, 1.5, NewLog())
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d rows, want 1", removed)
	}
	for _, v := range out.Column(taxonomy.ColPrice).Floats {
		if v == 500 {
			t.Error("outlier row survived")
		}
	}
}

func TestSplitDeterminism(t *testing.T) {
	f := frame.New(100)
	ids := make([]float64, 100)
	for i := range ids {
		ids[i] = float64(i)
	}
	if err := f.AddNumeric("id", ids); err != nil {
		t.Fatal(err)
	}

	trainA, testA, err := Split(f, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	trainB, testB, err := Split(f, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if trainA.Rows() != 80 || testA.Rows() != 20 {
		t.Errorf("partition sizes %d/%d, want 80/20", trainA.Rows(), testA.Rows())
	}
	if !reflect.DeepEqual(trainA.Column("id").Floats, trainB.Column("id").Floats) {
		t.Error("same seed produced different train partitions")
	}
	if !reflect.DeepEqual(testA.Column("id").Floats, testB.Column("id").Floats) {
		t.Error("same seed produced different test partitions")
	}

	_, testC, err := Split(f, 0.2, 7)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if reflect.DeepEqual(testA.Column("id").Floats, testC.Column("id").Floats) {
		t.Error("different seeds produced the same partition")
	}
}

func TestSplitRejectsBadTestSize(t *testing.T) {
	f := frame.New(10)
	if err := f.AddNumeric("id", make([]float64, 10)); err != nil {
		t.Fatal(err)
	}
	for _, size := range []float64{0, 1, -0.5, 1.5} {
		if _, _, err := Split(f, size, 1); err == nil {
			t.Errorf("Split accepted test size %v", size)
		}
	}
}

func TestExpectedFeaturesContract(t *testing.T) {
	want := []string{
		"Area", "Frontage", "Access Road", "House direction", "Balcony direction",
		"Floors", "Bedrooms", "Bathrooms", "Legal status", "Furniture state",
		"new_has_balcony_direction", "new_has_house_direction",
		"new_city", "new_district", "new_street_ward",
		"new_has_access_road", "has_frontage",
		"new_bathroom_bedroom_ratio", "new_total_rooms", "new_is_large_house",
		"new_avg_room_size", "new_is_luxury", "new_is_multi_story", "Area_binned",
		"area_x_bathrooms", "area_x_bedrooms", "area_x_floors",
		"bedrooms_x_bathrooms", "bedrooms_x_floors", "luxury_score",
		"area_in_hồ_chí_minh", "area_in_hà_nội", "area_in_bình_dương", "area_in_đà_nẵng",
		"room_density", "access_quality",
		"new_district_area_mean", "new_district_area_median", "new_district_area_std",
		"new_district_sample_count", "new_district_tier",
	}
	got := ExpectedFeatures()
	if len(got) != 41 {
		t.Fatalf("feature count = %d, want 41", len(got))
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("feature order drifted:\ngot  %v\nwant %v", got, want)
	}
}

func TestRunMissingTargetIsFatal(t *testing.T) {
	f := frame.New(3)
	if err := f.AddNumeric(taxonomy.ColArea, []float64{50, 60, 70}); err != nil {
		t.Fatal(err)
	}

	_, err := Run(f, DefaultConfig())
	if !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Run without target = %v, want ErrMissingTarget", err)
	}
	if !IsFatal(err) {
		t.Error("missing target not classified as fatal")
	}
}

func TestRunFullPipeline(t *testing.T) {
	raw := newRawFrame(t, 40)

	cfg := DefaultConfig()
	cfg.TestSize = 0.25
	cfg.RareDistrictMin = 1
	cfg.RareCityMin = 1

	res, err := Run(raw, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCols := append(ExpectedFeatures(), taxonomy.ColPrice)
	if got := res.Train.Names(); !reflect.DeepEqual(got, wantCols) {
		t.Errorf("train columns drifted:\ngot  %v\nwant %v", got, wantCols)
	}
	if got := res.Test.Names(); !reflect.DeepEqual(got, wantCols) {
		t.Errorf("test columns drifted:\ngot  %v\nwant %v", got, wantCols)
	}

	if n := res.Train.MissingTotal(); n != 0 {
		t.Errorf("train has %d missing values", n)
	}
	if n := res.Test.MissingTotal(); n != 0 {
		t.Errorf("test has %d missing values", n)
	}

	if res.Report.RowsIn != 40 {
		t.Errorf("report rows in = %d", res.Report.RowsIn)
	}
	if res.Report.MissingTargetRemoved != 3 {
		t.Errorf("missing-target removals = %d, want 3", res.Report.MissingTargetRemoved)
	}

	if err := res.Bundle.Validate(); err != nil {
		t.Errorf("bundle invalid: %v", err)
	}
	if res.Bundle.Encoder(taxonomy.ColCity) == nil {
		t.Error("city encoder missing from bundle")
	}
	if len(res.Bundle.FeatureOrder) != 41 {
		t.Errorf("bundle feature order has %d entries", len(res.Bundle.FeatureOrder))
	}

	// The raw frame is input, not workspace.
	if raw.Has(taxonomy.ColCity) {
		t.Error("Run mutated the input frame")
	}
}

func TestRunOutlierFilterLeavesTestAlone(t *testing.T) {
	raw := newRawFrame(t, 40)

	cfg := DefaultConfig()
	cfg.TestSize = 0.25
	cfg.RareDistrictMin = 1
	cfg.RareCityMin = 1

	cfg.OutlierFilter = false
	plain, err := Run(raw, cfg)
	if err != nil {
		t.Fatalf("Run without filter: %v", err)
	}

	cfg.OutlierFilter = true
	filtered, err := Run(raw, cfg)
	if err != nil {
		t.Fatalf("Run with filter: %v", err)
	}

	if filtered.Test.Rows() != plain.Test.Rows() {
		t.Errorf("outlier filter changed test size: %d vs %d",
			filtered.Test.Rows(), plain.Test.Rows())
	}
	if filtered.Report.OutliersRemoved > 0 &&
		filtered.Train.Rows() >= plain.Train.Rows() {
		t.Error("outliers reported removed but train did not shrink")
	}
}

// newRawFrame builds a deterministic synthetic listing table with realistic
// missingness in every band the resolver handles. Rows where i%13 == 12
// have no price, exercising the target drop.
func newRawFrame(t *testing.T, rows int) *frame.Frame {
	t.Helper()
	nan := math.NaN()

	area := make([]float64, rows)
	floors := make([]float64, rows)
	bedrooms := make([]float64, rows)
	bathrooms := make([]float64, rows)
	frontage := make([]float64, rows)
	accessRoad := make([]float64, rows)
	price := make([]float64, rows)

	houseDir := make([]string, rows)
	houseDirNull := make([]bool, rows)
	balconyDir := make([]string, rows)
	balconyDirNull := make([]bool, rows)
	legal := make([]string, rows)
	legalNull := make([]bool, rows)
	furniture := make([]string, rows)
	furnitureNull := make([]bool, rows)
	address := make([]string, rows)

	directions := []string{"Đông", "Tây", "Nam", "Bắc", "Đông - Nam"}
	addresses := []string{
		"12 Lê Lợi, Phường Bến Nghé, Quận 1, Hồ Chí Minh",
		"34 Nguyễn Huệ, Phường Bến Nghé, Quận 1, Hồ Chí Minh",
		"5 Phố Huế, Hai Bà Trưng, Hà Nội",
		"8 Trần Phú, Hải Châu, Đà Nẵng",
	}

	for i := 0; i < rows; i++ {
		area[i] = 30 + float64(i)*5
		floors[i] = float64(1 + i%4)
		bedrooms[i] = float64(1 + i%5)
		if i%7 == 0 {
			bathrooms[i] = nan
		} else {
			bathrooms[i] = float64(1 + i%4)
		}
		if i%2 == 0 {
			frontage[i] = nan
		} else {
			frontage[i] = 3 + float64(i%5)
		}
		if i%3 == 0 {
			accessRoad[i] = nan
		} else {
			accessRoad[i] = 2 + float64(i%8)
		}
		if i%13 == 12 {
			price[i] = nan
		} else {
			price[i] = 2 + 0.1*float64(i)
		}

		houseDir[i] = directions[i%len(directions)]
		houseDirNull[i] = i%5 == 0
		balconyDir[i] = directions[(i+2)%len(directions)]
		balconyDirNull[i] = i%4 == 0
		if i%2 == 0 {
			legal[i] = "Sổ đỏ"
		} else {
			legal[i] = "Sổ hồng"
		}
		legalNull[i] = i%6 == 0
		furniture[i] = "Cơ bản"
		furnitureNull[i] = i%8 == 0
		address[i] = addresses[i%len(addresses)]
	}

	f := frame.New(rows)
	for _, c := range []struct {
		name string
		vals []float64
	}{
		{taxonomy.ColArea, area},
		{taxonomy.ColFrontage, frontage},
		{taxonomy.ColAccessRoad, accessRoad},
		{taxonomy.ColFloors, floors},
		{taxonomy.ColBedrooms, bedrooms},
		{taxonomy.ColBathrooms, bathrooms},
		{taxonomy.ColPrice, price},
	} {
		if err := f.AddNumeric(c.name, c.vals); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range []struct {
		name string
		vals []string
		null []bool
	}{
		{taxonomy.ColHouseDirection, houseDir, houseDirNull},
		{taxonomy.ColBalconyDirection, balconyDir, balconyDirNull},
		{taxonomy.ColLegalStatus, legal, legalNull},
		{taxonomy.ColFurnitureState, furniture, furnitureNull},
		{taxonomy.ColAddress, address, nil},
	} {
		if err := f.AddString(c.name, c.vals, c.null); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func ExampleLog() {
	plog := NewLog()
	plog.Infof("column %q: filled %d missing", "Bathrooms", 3)
	fmt.Println(plog.Entries()[0])
	// Output: column "Bathrooms": filled 3 missing
}
