// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package location

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/homeval/internal/frame"
)

// Stat feature column name suffixes; the full name is the grouping column
// name plus the suffix (e.g. "new_district_area_mean").
const (
	SuffixAreaMean    = "_area_mean"
	SuffixAreaMedian  = "_area_median"
	SuffixAreaStd     = "_area_std"
	SuffixSampleCount = "_sample_count"
	SuffixTier        = "_tier"
)

// tierEdges are the sample-count bin edges for the district tier:
// (0,50] → 0, (50,200] → 1, (200,500] → 2, (500,∞) → 3.
var tierEdges = []int{50, 200, 500}

// DistrictStats is the frozen aggregate for one district.
type DistrictStats struct {
	AreaMean    float64 `json:"area_mean"`
	AreaMedian  float64 `json:"area_median"`
	AreaStd     float64 `json:"area_std"`
	SampleCount int     `json:"sample_count"`
	Tier        int     `json:"tier"`
}

// DefaultDistrictStats returns the fixed fallback used for districts never
// seen during fit (and for the fully degraded no-artifact case). Values are
// roughly the training-set medians.
func DefaultDistrictStats() DistrictStats {
	return DistrictStats{
		AreaMean:    70.0,
		AreaMedian:  65.0,
		AreaStd:     30.0,
		SampleCount: 100,
		Tier:        2,
	}
}

// StatsTable holds the per-district aggregates fitted exclusively on the
// training partition. Immutable after fit; application and serving only
// read from it.
type StatsTable struct {
	Column    string                   `json:"column"`
	Districts map[string]DistrictStats `json:"districts"`
	// Defaults is the fallback row for unknown districts: the mean over
	// fitted district rows, frozen at fit time.
	Defaults DistrictStats `json:"defaults"`
}

// TierFor buckets a sample count into the 0-3 district tier.
func TierFor(count int) int {
	tier := len(tierEdges)
	for i, edge := range tierEdges {
		if count <= edge {
			tier = i
			break
		}
	}
	return tier
}

// FitStats computes per-district area aggregates from the given frame.
// Call this with the TRAINING partition only; applying the result to the
// test partition or serve traffic is what keeps the statistics leakage-free.
func FitStats(f *frame.Frame, districtCol, areaCol string) (*StatsTable, error) {
	district := f.Column(districtCol)
	if district == nil || district.Kind != frame.String {
		return nil, fmt.Errorf("fit location stats: missing string column %q", districtCol)
	}
	area := f.Column(areaCol)
	if area == nil || area.Kind != frame.Numeric {
		return nil, fmt.Errorf("fit location stats: missing numeric column %q", areaCol)
	}

	groups := make(map[string][]float64)
	for i := 0; i < f.Rows(); i++ {
		if district.Null[i] {
			continue
		}
		groups[district.Strings[i]] = append(groups[district.Strings[i]], area.Floats[i])
	}

	table := &StatsTable{Column: districtCol, Districts: make(map[string]DistrictStats, len(groups))}
	for name, vals := range groups {
		clean := vals[:0:0]
		for _, v := range vals {
			if !math.IsNaN(v) {
				clean = append(clean, v)
			}
		}
		table.Districts[name] = DistrictStats{
			AreaMean:    meanOf(clean),
			AreaMedian:  frame.MedianOf(clean),
			AreaStd:     stdOf(clean),
			SampleCount: len(vals),
			Tier:        TierFor(len(vals)),
		}
	}
	table.Defaults = table.globalDefaults()
	return table, nil
}

// globalDefaults averages the fitted district rows into the unknown-district
// fallback. Falls back to the fixed defaults for an empty table.
func (t *StatsTable) globalDefaults() DistrictStats {
	if len(t.Districts) == 0 {
		return DefaultDistrictStats()
	}
	var mean, median, std, count float64
	for _, s := range t.Districts {
		mean += s.AreaMean
		median += s.AreaMedian
		std += s.AreaStd
		count += float64(s.SampleCount)
	}
	n := float64(len(t.Districts))
	avgCount := int(math.Round(count / n))
	return DistrictStats{
		AreaMean:    mean / n,
		AreaMedian:  median / n,
		AreaStd:     std / n,
		SampleCount: avgCount,
		Tier:        TierFor(avgCount),
	}
}

// Lookup returns the frozen stats for a district, falling back to the
// table's frozen defaults for districts never seen at fit time. The fallback
// is a fixed value, never a re-fit.
func (t *StatsTable) Lookup(district string) DistrictStats {
	if s, ok := t.Districts[district]; ok {
		return s
	}
	return t.Defaults
}

// Apply joins the stat columns onto a frame by district key. Works for both
// the training partition (self-join on the fitted table) and the test
// partition (frozen train-fitted values).
func (t *StatsTable) Apply(f *frame.Frame) error {
	district := f.Column(t.Column)
	if district == nil || district.Kind != frame.String {
		return fmt.Errorf("apply location stats: missing string column %q", t.Column)
	}

	n := f.Rows()
	mean := make([]float64, n)
	median := make([]float64, n)
	std := make([]float64, n)
	count := make([]float64, n)
	tier := make([]float64, n)
	for i := 0; i < n; i++ {
		s := t.Defaults
		if !district.Null[i] {
			s = t.Lookup(district.Strings[i])
		}
		mean[i] = s.AreaMean
		median[i] = s.AreaMedian
		std[i] = s.AreaStd
		count[i] = float64(s.SampleCount)
		tier[i] = float64(s.Tier)
	}

	if err := f.AddNumeric(t.Column+SuffixAreaMean, mean); err != nil {
		return err
	}
	if err := f.AddNumeric(t.Column+SuffixAreaMedian, median); err != nil {
		return err
	}
	if err := f.AddNumeric(t.Column+SuffixAreaStd, std); err != nil {
		return err
	}
	if err := f.AddNumeric(t.Column+SuffixSampleCount, count); err != nil {
		return err
	}
	return f.AddNumeric(t.Column+SuffixTier, tier)
}

// DistrictNames returns the fitted district names, sorted, for reporting.
func (t *StatsTable) DistrictNames() []string {
	names := make([]string, 0, len(t.Districts))
	for name := range t.Districts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stdOf(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := meanOf(vals)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
