// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package frame

import (
	"math"
	"sort"
)

// Mean returns the mean of non-missing values, NaN when every entry is missing.
func (c *Column) Mean() float64 {
	sum, n := 0.0, 0
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Median returns the median of non-missing values, NaN when every entry is
// missing. Even-length inputs take the midpoint of the two central values.
func (c *Column) Median() float64 {
	vals := make([]float64, 0, len(c.Floats))
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return medianOf(vals)
}

// Std returns the sample standard deviation of non-missing values, NaN when
// fewer than two values are present.
func (c *Column) Std() float64 {
	mean := c.Mean()
	if math.IsNaN(mean) {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			d := v - mean
			sum += d * d
			n++
		}
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n-1))
}

// Quantile returns the q-th quantile (0..1) of non-missing values using
// linear interpolation, NaN when every entry is missing.
func (c *Column) Quantile(q float64) float64 {
	vals := make([]float64, 0, len(c.Floats))
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if q <= 0 {
		return vals[0]
	}
	if q >= 1 {
		return vals[len(vals)-1]
	}
	pos := q * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo]
	}
	frac := pos - float64(lo)
	return vals[lo]*(1-frac) + vals[hi]*frac
}

// Mode returns the most frequent non-missing string value. Ties break toward
// the lexically smallest value so repeated runs are deterministic. The second
// return value is false when every entry is missing.
func (c *Column) Mode() (string, bool) {
	counts := make(map[string]int)
	for i, v := range c.Strings {
		if !c.Null[i] {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	best, bestCount := "", -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, true
}

// NumericMode returns the most frequent non-missing numeric value, with the
// same deterministic tie-break. The second return value is false when every
// entry is missing.
func (c *Column) NumericMode() (float64, bool) {
	counts := make(map[float64]int)
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return 0, false
	}
	best, bestCount := 0.0, -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, true
}

// ValueCounts returns occurrence counts of non-missing string values.
func (c *Column) ValueCounts() map[string]int {
	counts := make(map[string]int)
	for i, v := range c.Strings {
		if !c.Null[i] {
			counts[v]++
		}
	}
	return counts
}

func medianOf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// MedianOf exposes the shared median helper for grouped fills, where the
// caller has already bucketed values by group key.
func MedianOf(vals []float64) float64 { return medianOf(vals) }
