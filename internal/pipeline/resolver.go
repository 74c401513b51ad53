// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"math"
	"strconv"

	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// Resolver eliminates missing values column by column, choosing the fill
// strategy from the column's missingness severity:
//
//   - above HighThreshold: sentinel fill, with a binary presence flag added
//     before the fill so the model can still see that the value was absent;
//   - between the thresholds: sentinel fill without statistics;
//   - at or below LowThreshold: median (numeric) or mode (categorical),
//     optionally grouped by the correlated column the taxonomy names, with
//     ungrouped fallback when a group is entirely missing.
//
// After Resolve returns nil, no registered column holds a missing value.
type Resolver struct {
	HighThreshold float64
	LowThreshold  float64
}

// NewResolver returns a resolver with the standard severity bands.
func NewResolver() *Resolver {
	return &Resolver{HighThreshold: 0.70, LowThreshold: 0.30}
}

// Resolve fills every registered column in place and records each operation
// in the processing log.
func (r *Resolver) Resolve(f *frame.Frame, plog *Log) error {
	for _, spec := range taxonomy.Specs() {
		if spec.Kind == taxonomy.Excluded || spec.Kind == taxonomy.Target {
			continue
		}
		if !f.Has(spec.Name) {
			continue
		}
		col := f.Column(spec.Name)

		// Presence flags are part of the feature schema, so they are added
		// whenever the taxonomy names one, not only above the high band.
		if spec.Fill.FlagColumn != "" {
			flags := make([]float64, col.Len())
			for i := range flags {
				if !col.IsMissing(i) {
					flags[i] = 1
				}
			}
			if err := f.AddNumeric(spec.Fill.FlagColumn, flags); err != nil {
				return err
			}
		}

		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		ratio := col.MissingRatio()

		switch {
		case ratio > r.LowThreshold:
			n := fillSentinel(col, spec.Fill)
			plog.Infof("column %q: filled %d missing (%.1f%%) with sentinel", spec.Name, n, ratio*100)
		case col.Kind == frame.Numeric:
			grouped, fallback := r.fillNumericStat(f, col, spec.Fill.GroupBy)
			plog.Infof("column %q: filled %d missing (%.1f%%) with median (%d grouped, %d global)",
				spec.Name, missing, ratio*100, grouped, fallback)
		default:
			grouped, fallback := r.fillCategoricalStat(f, col, spec.Fill)
			plog.Infof("column %q: filled %d missing (%.1f%%) with mode (%d grouped, %d fallback)",
				spec.Name, missing, ratio*100, grouped, fallback)
		}
	}

	// Zero-missing guarantee. Anything still open here is a bug in a fill
	// path above, so close it with the sentinel and flag the run.
	for _, spec := range taxonomy.Specs() {
		if spec.Kind == taxonomy.Excluded || spec.Kind == taxonomy.Target || !f.Has(spec.Name) {
			continue
		}
		col := f.Column(spec.Name)
		if n := col.MissingCount(); n > 0 {
			fillSentinel(col, spec.Fill)
			plog.Warnf("column %q: %d values survived resolution, forced to sentinel", spec.Name, n)
		}
	}
	return nil
}

// fillSentinel closes every missing entry with the column's fixed sentinel.
func fillSentinel(col *frame.Column, policy taxonomy.FillPolicy) int {
	n := 0
	if col.Kind == frame.Numeric {
		for i, v := range col.Floats {
			if math.IsNaN(v) {
				col.Floats[i] = policy.NumericSentinel
				n++
			}
		}
		return n
	}
	sentinel := policy.Sentinel
	if sentinel == "" {
		sentinel = taxonomy.SentinelUnknown
	}
	for i := range col.Strings {
		if col.Null[i] {
			col.Strings[i] = sentinel
			col.Null[i] = false
			n++
		}
	}
	return n
}

// fillNumericStat fills with the grouped median when a group column is
// configured, falling back to the ungrouped median (and finally the numeric
// sentinel when the whole column is empty). Returns grouped and fallback
// fill counts.
func (r *Resolver) fillNumericStat(f *frame.Frame, col *frame.Column, groupBy string) (int, int) {
	grouped := 0
	if groupBy != "" && f.Has(groupBy) {
		keys := groupKeys(f, groupBy)
		byGroup := make(map[string][]float64)
		for i, v := range col.Floats {
			if !math.IsNaN(v) && keys[i] != "" {
				byGroup[keys[i]] = append(byGroup[keys[i]], v)
			}
		}
		medians := make(map[string]float64, len(byGroup))
		for k, vals := range byGroup {
			medians[k] = frame.MedianOf(vals)
		}
		for i, v := range col.Floats {
			if math.IsNaN(v) {
				if m, ok := medians[keys[i]]; ok {
					col.Floats[i] = m
					grouped++
				}
			}
		}
	}
	global := col.Median()
	if math.IsNaN(global) {
		global = 0
	}
	fallback := 0
	for i, v := range col.Floats {
		if math.IsNaN(v) {
			col.Floats[i] = global
			fallback++
		}
	}
	return grouped, fallback
}

// fillCategoricalStat fills with the grouped mode when a group column is
// configured, then the global mode, then the sentinel.
func (r *Resolver) fillCategoricalStat(f *frame.Frame, col *frame.Column, policy taxonomy.FillPolicy) (int, int) {
	grouped := 0
	if policy.GroupBy != "" && f.Has(policy.GroupBy) {
		keys := groupKeys(f, policy.GroupBy)
		counts := make(map[string]map[string]int)
		for i, v := range col.Strings {
			if !col.Null[i] && keys[i] != "" {
				if counts[keys[i]] == nil {
					counts[keys[i]] = make(map[string]int)
				}
				counts[keys[i]][v]++
			}
		}
		modes := make(map[string]string, len(counts))
		for k, c := range counts {
			modes[k] = modeOf(c)
		}
		for i := range col.Strings {
			if col.Null[i] {
				if m, ok := modes[keys[i]]; ok {
					col.Strings[i] = m
					col.Null[i] = false
					grouped++
				}
			}
		}
	}
	fallback := 0
	global, ok := col.Mode()
	if !ok {
		global = policy.Sentinel
		if global == "" {
			global = taxonomy.SentinelUnknown
		}
	}
	for i := range col.Strings {
		if col.Null[i] {
			col.Strings[i] = global
			col.Null[i] = false
			fallback++
		}
	}
	return grouped, fallback
}

// modeOf returns the most frequent key with a lexical tie-break, matching
// Column.Mode so grouped and global fills stay deterministic.
func modeOf(counts map[string]int) string {
	best, bestCount := "", -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// groupKeys renders the group column as string keys, "" for missing rows so
// they never form a group of their own.
func groupKeys(f *frame.Frame, name string) []string {
	col := f.Column(name)
	keys := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		if col.Kind == frame.Numeric {
			keys[i] = strconv.FormatFloat(col.Floats[i], 'g', -1, 64)
		} else {
			keys[i] = col.Strings[i]
		}
	}
	return keys
}
