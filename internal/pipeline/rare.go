// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"fmt"

	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// GroupRare rewrites category values with fewer than minCount occurrences to
// the "Other" sentinel. Row count is unchanged; cardinality drops. Returns
// the number of collapsed categories.
func GroupRare(f *frame.Frame, column string, minCount int, plog *Log) (int, error) {
	col := f.Column(column)
	if col == nil || col.Kind != frame.String {
		return 0, fmt.Errorf("group rare: %q is not a string column", column)
	}
	counts := col.ValueCounts()
	rare := make(map[string]bool)
	rewritten := 0
	for v, n := range counts {
		if n < minCount {
			rare[v] = true
			rewritten += n
		}
	}
	if len(rare) == 0 {
		return 0, nil
	}
	for i, v := range col.Strings {
		if !col.Null[i] && rare[v] {
			col.Strings[i] = taxonomy.SentinelRareOther
		}
	}
	plog.Infof("column %q: collapsed %d rare categories (%d rows) below %d samples into %q",
		column, len(rare), rewritten, minCount, taxonomy.SentinelRareOther)
	return len(rare), nil
}

// RemoveRare drops the rows whose category value has fewer than minCount
// occurrences. Used for near-singleton levels where even an "Other" bucket
// would be noise. Returns the filtered frame and the number of removed rows.
func RemoveRare(f *frame.Frame, column string, minCount int, plog *Log) (*frame.Frame, int, error) {
	col := f.Column(column)
	if col == nil || col.Kind != frame.String {
		return nil, 0, fmt.Errorf("remove rare: %q is not a string column", column)
	}
	counts := col.ValueCounts()
	mask := make([]bool, col.Len())
	removed := 0
	for i, v := range col.Strings {
		keep := col.Null[i] || counts[v] >= minCount
		mask[i] = keep
		if !keep {
			removed++
		}
	}
	if removed == 0 {
		return f, 0, nil
	}
	out, err := f.Filter(mask)
	if err != nil {
		return nil, 0, err
	}
	plog.Infof("column %q: removed %d rows in categories below %d samples", column, removed, minCount)
	return out, removed, nil
}
