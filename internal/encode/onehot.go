// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package encode

import (
	"fmt"
	"sort"

	"github.com/tomtom215/homeval/internal/frame"
)

// OneHotEncoder expands a low-cardinality categorical column into indicator
// columns, one per training-set category. Test frames are reindexed to the
// training column set: a category unseen at fit time produces all-zero
// indicators, and indicator columns are never invented at transform time.
type OneHotEncoder struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// FitOneHot builds a one-hot vocabulary from the distinct values in the
// given slice. Call with training-partition values only.
func FitOneHot(column string, values []string) *OneHotEncoder {
	seen := make(map[string]struct{})
	for _, v := range values {
		seen[v] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return &OneHotEncoder{Column: column, Categories: cats}
}

// ColumnNames returns the indicator column names in fixed order, prefixed
// by the source column name.
func (e *OneHotEncoder) ColumnNames() []string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = e.Column + "_" + c
	}
	return names
}

// Transform replaces the source column with its indicator columns in place.
// Missing and out-of-vocabulary entries yield an all-zero row.
func (e *OneHotEncoder) Transform(f *frame.Frame) error {
	col := f.Column(e.Column)
	if col == nil {
		return fmt.Errorf("one-hot transform: column %q not in frame", e.Column)
	}
	if col.Kind != frame.String {
		return fmt.Errorf("one-hot transform: column %q is not a string column", e.Column)
	}

	indicators := make(map[string][]float64, len(e.Categories))
	for _, cat := range e.Categories {
		indicators[cat] = make([]float64, f.Rows())
	}
	for i, v := range col.Strings {
		if col.Null[i] {
			continue
		}
		if vals, ok := indicators[v]; ok {
			vals[i] = 1
		}
	}

	f.Drop(e.Column)
	for _, cat := range e.Categories {
		if err := f.AddNumeric(e.Column+"_"+cat, indicators[cat]); err != nil {
			return err
		}
	}
	return nil
}
