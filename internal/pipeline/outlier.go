// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"fmt"

	"github.com/tomtom215/homeval/internal/frame"
)

// IQRBounds returns the [Q1-k*IQR, Q3+k*IQR] fence for a numeric column.
func IQRBounds(col *frame.Column, multiplier float64) (lo, hi float64) {
	q1 := col.Quantile(0.25)
	q3 := col.Quantile(0.75)
	iqr := q3 - q1
	return q1 - multiplier*iqr, q3 + multiplier*iqr
}

// RemoveOutliers drops rows whose target value falls outside the IQR fence.
// Bounds come from the given frame's own target distribution, so this must
// run on the training partition only; test rows keep the real-world tail.
func RemoveOutliers(f *frame.Frame, target string, multiplier float64, plog *Log) (*frame.Frame, int, error) {
	col := f.Column(target)
	if col == nil || col.Kind != frame.Numeric {
		return nil, 0, fmt.Errorf("outlier filter: %q is not a numeric column", target)
	}
	lo, hi := IQRBounds(col, multiplier)
	mask := make([]bool, col.Len())
	removed := 0
	for i, v := range col.Floats {
		keep := !col.IsMissing(i) && v >= lo && v <= hi
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
	plog.Infof("outlier filter on %q: removed %d of %d rows outside [%.2f, %.2f]",
		target, removed, col.Len(), lo, hi)
	return out, removed, nil
}
