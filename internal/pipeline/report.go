// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Report summarizes one pipeline run for operators: row accounting, removal
// counts, encoder coverage, and the full ordered processing log.
type Report struct {
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Config          Config    `json:"config"`

	RowsIn       int `json:"rows_in"`
	RowsTrain    int `json:"rows_train"`
	RowsTest     int `json:"rows_test"`
	FeatureCount int `json:"feature_count"`

	OutliersRemoved      int `json:"outliers_removed"`
	RareCityRowsRemoved  int `json:"rare_city_rows_removed"`
	MissingTargetRemoved int `json:"missing_target_removed"`
	DistrictsFitted      int `json:"districts_fitted"`

	OOVCounts map[string]int `json:"oov_counts,omitempty"`
	Warnings  int            `json:"warnings"`
	Entries   []string       `json:"entries"`
}

// Summary renders a short human-readable digest, one line per fact.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d in, %d train, %d test\n", r.RowsIn, r.RowsTrain, r.RowsTest)
	fmt.Fprintf(&b, "features: %d\n", r.FeatureCount)
	fmt.Fprintf(&b, "removed: %d outliers, %d rare-city rows, %d without target\n",
		r.OutliersRemoved, r.RareCityRowsRemoved, r.MissingTargetRemoved)
	fmt.Fprintf(&b, "districts fitted: %d\n", r.DistrictsFitted)
	if len(r.OOVCounts) > 0 {
		fmt.Fprintf(&b, "out-of-vocabulary test values: %v\n", r.OOVCounts)
	}
	fmt.Fprintf(&b, "warnings: %d, duration: %.2fs", r.Warnings, r.DurationSeconds)
	return b.String()
}
