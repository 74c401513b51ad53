// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import "errors"

// Fit-time contract violations. These abort the run: nothing fitted against a
// broken training partition is trustworthy downstream.
var (
	// ErrMissingTarget means the label column is absent from the input frame.
	ErrMissingTarget = errors.New("target column missing")

	// ErrEmptyTrain means the split produced a training partition with no rows.
	ErrEmptyTrain = errors.New("training partition is empty")

	// ErrSchemaMismatch means a column the feature schema requires is absent
	// after all stages ran. Fatal at fit time; the serve path defaults the
	// column to zero instead.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// IsFatal reports whether an error is one of the fit-time contract errors
// that must abort orchestration rather than degrade.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMissingTarget) ||
		errors.Is(err, ErrEmptyTrain) ||
		errors.Is(err, ErrSchemaMismatch)
}
