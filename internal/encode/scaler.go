// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package encode

import (
	"fmt"
	"math"

	"github.com/tomtom215/homeval/internal/frame"
)

// StandardScaler standardizes a fixed set of numeric columns to zero mean
// and unit variance. Like the encoders it is fitted once on the training
// partition and frozen; tree models do not need it, so the pipeline only
// enables it for the interaction columns when regularized linear variants
// are trained downstream.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
}

// FitScaler computes column means and standard deviations from the given
// frame. Call with the training partition only.
func FitScaler(f *frame.Frame, columns []string) (*StandardScaler, error) {
	s := &StandardScaler{
		Columns: append([]string(nil), columns...),
		Means:   make([]float64, len(columns)),
		Stds:    make([]float64, len(columns)),
	}
	for i, name := range columns {
		col := f.Column(name)
		if col == nil || col.Kind != frame.Numeric {
			return nil, fmt.Errorf("fit scaler: missing numeric column %q", name)
		}
		s.Means[i] = col.Mean()
		std := col.Std()
		if math.IsNaN(std) || std == 0 {
			std = 1 // constant column scales to zero offset
		}
		s.Stds[i] = std
	}
	return s, nil
}

// Transform standardizes the scaler's columns in place using the frozen
// means and deviations.
func (s *StandardScaler) Transform(f *frame.Frame) error {
	for i, name := range s.Columns {
		col := f.Column(name)
		if col == nil || col.Kind != frame.Numeric {
			return fmt.Errorf("scaler transform: missing numeric column %q", name)
		}
		scaled := make([]float64, len(col.Floats))
		for j, v := range col.Floats {
			scaled[j] = (v - s.Means[i]) / s.Stds[i]
		}
		if err := f.AddNumeric(name, scaled); err != nil {
			return err
		}
	}
	return nil
}
