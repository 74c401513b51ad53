// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package encode provides the categorical encoders used by the feature
// pipeline: integer label encoding for tree models and one-hot expansion for
// linear models.
//
// Every encoder is fitted exactly once, on the training partition, and is
// immutable afterwards. Transforming a value never mutates an encoder; a
// value outside the frozen vocabulary maps to the reserved out-of-vocabulary
// code. This fit-once property is the single most important correctness
// guarantee of the whole pipeline — its violation is a silent leakage bug,
// not a crash.
package encode

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homeval/internal/frame"
)

// OOV is the reserved code for categories never seen during fit. Tree
// models treat it as an ordinary split value.
const OOV = -1

// LabelEncoder maps category strings to integer codes. Codes are assigned
// by sorted class order so repeated fits on the same data are identical.
type LabelEncoder struct {
	Column  string   `json:"column"`
	Classes []string `json:"classes"`

	index map[string]int
}

// FitLabel builds an encoder from the distinct values in the given slice.
// Call with training-partition values only.
func FitLabel(column string, values []string) *LabelEncoder {
	seen := make(map[string]struct{})
	for _, v := range values {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	e := &LabelEncoder{Column: column, Classes: classes}
	e.rebuild()
	return e
}

func (e *LabelEncoder) rebuild() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Code returns the frozen integer code for a value, or OOV for values
// outside the fitted vocabulary. Never mutates the encoder.
func (e *LabelEncoder) Code(value string) int {
	if e.index == nil {
		e.rebuild()
	}
	if code, ok := e.index[value]; ok {
		return code
	}
	return OOV
}

// Known reports whether a value is inside the fitted vocabulary.
func (e *LabelEncoder) Known(value string) bool {
	return e.Code(value) != OOV
}

// Transform replaces a string column with its integer codes in place,
// returning the number of out-of-vocabulary entries encountered. Missing
// entries also code to OOV.
func (e *LabelEncoder) Transform(f *frame.Frame) (int, error) {
	col := f.Column(e.Column)
	if col == nil {
		return 0, fmt.Errorf("label transform: column %q not in frame", e.Column)
	}
	if col.Kind != frame.String {
		return 0, fmt.Errorf("label transform: column %q is not a string column", e.Column)
	}

	codes := make([]float64, f.Rows())
	oov := 0
	for i, v := range col.Strings {
		if col.Null[i] {
			codes[i] = OOV
			oov++
			continue
		}
		code := e.Code(v)
		if code == OOV {
			oov++
		}
		codes[i] = float64(code)
	}
	return oov, f.AddNumeric(e.Column, codes)
}

// UnmarshalJSON restores the encoder and rebuilds its internal index, so a
// loaded artifact is ready to transform immediately.
func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	type alias LabelEncoder
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	e.Column = a.Column
	e.Classes = a.Classes
	e.rebuild()
	return nil
}
