// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package frame implements the columnar working table threaded through the
// feature pipeline.
//
// A Frame holds named columns in a stable order. Numeric columns store
// float64 values with NaN marking missing entries; string columns carry an
// explicit null mask. Row count only changes through Filter, which callers
// are expected to log with counts (outlier and rare-category removal are the
// only stages allowed to shrink a frame).
package frame

import (
	"fmt"
	"math"
)

// Kind describes the storage type of a column.
type Kind int

const (
	// Numeric columns store float64 values; NaN marks a missing entry.
	Numeric Kind = iota
	// String columns store text values with an explicit null mask.
	String
)

// Column is a single named column. Exactly one of Floats or Strings is
// populated, according to Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Null    []bool // string columns only; true = missing
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsMissing reports whether row i holds a missing value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Null[i]
}

// MissingCount returns the number of missing entries.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// MissingRatio returns the fraction of missing entries, 0 for empty columns.
func (c *Column) MissingRatio() float64 {
	if c.Len() == 0 {
		return 0
	}
	return float64(c.MissingCount()) / float64(c.Len())
}

// clone returns a deep copy of the column.
func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Strings != nil {
		out.Strings = append([]string(nil), c.Strings...)
	}
	if c.Null != nil {
		out.Null = append([]bool(nil), c.Null...)
	}
	return out
}

// Frame is an ordered collection of equal-length columns.
type Frame struct {
	names []string
	cols  map[string]*Column
	rows  int
}

// New creates an empty frame expecting the given row count.
func New(rows int) *Frame {
	return &Frame{cols: make(map[string]*Column), rows: rows}
}

// Rows returns the row count.
func (f *Frame) Rows() int { return f.rows }

// Names returns column names in insertion order. The returned slice is a
// copy and safe to mutate.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the named column, or nil if absent.
func (f *Frame) Column(name string) *Column {
	return f.cols[name]
}

// AddNumeric appends a numeric column. Replaces any existing column of the
// same name in place, preserving column order.
func (f *Frame) AddNumeric(name string, values []float64) error {
	if len(values) != f.rows {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), f.rows)
	}
	f.put(&Column{Name: name, Kind: Numeric, Floats: values})
	return nil
}

// AddString appends a string column with an optional null mask. A nil mask
// means no entries are missing.
func (f *Frame) AddString(name string, values []string, null []bool) error {
	if len(values) != f.rows {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), f.rows)
	}
	if null == nil {
		null = make([]bool, f.rows)
	}
	if len(null) != f.rows {
		return fmt.Errorf("column %q: %d null flags for %d rows", name, len(null), f.rows)
	}
	f.put(&Column{Name: name, Kind: String, Strings: values, Null: null})
	return nil
}

func (f *Frame) put(col *Column) {
	if _, exists := f.cols[col.Name]; !exists {
		f.names = append(f.names, col.Name)
	}
	f.cols[col.Name] = col
}

// Drop removes columns by name. Unknown names are ignored.
func (f *Frame) Drop(names ...string) {
	for _, name := range names {
		if _, ok := f.cols[name]; !ok {
			continue
		}
		delete(f.cols, name)
		for i, n := range f.names {
			if n == name {
				f.names = append(f.names[:i], f.names[i+1:]...)
				break
			}
		}
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.rows)
	for _, name := range f.names {
		out.put(f.cols[name].clone())
	}
	return out
}

// Filter returns a new frame with only the rows where mask is true.
// This is the only operation that changes row count.
func (f *Frame) Filter(mask []bool) (*Frame, error) {
	if len(mask) != f.rows {
		return nil, fmt.Errorf("mask length %d for %d rows", len(mask), f.rows)
	}
	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}
	out := New(kept)
	for _, name := range f.names {
		src := f.cols[name]
		dst := &Column{Name: name, Kind: src.Kind}
		if src.Kind == Numeric {
			dst.Floats = make([]float64, 0, kept)
			for i, keep := range mask {
				if keep {
					dst.Floats = append(dst.Floats, src.Floats[i])
				}
			}
		} else {
			dst.Strings = make([]string, 0, kept)
			dst.Null = make([]bool, 0, kept)
			for i, keep := range mask {
				if keep {
					dst.Strings = append(dst.Strings, src.Strings[i])
					dst.Null = append(dst.Null, src.Null[i])
				}
			}
		}
		out.put(dst)
	}
	return out, nil
}

// Select returns a new frame containing only the named columns, in the given
// order. Unknown names are an error so a schema drift is caught, not hidden.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := New(f.rows)
	for _, name := range names {
		col, ok := f.cols[name]
		if !ok {
			return nil, fmt.Errorf("select: unknown column %q", name)
		}
		out.put(col.clone())
	}
	return out, nil
}

// MissingTotal returns the total number of missing entries across all columns.
func (f *Frame) MissingTotal() int {
	n := 0
	for _, name := range f.names {
		n += f.cols[name].MissingCount()
	}
	return n
}
