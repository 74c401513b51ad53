// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadCSV parses a headered CSV stream into a frame. A column is numeric
// when every non-empty cell parses as a float; otherwise it is a string
// column. Empty cells become missing entries either way.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}

	f := New(len(records))
	for j, name := range header {
		name = strings.TrimSpace(name)
		cells := make([]string, len(records))
		numeric := true
		for i, rec := range records {
			cell := strings.TrimSpace(rec[j])
			cells[i] = cell
			if cell != "" {
				if _, perr := strconv.ParseFloat(cell, 64); perr != nil {
					numeric = false
				}
			}
		}
		if numeric {
			vals := make([]float64, len(cells))
			for i, cell := range cells {
				if cell == "" {
					vals[i] = math.NaN()
					continue
				}
				vals[i], _ = strconv.ParseFloat(cell, 64)
			}
			if err := f.AddNumeric(name, vals); err != nil {
				return nil, err
			}
		} else {
			null := make([]bool, len(cells))
			for i, cell := range cells {
				null[i] = cell == ""
			}
			if err := f.AddString(name, cells, null); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// WriteCSV writes the frame as headered CSV. Missing entries render as empty
// cells; numeric values use the shortest round-trip representation.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.names); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(f.names))
	for i := 0; i < f.rows; i++ {
		for j, name := range f.names {
			col := f.cols[name]
			if col.IsMissing(i) {
				row[j] = ""
				continue
			}
			if col.Kind == Numeric {
				row[j] = strconv.FormatFloat(col.Floats[i], 'g', -1, 64)
			} else {
				row[j] = col.Strings[i]
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
