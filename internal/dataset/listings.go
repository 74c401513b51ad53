// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/homeval/internal/frame"
	"github.com/tomtom215/homeval/internal/metrics"
	"github.com/tomtom215/homeval/internal/taxonomy"
)

// listingColumns maps raw frame columns to listings table columns, in
// insert order. The raw names match the scraped CSV header verbatim.
var listingColumns = []struct {
	raw     string
	sql     string
	numeric bool
}{
	{taxonomy.ColArea, "area", true},
	{taxonomy.ColFrontage, "frontage", true},
	{taxonomy.ColAccessRoad, "access_road", true},
	{taxonomy.ColFloors, "floors", true},
	{taxonomy.ColBedrooms, "bedrooms", true},
	{taxonomy.ColBathrooms, "bathrooms", true},
	{taxonomy.ColHouseDirection, "house_direction", false},
	{taxonomy.ColBalconyDirection, "balcony_direction", false},
	{taxonomy.ColLegalStatus, "legal_status", false},
	{taxonomy.ColFurnitureState, "furniture_state", false},
	{taxonomy.ColAddress, "address", false},
	{taxonomy.ColPrice, "price", true},
}

// IngestListings inserts every row of a raw frame into the listings
// table. Missing values become SQL NULLs. Absent frame columns insert as
// all-NULL, matching the pipeline's tolerance for schema drift. Returns
// the number of rows inserted.
func (db *DB) IngestListings(ctx context.Context, f *frame.Frame) (int, error) {
	start := time.Now()
	n, err := db.ingestListings(ctx, f)
	metrics.RecordDBQuery("insert", "listings", time.Since(start), err)
	return n, err
}

func (db *DB) ingestListings(ctx context.Context, f *frame.Frame) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO listings (
		id, area, frontage, access_road, floors, bedrooms, bathrooms,
		house_direction, balcony_direction, legal_status, furniture_state,
		address, price, ingested_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare ingest: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := 0; i < f.Rows(); i++ {
		args := make([]interface{}, 0, len(listingColumns)+2)
		args = append(args, uuid.New().String())
		for _, lc := range listingColumns {
			args = append(args, listingValue(f.Column(lc.raw), i, lc.numeric))
		}
		args = append(args, now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert listing row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}
	return f.Rows(), nil
}

// listingValue converts one frame cell to a driver value, or nil when
// missing.
func listingValue(col *frame.Column, i int, numeric bool) interface{} {
	if col == nil || col.IsMissing(i) {
		return nil
	}
	if numeric {
		return col.Floats[i]
	}
	return col.Strings[i]
}

// CountListings returns the number of stored listings.
func (db *DB) CountListings(ctx context.Context) (int, error) {
	start := time.Now()
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	metrics.RecordDBQuery("select", "listings", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// LoadListings reads all stored listings back into a raw frame with the
// original CSV column names, ready for a pipeline run. SQL NULLs become
// NaN or null-masked entries.
func (db *DB) LoadListings(ctx context.Context) (*frame.Frame, error) {
	start := time.Now()
	f, err := db.loadListings(ctx)
	metrics.RecordDBQuery("select", "listings", time.Since(start), err)
	return f, err
}

func (db *DB) loadListings(ctx context.Context) (*frame.Frame, error) {
	query := `SELECT area, frontage, access_road, floors, bedrooms, bathrooms,
		house_direction, balcony_direction, legal_status, furniture_state,
		address, price
	FROM listings ORDER BY ingested_at, id`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	floats := make(map[string][]float64)
	strs := make(map[string][]string)
	nulls := make(map[string][]bool)
	count := 0

	for rows.Next() {
		dest := make([]interface{}, len(listingColumns))
		numerics := make([]sql.NullFloat64, len(listingColumns))
		texts := make([]sql.NullString, len(listingColumns))
		for j, lc := range listingColumns {
			if lc.numeric {
				dest[j] = &numerics[j]
			} else {
				dest[j] = &texts[j]
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}

		for j, lc := range listingColumns {
			if lc.numeric {
				v := math.NaN()
				if numerics[j].Valid {
					v = numerics[j].Float64
				}
				floats[lc.raw] = append(floats[lc.raw], v)
			} else {
				strs[lc.raw] = append(strs[lc.raw], texts[j].String)
				nulls[lc.raw] = append(nulls[lc.raw], !texts[j].Valid)
			}
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	f := frame.New(count)
	for _, lc := range listingColumns {
		if lc.numeric {
			if err := f.AddNumeric(lc.raw, floats[lc.raw]); err != nil {
				return nil, err
			}
		} else {
			if err := f.AddString(lc.raw, strs[lc.raw], nulls[lc.raw]); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
