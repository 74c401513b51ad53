// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package artifact persists the frozen fit products the serving path depends
// on: the feature order, label encoders, district location stats, and the
// optional scaler. A bundle is written once by a pipeline run and read back
// at service startup; nothing mutates it afterwards.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/homeval/internal/encode"
	"github.com/tomtom215/homeval/internal/location"
)

// Version is bumped whenever the bundle layout changes incompatibly.
const Version = 1

// ErrLoad wraps any failure to read or decode a persisted bundle. Callers
// treat it as "serve degraded", not as fatal.
var ErrLoad = errors.New("artifact load failed")

// Bundle is the complete set of frozen fit products from one pipeline run.
type Bundle struct {
	Version      int                              `json:"version"`
	CreatedAt    time.Time                        `json:"created_at"`
	FeatureOrder []string                         `json:"feature_order"`
	Encoders     map[string]*encode.LabelEncoder  `json:"encoders"`
	OneHot       map[string]*encode.OneHotEncoder `json:"one_hot,omitempty"`
	Location     *location.StatsTable             `json:"location"`
	Scaler       *encode.StandardScaler           `json:"scaler,omitempty"`
}

// Validate checks the invariants a loaded bundle must satisfy before the
// preprocessor will trust it.
func (b *Bundle) Validate() error {
	if b.Version != Version {
		return fmt.Errorf("bundle version %d, want %d", b.Version, Version)
	}
	if len(b.FeatureOrder) == 0 {
		return errors.New("bundle has an empty feature order")
	}
	if len(b.Encoders) == 0 {
		return errors.New("bundle has no encoders")
	}
	if b.Location == nil {
		return errors.New("bundle has no location stats")
	}
	return nil
}

// Encoder returns the frozen label encoder for a column, or nil when the
// column was not label-encoded.
func (b *Bundle) Encoder(column string) *encode.LabelEncoder {
	return b.Encoders[column]
}

// Save writes the bundle to path atomically (temp file plus rename), so a
// crashed run never leaves a truncated artifact behind.
func Save(path string, b *Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Load reads and validates a bundle. Every failure path wraps ErrLoad so the
// caller can switch to degraded defaults with a single errors.Is check.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrLoad, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return &b, nil
}
