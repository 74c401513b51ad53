// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"fmt"

	"github.com/tomtom215/homeval/internal/logging"
)

// Log is the ordered processing log the pipeline emits alongside its output.
// Every fill, collapse, and removal is recorded with counts so a run can be
// audited after the fact. Entries are mirrored to the structured logger as
// they are appended; the in-memory copy goes into the run report.
type Log struct {
	entries  []string
	warnings int
}

// NewLog returns an empty processing log.
func NewLog() *Log {
	return &Log{}
}

// Infof records an informational entry.
func (l *Log) Infof(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, msg)
	logging.Info().Str("component", "pipeline").Msg(msg)
}

// Warnf records a warning entry. Warnings never abort a run; they flag
// skipped features and degraded fills.
func (l *Log) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, "warn: "+msg)
	l.warnings++
	logging.Warn().Str("component", "pipeline").Msg(msg)
}

// Entries returns the recorded entries in append order.
func (l *Log) Entries() []string {
	return append([]string(nil), l.entries...)
}

// Warnings returns the number of warning entries recorded.
func (l *Log) Warnings() int { return l.warnings }
