// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package serve

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPrice renders a price given in billions of VND the way Vietnamese
// listings write it: "6.55 tỷ VND" in the billions range, "950 triệu VND"
// below one billion.
func FormatPrice(billions float64) string {
	switch {
	case billions >= 10:
		return fmt.Sprintf("%.1f tỷ VND", billions)
	case billions >= 1:
		return fmt.Sprintf("%.2f tỷ VND", billions)
	default:
		return fmt.Sprintf("%.0f triệu VND", billions*1000)
	}
}

// ParsePrice reads a price string in common listing notations ("5.2 tỷ",
// "950 triệu", a bare number in VND) and returns VND. Unparseable input
// yields 0.
func ParsePrice(input string) float64 {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")

	type unit struct {
		suffixes []string
		scale    float64
	}
	units := []unit{
		{[]string{"tỷ", "ty"}, 1_000_000_000},
		{[]string{"triệu", "trieu", "tr"}, 1_000_000},
	}
	for _, u := range units {
		for _, suffix := range u.suffixes {
			if !strings.Contains(s, suffix) {
				continue
			}
			num := strings.TrimSpace(strings.ReplaceAll(s, suffix, ""))
			num = strings.TrimSuffix(strings.TrimSpace(num), "vnd")
			if v, err := strconv.ParseFloat(strings.TrimSpace(num), 64); err == nil {
				return v * u.scale
			}
			return 0
		}
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return 0
}
