// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package serve

import "strings"

// Canonical categorical labels as they appear in the scraped dataset. User
// input is normalized to these before hitting the frozen encoders, so spelling
// and diacritic variants encode to the same code as the training rows.
const (
	DirectionEast      = "Đông"
	DirectionWest      = "Tây"
	DirectionSouth     = "Nam"
	DirectionNorth     = "Bắc"
	DirectionSouthEast = "Đông - Nam"
	DirectionNorthEast = "Đông - Bắc"
	DirectionSouthWest = "Tây - Nam"
	DirectionNorthWest = "Tây - Bắc"

	LegalRedBook  = "Sổ đỏ"
	LegalPinkBook = "Sổ hồng"
	LegalContract = "Hợp đồng"
	LegalPending  = "Đang chờ sổ"
	LegalUnknown  = "Không rõ"

	FurniturePremium = "Cao cấp"
	FurnitureFull    = "Đầy đủ"
	FurnitureBasic   = "Cơ bản"
	FurnitureNone    = "Không nội thất"
	FurnitureUnknown = "Không rõ"
)

var directionSynonyms = map[string]string{
	"đông": DirectionEast, "dong": DirectionEast, "east": DirectionEast, "e": DirectionEast,
	"tây": DirectionWest, "tay": DirectionWest, "west": DirectionWest, "w": DirectionWest,
	"nam": DirectionSouth, "south": DirectionSouth, "s": DirectionSouth,
	"bắc": DirectionNorth, "bac": DirectionNorth, "north": DirectionNorth, "n": DirectionNorth,
	"đông nam": DirectionSouthEast, "dong nam": DirectionSouthEast,
	"đông - nam": DirectionSouthEast, "southeast": DirectionSouthEast, "se": DirectionSouthEast,
	"đông bắc": DirectionNorthEast, "dong bac": DirectionNorthEast,
	"đông - bắc": DirectionNorthEast, "northeast": DirectionNorthEast, "ne": DirectionNorthEast,
	"tây nam": DirectionSouthWest, "tay nam": DirectionSouthWest,
	"tây - nam": DirectionSouthWest, "southwest": DirectionSouthWest, "sw": DirectionSouthWest,
	"tây bắc": DirectionNorthWest, "tay bac": DirectionNorthWest,
	"tây - bắc": DirectionNorthWest, "northwest": DirectionNorthWest, "nw": DirectionNorthWest,
}

var legalSynonyms = map[string]string{
	"sổ đỏ": LegalRedBook, "so do": LegalRedBook,
	"sổ hồng": LegalPinkBook, "so hong": LegalPinkBook,
	"hợp đồng": LegalContract, "hop dong": LegalContract,
	"đang chờ sổ": LegalPending, "dang cho so": LegalPending,
	"không rõ": LegalUnknown, "khong ro": LegalUnknown,
}

var furnitureSynonyms = map[string]string{
	"cao cấp": FurniturePremium, "cao cap": FurniturePremium, "full": FurniturePremium,
	"đầy đủ": FurnitureFull, "day du": FurnitureFull,
	"cơ bản": FurnitureBasic, "co ban": FurnitureBasic, "basic": FurnitureBasic,
	"không nội thất": FurnitureNone, "khong noi that": FurnitureNone,
	"none": FurnitureNone, "trống": FurnitureNone,
	"không rõ": FurnitureUnknown, "khong ro": FurnitureUnknown,
}

// Static code tables for degraded mode, when no artifact bundle could be
// loaded. They reproduce the historical fixed encoding so the service still
// answers with a best-effort estimate.
var (
	fallbackDirectionCodes = map[string]float64{
		DirectionEast: 0, DirectionWest: 1, DirectionSouth: 2, DirectionNorth: 3,
		DirectionSouthEast: 4, DirectionNorthEast: 5, DirectionSouthWest: 6, DirectionNorthWest: 7,
	}
	fallbackLegalCodes = map[string]float64{
		LegalRedBook: 0, LegalPinkBook: 1, LegalContract: 2, LegalPending: 3, LegalUnknown: 4,
	}
	fallbackFurnitureCodes = map[string]float64{
		FurniturePremium: 0, FurnitureFull: 1, FurnitureBasic: 2, FurnitureNone: 3, FurnitureUnknown: 4,
	}
)

// Degraded-mode defaults for unmapped input.
const (
	fallbackDirectionDefault = 1 // Tây
	fallbackLegalDefault     = 0 // Sổ đỏ
	fallbackFurnitureDefault = 1 // Đầy đủ
)

func normalize(table map[string]string, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := table[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// NormalizeDirection maps a direction variant to its canonical label.
// Unmapped input passes through trimmed; empty input stays empty.
func NormalizeDirection(value string) string {
	return normalize(directionSynonyms, value)
}

// NormalizeLegalStatus maps a legal-status variant to its canonical label.
func NormalizeLegalStatus(value string) string {
	return normalize(legalSynonyms, value)
}

// NormalizeFurniture maps a furniture-state variant to its canonical label.
func NormalizeFurniture(value string) string {
	return normalize(furnitureSynonyms, value)
}
