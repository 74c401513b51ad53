// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package serve

// Input is one estimation request. Every field is optional: numeric fields
// use pointers so "absent" and "zero" stay distinguishable, and absent fields
// take the documented serving defaults instead of blocking the request.
type Input struct {
	Area       *float64 `json:"area,omitempty"`
	Bedrooms   *float64 `json:"bedrooms,omitempty"`
	Bathrooms  *float64 `json:"bathrooms,omitempty"`
	Floors     *float64 `json:"floors,omitempty"`
	Frontage   *float64 `json:"frontage,omitempty"`
	AccessRoad *float64 `json:"access_road,omitempty"`

	Direction        string `json:"direction,omitempty"`
	BalconyDirection string `json:"balcony_direction,omitempty"`
	LegalStatus      string `json:"legal_status,omitempty"`
	Furniture        string `json:"furniture,omitempty"`

	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Ward     string `json:"ward,omitempty"`
}

// Serving defaults for absent numeric fields, chosen near the training
// medians so a sparse request still lands in a plausible region.
const (
	defaultArea      = 70.0
	defaultBedrooms  = 2.0
	defaultBathrooms = 2.0
	defaultFloors    = 1.0
)

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
