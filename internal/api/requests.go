// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homeval/internal/serve"
)

// maxBodyBytes bounds request bodies; estimation payloads are small.
const maxBodyBytes = 1 << 20

// EstimateRequest is the structured estimation payload. All fields are
// optional; absent numerics fall back to serving defaults and absent
// categoricals to the fill sentinels, so a sparse listing still yields
// an estimate.
type EstimateRequest struct {
	Area       *float64 `json:"area" validate:"omitempty,gt=0,lte=100000"`
	Bedrooms   *float64 `json:"bedrooms" validate:"omitempty,gte=0,lte=200"`
	Bathrooms  *float64 `json:"bathrooms" validate:"omitempty,gte=0,lte=200"`
	Floors     *float64 `json:"floors" validate:"omitempty,gte=0,lte=200"`
	Frontage   *float64 `json:"frontage" validate:"omitempty,gte=0,lte=1000"`
	AccessRoad *float64 `json:"access_road" validate:"omitempty,gte=0,lte=1000"`

	Direction        string `json:"direction" validate:"max=64"`
	BalconyDirection string `json:"balcony_direction" validate:"max=64"`
	LegalStatus      string `json:"legal_status" validate:"max=64"`
	Furniture        string `json:"furniture" validate:"max=64"`
	City             string `json:"city" validate:"max=128"`
	District         string `json:"district" validate:"max=128"`
	Ward             string `json:"ward" validate:"max=128"`
}

// Input converts the request to the preprocessor's input type.
func (req *EstimateRequest) Input() serve.Input {
	return serve.Input{
		Area:             req.Area,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		Floors:           req.Floors,
		Frontage:         req.Frontage,
		AccessRoad:       req.AccessRoad,
		Direction:        req.Direction,
		BalconyDirection: req.BalconyDirection,
		LegalStatus:      req.LegalStatus,
		Furniture:        req.Furniture,
		City:             req.City,
		District:         req.District,
		Ward:             req.Ward,
	}
}

// EstimateTextRequest carries a free-text property description for the
// LLM-backed parse path.
type EstimateTextRequest struct {
	Description string `json:"description" validate:"required,min=3,max=4000"`
}

// decodeJSON reads and decodes a JSON request body with a size cap.
// Unknown fields are rejected so typos in field names surface as errors
// instead of silently falling back to defaults.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// validationDetails flattens validator errors into a field -> constraint
// map suitable for the error envelope.
func validationDetails(err error) map[string]string {
	details := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return details
}
