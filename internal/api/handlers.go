// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/homeval/internal/llmparse"
	"github.com/tomtom215/homeval/internal/logging"
	"github.com/tomtom215/homeval/internal/metrics"
	"github.com/tomtom215/homeval/internal/serve"
)

// PreprocessorSource yields the current preprocessor. The artifact reload
// service swaps preprocessors at runtime, so handlers fetch a fresh one
// per request instead of holding a reference.
type PreprocessorSource interface {
	Preprocessor() *serve.Preprocessor
}

// StaticSource is a PreprocessorSource that always returns the same
// preprocessor. Used when artifact reloading is disabled and in tests.
type StaticSource struct {
	P *serve.Preprocessor
}

// Preprocessor implements PreprocessorSource.
func (s StaticSource) Preprocessor() *serve.Preprocessor { return s.P }

// TextParser extracts a structured estimation input from free text.
// Satisfied by the LLM parse client.
type TextParser interface {
	Parse(ctx context.Context, description string) (*serve.Input, error)
}

// Handler holds dependencies for all estimation endpoints.
type Handler struct {
	source    PreprocessorSource
	predictor serve.Predictor
	parser    TextParser // nil when the natural-language endpoint is disabled
	validate  *validator.Validate
	started   time.Time
}

// NewHandler creates a handler. parser may be nil, in which case the
// free-text endpoint reports service unavailable.
func NewHandler(source PreprocessorSource, predictor serve.Predictor, parser TextParser) *Handler {
	return &Handler{
		source:    source,
		predictor: predictor,
		parser:    parser,
		validate:  validator.New(),
		started:   time.Now(),
	}
}

// EstimateResponse is the payload for both estimate endpoints.
type EstimateResponse struct {
	// PriceBillionVND is the estimated price in billions of VND.
	PriceBillionVND float64 `json:"price_billion_vnd"`

	// PriceFormatted is the price rendered in Vietnamese convention,
	// e.g. "5.20 tỷ VND".
	PriceFormatted string `json:"price_formatted"`

	// Model names the predictor that produced the estimate.
	Model string `json:"model"`

	// Degraded is true when the server is running without a fitted
	// artifact bundle and estimates use static fallback encodings.
	Degraded bool `json:"degraded"`

	// ParsedInput echoes the structured input recovered from free text.
	// Only set on the text endpoint.
	ParsedInput *serve.Input `json:"parsed_input,omitempty"`
}

// Estimate handles POST /api/v1/estimate with a structured payload.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req EstimateRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		rw.ValidationError("Request validation failed", validationDetails(err))
		return
	}

	resp := h.estimate(r.Context(), req.Input())
	rw.Success(resp)
}

// EstimateText handles POST /api/v1/estimate/text: a free-text Vietnamese
// property description parsed by the LLM into structured input.
func (h *Handler) EstimateText(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.parser == nil {
		rw.ServiceUnavailable("Natural-language estimation is not enabled")
		return
	}

	var req EstimateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		rw.ValidationError("Request validation failed", validationDetails(err))
		return
	}

	in, err := h.parser.Parse(r.Context(), req.Description)
	if err != nil {
		if errors.Is(err, llmparse.ErrUnavailable) {
			rw.ServiceUnavailable("Description parser is temporarily unavailable")
			return
		}
		rw.ExternalServiceError("llm", err)
		return
	}

	resp := h.estimate(r.Context(), *in)
	resp.ParsedInput = in
	rw.Success(resp)
}

// estimate runs the serve-path preprocessing and prediction.
func (h *Handler) estimate(ctx context.Context, in serve.Input) EstimateResponse {
	pre := h.source.Preprocessor()

	start := time.Now()
	vector := pre.Preprocess(in)
	price, err := h.predictor.Predict(vector)
	if err != nil {
		// Length mismatches mean artifact and predictor disagree;
		// fall back to zero rather than failing the request.
		logger := logging.Ctx(ctx)
		logger.Error().Err(err).Msg("prediction failed")
		price = 0
	}
	metrics.RecordPrediction(h.predictor.Name(), pre.Degraded(), price, time.Since(start))

	return EstimateResponse{
		PriceBillionVND: price,
		PriceFormatted:  serve.FormatPrice(price),
		Model:           h.predictor.Name(),
		Degraded:        pre.Degraded(),
	}
}

// FeaturesResponse lists the model's feature vector layout.
type FeaturesResponse struct {
	Count       int                `json:"count"`
	Features    []string           `json:"features"`
	Importances map[string]float64 `json:"importances,omitempty"`
}

// Features handles GET /api/v1/features, exposing the canonical feature
// order the serve path produces and the predictor's attributed weights.
func (h *Handler) Features(w http.ResponseWriter, r *http.Request) {
	order := h.source.Preprocessor().FeatureOrder()
	NewResponseWriter(w, r).Success(FeaturesResponse{
		Count:       len(order),
		Features:    order,
		Importances: h.predictor.FeatureImportance(),
	})
}

// HealthResponse reports server readiness and artifact state.
type HealthResponse struct {
	Status        string  `json:"status"`
	Degraded      bool    `json:"degraded"`
	Model         string  `json:"model"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health. Degraded mode is reported but still
// returns 200: the server answers estimates, just with fallback encodings.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	degraded := h.source.Preprocessor().Degraded()
	status := "ok"
	if degraded {
		status = "degraded"
	}
	NewResponseWriter(w, r).Success(HealthResponse{
		Status:        status,
		Degraded:      degraded,
		Model:         h.predictor.Name(),
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

// HealthLive handles GET /api/v1/health/live for liveness probes.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// HealthReady handles GET /api/v1/health/ready. Unlike Health, readiness
// fails in degraded mode so orchestrators keep routing to replicas that
// have a fitted bundle.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.source.Preprocessor().Degraded() {
		NewResponseWriter(w, r).ServiceUnavailable("Serving with fallback encodings, no artifact bundle loaded")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ArtifactsResponse describes the loaded artifact bundle.
type ArtifactsResponse struct {
	Degraded     bool       `json:"degraded"`
	Version      int        `json:"version,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	FeatureCount int        `json:"feature_count"`
	EncoderCount int        `json:"encoder_count"`
	Scaled       bool       `json:"scaled"`
}

// Artifacts handles GET /api/v1/artifacts, reporting which fitted state the
// serve path is currently using.
func (h *Handler) Artifacts(w http.ResponseWriter, r *http.Request) {
	pre := h.source.Preprocessor()
	resp := ArtifactsResponse{
		Degraded:     pre.Degraded(),
		FeatureCount: len(pre.FeatureOrder()),
	}
	if b := pre.Bundle(); b != nil {
		resp.Version = b.Version
		created := b.CreatedAt
		resp.CreatedAt = &created
		resp.EncoderCount = len(b.Encoders)
		resp.Scaled = b.Scaler != nil
	}
	NewResponseWriter(w, r).Success(resp)
}
