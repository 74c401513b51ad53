// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homeval/internal/config"
	"github.com/tomtom215/homeval/internal/llmparse"
	"github.com/tomtom215/homeval/internal/pipeline"
	"github.com/tomtom215/homeval/internal/serve"
)

// fakeParser returns a canned input or error.
type fakeParser struct {
	in  *serve.Input
	err error
}

func (f fakeParser) Parse(_ context.Context, _ string) (*serve.Input, error) {
	return f.in, f.err
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            8080,
		Timeout:         30 * time.Second,
		Environment:     "development",
		RateLimitReqs:   0, // disabled in tests
		RateLimitWindow: time.Minute,
	}
}

// newTestRouter runs the handler on a degraded preprocessor so tests do
// not depend on a fitted artifact bundle.
func newTestRouter(t *testing.T, parser TextParser) http.Handler {
	t.Helper()
	pre := serve.NewPreprocessor(nil)
	predictor := serve.NewBaselinePredictor(pre.FeatureOrder())
	h := NewHandler(StaticSource{P: pre}, predictor, parser)
	return NewRouter(testServerConfig(), h)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode envelope: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return rec, envelope
}

func dataField(t *testing.T, envelope APIResponse, key string) interface{} {
	t.Helper()
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", envelope.Data)
	}
	return data[key]
}

func TestEstimateStructured(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/estimate",
		`{"area": 120, "bedrooms": 3, "bathrooms": 2, "floors": 2, "direction": "đông nam", "legal_status": "sổ hồng", "district": "Quận 7", "city": "Hồ Chí Minh"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	price, _ := dataField(t, envelope, "price_billion_vnd").(float64)
	if price <= 0 {
		t.Errorf("price_billion_vnd = %v, want > 0", price)
	}
	if formatted, _ := dataField(t, envelope, "price_formatted").(string); formatted == "" {
		t.Error("price_formatted is empty")
	}
	if degraded, _ := dataField(t, envelope, "degraded").(bool); !degraded {
		t.Error("degraded = false, want true without a bundle")
	}
}

func TestEstimateRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/estimate", `{"area": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
		t.Errorf("error envelope = %+v", envelope.Error)
	}
}

func TestEstimateRejectsUnknownField(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/estimate", `{"sqft": 1200}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown field", rec.Code)
	}
}

func TestEstimateValidationFailure(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/estimate", `{"area": -5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error envelope = %+v", envelope.Error)
	}
}

func TestEstimateTextDisabled(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/estimate/text", `{"description": "nhà 3 tầng quận 7"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 with no parser", rec.Code)
	}
}

func TestEstimateTextParsesAndEchoes(t *testing.T) {
	area := 95.0
	parser := fakeParser{in: &serve.Input{Area: &area, District: "Quận 7"}}
	router := newTestRouter(t, parser)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/estimate/text",
		`{"description": "Bán nhà 95m2 Quận 7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	parsed, ok := dataField(t, envelope, "parsed_input").(map[string]interface{})
	if !ok {
		t.Fatalf("parsed_input missing: %v", envelope.Data)
	}
	if got, _ := parsed["district"].(string); got != "Quận 7" {
		t.Errorf("parsed district = %q", got)
	}
}

func TestEstimateTextParserUnavailable(t *testing.T) {
	parser := fakeParser{err: fmt.Errorf("%w: circuit open", llmparse.ErrUnavailable)}
	router := newTestRouter(t, parser)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/estimate/text", `{"description": "nhà đẹp quận 1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestFeaturesEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/v1/features", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	count, _ := dataField(t, envelope, "count").(float64)
	if int(count) != len(pipeline.ExpectedFeatures()) {
		t.Errorf("count = %v, want %d", count, len(pipeline.ExpectedFeatures()))
	}
}

func TestHealthReportsDegraded(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if status, _ := dataField(t, envelope, "status").(string); status != "degraded" {
		t.Errorf("status = %q, want degraded without a bundle", status)
	}
}

func TestHealthReadyFailsDegraded(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 without a bundle", rec.Code)
	}
}

func TestArtifactsReportsDegradedState(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/v1/artifacts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if degraded, _ := dataField(t, envelope, "degraded").(bool); !degraded {
		t.Error("degraded = false, want true without a bundle")
	}
	count, _ := dataField(t, envelope, "feature_count").(float64)
	if int(count) != len(pipeline.ExpectedFeatures()) {
		t.Errorf("feature_count = %v, want %d", count, len(pipeline.ExpectedFeatures()))
	}
}

func TestRequestIDHeaderAssigned(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestUnknownEndpointEnvelope(t *testing.T) {
	router := newTestRouter(t, nil)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeNotFound {
		t.Errorf("error envelope = %+v", envelope.Error)
	}
}
