// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package llmparse calls an external LLM API to turn a free-text property
// description into the structured estimation input. The call is guarded by
// a client-side rate limiter and a circuit breaker so a slow or failing
// provider degrades the natural-language endpoint without taking the rest
// of the service down.
package llmparse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/homeval/internal/cache"
	"github.com/tomtom215/homeval/internal/config"
	"github.com/tomtom215/homeval/internal/logging"
	"github.com/tomtom215/homeval/internal/metrics"
	"github.com/tomtom215/homeval/internal/serve"
)

// ErrUnavailable marks rejections that are about protecting the provider
// (open breaker, exhausted rate limit), not about the input. Callers map it
// to a retryable condition.
var ErrUnavailable = errors.New("llm parser unavailable")

const breakerName = "llm-api"

// systemPrompt instructs the model to emit only the structured fields the
// preprocessor understands.
const systemPrompt = `Extract Vietnamese property attributes from the user's description.
Respond with a single JSON object using only these keys, omitting any the
text does not mention: area, bedrooms, bathrooms, floors, frontage,
access_road (numbers); direction, balcony_direction, legal_status,
furniture, city, district, ward (strings). No prose, no markdown.`

// Client is a rate-limited, breaker-guarded LLM API client. Safe for
// concurrent use.
type Client struct {
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*serve.Input]
	limiter *rate.Limiter
	cache   *cache.Cache
	url     string
	apiKey  string
	model   string
}

// cacheTTL bounds how long a parsed description is reused. Descriptions
// are immutable text, so a long TTL is safe; the bound just caps memory.
const cacheTTL = time.Hour

// New builds a client from the LLM section of the configuration.
func New(cfg config.LLMConfig) *Client {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*serve.Input](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	limit := rate.Limit(cfg.RateLimitPerSecond)
	if cfg.RateLimitPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		cache:   cache.New(cacheTTL),
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Parse extracts a structured estimation input from a free-text
// description. Repeated descriptions are answered from cache without
// touching the provider. Rejections by the limiter or breaker return
// ErrUnavailable.
func (c *Client) Parse(ctx context.Context, description string) (*serve.Input, error) {
	key := cache.Key(c.model, description)
	if cached, ok := c.cache.Get(key); ok {
		if in, ok := cached.(*serve.Input); ok {
			metrics.LLMRequestsTotal.WithLabelValues("cached").Inc()
			return in, nil
		}
	}

	if !c.limiter.Allow() {
		metrics.LLMRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: rate limit exceeded", ErrUnavailable)
	}

	start := time.Now()
	in, err := c.cb.Execute(func() (*serve.Input, error) {
		return c.call(ctx, description)
	})
	metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.LLMRequestsTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()
	c.cache.Set(key, in)
	return in, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) call(ctx context.Context, description string) (*serve.Input, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: description},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm api status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("llm response has no choices")
	}

	var in serve.Input
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &in); err != nil {
		return nil, fmt.Errorf("llm returned non-structured content: %w", err)
	}
	return &in, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
