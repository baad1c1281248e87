package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"datolab/autoseo/pkg/telemetry/logging"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// HTTPProvider is the shared call protocol for every provider variant: rate
// gate, bounded attempts, exponential backoff, logging, and health.
//
// Concrete variants (OpenAI, Anthropic, Cohere) embed it, build a Request for
// each prompt, and hand it to Execute.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	gate    RateGate
	logger  EventLogger
	metrics Recorder
	sleeper Sleeper

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex
}

// NewHTTPProvider creates the shared base for a provider variant.
func NewHTTPProvider(config ProviderConfig, deps Dependencies) *HTTPProvider {
	config.applyDefaults()

	client := deps.Client
	if client == nil {
		transport := &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
		client = &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		}
	}

	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = ContextSleeper
	}

	return &HTTPProvider{
		config:  config,
		client:  client,
		gate:    deps.Gate,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		sleeper: sleeper,
		health: ProviderHealth{
			IsHealthy:             true, // Start optimistic
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
	}
}

// Name returns the lowercase provider identifier.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Config returns the provider's configuration.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// Health returns detailed health information.
func (p *HTTPProvider) Health() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// updateHealth updates the provider's health status after a call.
func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()
	p.health.TotalRequests++

	if success {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = time.Now()
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err

	// Mark unhealthy after 3 consecutive exhausted calls
	if p.health.ConsecutiveFailures >= 3 && p.health.IsHealthy {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// Execute runs the call protocol for req.
//
// The rate gate is checked once; a denial returns a rate_limited error without
// consuming an attempt. Each failed attempt logs a warning and, unless it was
// the last, waits the next backoff delay. When every attempt fails the call is
// logged through LogAPIError and an exhausted_retries error is returned.
func (p *HTTPProvider) Execute(ctx context.Context, req Request) (string, error) {
	display := p.config.DisplayName

	if p.gate != nil && !p.gate.CanMakeRequest(ctx, p.config.Name) {
		p.recordCall(string(KindRateLimited))
		return "", &CallError{
			Kind:     KindRateLimited,
			Provider: display,
			Message:  "rate limit exceeded, request not sent",
		}
	}

	body, err := json.Marshal(req.Body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s request: %w", display, err)
	}

	schedule := p.newBackOff()

	var (
		lastErr  *CallError
		attempts int
	)
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		attempts = attempt

		start := time.Now()
		text, callErr := p.attempt(ctx, attempt, req, body)
		duration := time.Since(start)

		if callErr == nil {
			p.recordAttempt("success", duration)
			p.recordCall("success")
			p.updateHealth(true, nil)
			p.log(ctx, logging.LevelInfo, fmt.Sprintf("%s API request succeeded", display), map[string]any{
				"api":             display,
				"attempt":         attempt,
				"response_length": len(text),
			})
			return text, nil
		}

		lastErr = callErr
		p.recordAttempt(string(callErr.Kind), duration)

		fields := map[string]any{
			"api":         display,
			"attempt":     attempt,
			"max_retries": p.config.MaxRetries,
			"kind":        string(callErr.Kind),
		}
		if callErr.StatusCode > 0 {
			fields["status"] = callErr.StatusCode
			fields["body"] = callErr.Body
		} else {
			fields["error"] = callErr.Message
		}

		if attempt == p.config.MaxRetries {
			p.log(ctx, logging.LevelWarning, fmt.Sprintf("%s API request failed", display), fields)
			break
		}

		delay := schedule.NextBackOff()
		fields["retry_in_seconds"] = int(delay.Seconds())
		p.log(ctx, logging.LevelWarning, fmt.Sprintf("%s API request failed", display), fields)

		if err := p.sleeper.Sleep(ctx, delay); err != nil {
			lastErr = &CallError{
				Kind:     lastErr.Kind,
				Provider: display,
				Attempts: attempt,
				Message:  "call cancelled while waiting to retry",
				Cause:    err,
			}
			break
		}
	}

	p.recordCall(string(KindExhaustedRetries))
	p.updateHealth(false, lastErr)

	p.logAPIError(ctx, display, fmt.Sprintf("max retries reached after %d attempts", attempts), body)

	return "", &CallError{
		Kind:       KindExhaustedRetries,
		Provider:   display,
		Attempts:   attempts,
		StatusCode: lastErr.StatusCode,
		Message:    fmt.Sprintf("failed after %d attempts: %s", attempts, lastErr.Message),
		Body:       lastErr.Body,
		Cause:      lastErr,
	}
}

// attempt sends one request and extracts the text from the response.
func (p *HTTPProvider) attempt(ctx context.Context, attempt int, req Request, body []byte) (string, *CallError) {
	display := p.config.DisplayName

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(body))
	if err != nil {
		return "", &CallError{Kind: KindTransport, Provider: display, Attempts: attempt, Message: err.Error(), Cause: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	slog.Debug("sending request to provider",
		"provider", p.config.Name,
		"url", req.URL,
		"attempt", attempt,
	)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &CallError{Kind: KindTransport, Provider: display, Attempts: attempt, Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &CallError{Kind: KindTransport, Provider: display, Attempts: attempt, Message: fmt.Sprintf("failed to read response: %v", err), Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &CallError{
			Kind:       KindHTTP,
			Provider:   display,
			Attempts:   attempt,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Body:       excerpt(data),
		}
	}

	if !json.Valid(data) {
		return "", &CallError{Kind: KindMalformedResponse, Provider: display, Attempts: attempt, Message: "response is not valid JSON", Body: excerpt(data)}
	}

	text, err := req.Extract(data)
	if err != nil {
		return "", &CallError{Kind: KindMalformedResponse, Provider: display, Attempts: attempt, Message: err.Error(), Body: excerpt(data), Cause: err}
	}

	return strings.TrimSpace(text), nil
}

// newBackOff returns the delay schedule for one call.
func (p *HTTPProvider) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.Backoff.Base
	b.Multiplier = p.config.Backoff.Multiplier
	b.MaxInterval = p.config.Backoff.Max
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}

func (p *HTTPProvider) log(ctx context.Context, level logging.Level, message string, fields map[string]any) {
	if p.logger != nil {
		p.logger.Log(ctx, level, message, fields)
	}
}

// logAPIError logs the final failure with the request body as context.
func (p *HTTPProvider) logAPIError(ctx context.Context, display, message string, body []byte) {
	if p.logger == nil {
		return
	}
	var requestData map[string]any
	if err := json.Unmarshal(body, &requestData); err != nil {
		p.logger.LogAPIError(ctx, display, message, string(body))
		return
	}
	p.logger.LogAPIError(ctx, display, message, requestData)
}

func (p *HTTPProvider) recordAttempt(outcome string, duration time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordAttempt(p.config.Name, outcome, duration)
	}
}

func (p *HTTPProvider) recordCall(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordCall(p.config.Name, outcome)
	}
}
