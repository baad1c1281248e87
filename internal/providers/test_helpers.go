package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"datolab/autoseo/pkg/providers"
	"datolab/autoseo/pkg/telemetry/logging"
)

// TestConfig returns a provider configuration pointing at baseURL.
func TestConfig(name, display, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:        name,
		DisplayName: display,
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   150,
		Temperature: 0.7,
		MaxRetries:  3,
		Timeout:     5 * time.Second,
		Backoff: providers.BackoffConfig{
			Base:       4 * time.Second,
			Multiplier: 4,
			Max:        5 * time.Minute,
		},
	}
}

// RecordingSleeper records requested delays without sleeping.
type RecordingSleeper struct {
	mu     sync.Mutex
	Delays []time.Duration
}

// Sleep records d and returns ctx.Err().
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Delays = append(s.Delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// LogEntry is an entry captured by RecordingLogger.
type LogEntry struct {
	Level   logging.Level
	Message string
	Fields  map[string]any
}

// RecordingLogger captures provider log entries.
type RecordingLogger struct {
	mu        sync.Mutex
	Entries   []LogEntry
	APIErrors []LogEntry
}

// Log records an entry.
func (l *RecordingLogger) Log(_ context.Context, level logging.Level, message string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Message: message, Fields: fields})
}

// LogAPIError records a final call failure.
func (l *RecordingLogger) LogAPIError(_ context.Context, api string, message string, requestData any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.APIErrors = append(l.APIErrors, LogEntry{
		Level:   logging.LevelError,
		Message: "API Error (" + api + "): " + message,
		Fields:  map[string]any{"api": api, "request_data": requestData},
	})
}

// Count returns the number of entries at level whose message contains substr.
func (l *RecordingLogger) Count(level logging.Level, substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.Entries {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

// Gate is a fixed RateGate.
type Gate struct {
	Allow bool

	mu    sync.Mutex
	Calls []string
}

// CanMakeRequest records provider and returns g.Allow.
func (g *Gate) CanMakeRequest(_ context.Context, provider string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, provider)
	return g.Allow
}

// ExpectHeader checks that header key contains value.
func ExpectHeader(h http.Header, key, value string) error {
	actual := h.Get(key)
	if !strings.Contains(actual, value) {
		return fmt.Errorf("header %q mismatch: expected %q, got %q", key, value, actual)
	}
	return nil
}
