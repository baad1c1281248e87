package cohere

import (
	"context"
	"errors"
	"net/http"
	"testing"

	testhelpers "datolab/autoseo/internal/providers"
	"datolab/autoseo/pkg/providers"
)

func TestProvider_Call(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/generate", testhelpers.OK(testhelpers.MockCohereResponse("\n{\"tags\": [\"go\"]}\n")))

	cfg := testhelpers.TestConfig(Name, DisplayName, mock.URL()+"/v1")
	cfg.Model = "command"
	provider, err := NewProvider(cfg, providers.Dependencies{Sleeper: &testhelpers.RecordingSleeper{}})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	text, err := provider.Call(context.Background(), "Suggest tags")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if text != `{"tags": ["go"]}` {
		t.Errorf("Call() = %q, want trimmed text", text)
	}

	body := mock.Requests()[0].Decoded
	if body["model"] != "command" || body["prompt"] != "Suggest tags" {
		t.Errorf("body = %v", body)
	}
	if body["maxTokens"] != float64(150) || body["temperature"] != 0.7 {
		t.Errorf("body = %v, want maxTokens 150 and temperature 0.7", body)
	}
	if _, ok := body["max_tokens"]; ok {
		t.Error("cohere body should use maxTokens, not max_tokens")
	}
}

func TestProvider_RemoteRateLimitIsHTTPError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/generate", testhelpers.MockRateLimitError())

	logger := &testhelpers.RecordingLogger{}
	provider, err := NewProvider(testhelpers.TestConfig(Name, DisplayName, mock.URL()+"/v1"), providers.Dependencies{
		Logger:  logger,
		Sleeper: &testhelpers.RecordingSleeper{},
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	_, err = provider.Call(context.Background(), "prompt")

	var ce *providers.CallError
	if !errors.As(err, &ce) {
		t.Fatalf("Call() error = %v, want *CallError", err)
	}
	if ce.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", ce.StatusCode)
	}
	if len(logger.Entries) != 3 || logger.Entries[0].Fields["status"] != http.StatusTooManyRequests {
		t.Errorf("entries = %+v, want 3 warnings with status", logger.Entries)
	}
}

func TestProvider_LocalRateLimit(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	provider, err := NewProvider(testhelpers.TestConfig(Name, DisplayName, mock.URL()+"/v1"), providers.Dependencies{
		Gate: &testhelpers.Gate{Allow: false},
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	_, err = provider.Call(context.Background(), "prompt")
	if !providers.IsKind(err, providers.KindRateLimited) {
		t.Fatalf("Call() error = %v, want rate_limited", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("got %d requests, want 0", mock.GetRequestCount())
	}
}
