package anthropic

import (
	"context"
	"errors"
	"testing"

	testhelpers "datolab/autoseo/internal/providers"
	"datolab/autoseo/pkg/providers"
)

func TestProvider_Call(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/complete", testhelpers.OK(testhelpers.MockAnthropicResponse(" Travel, Food ", "claude-2.1")))

	cfg := testhelpers.TestConfig(Name, DisplayName, mock.URL())
	cfg.Model = "claude-2.1"
	cfg.StopSequences = []string{"\n"}
	provider, err := NewProvider(cfg, providers.Dependencies{Sleeper: &testhelpers.RecordingSleeper{}})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	text, err := provider.Call(context.Background(), "Suggest tags")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if text != "Travel, Food" {
		t.Errorf("Call() = %q, want trimmed completion", text)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	body := reqs[0].Decoded
	if body["prompt"] != "Suggest tags" || body["model"] != "claude-2.1" || body["max_tokens"] != float64(150) {
		t.Errorf("body = %v", body)
	}
	stop, ok := body["stop_sequences"].([]interface{})
	if !ok || len(stop) != 1 || stop[0] != "\n" {
		t.Errorf("stop_sequences = %v, want [\\n]", body["stop_sequences"])
	}

	for key, want := range map[string]string{
		"Authorization":     "Bearer test-key",
		"x-api-key":         "test-key",
		"anthropic-version": DefaultAnthropicVersion,
	} {
		if err := testhelpers.ExpectHeader(reqs[0].Header, key, want); err != nil {
			t.Error(err)
		}
	}
}

func TestProvider_RetriesOnServerError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponses("/v1/complete",
		testhelpers.MockServerError(),
		testhelpers.OK(testhelpers.MockAnthropicResponse("ok", "claude-2.1")),
	)

	sleeper := &testhelpers.RecordingSleeper{}
	provider, err := NewProvider(testhelpers.TestConfig(Name, DisplayName, mock.URL()), providers.Dependencies{Sleeper: sleeper})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	text, err := provider.Call(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("Call() = %q, want ok", text)
	}
	if mock.GetRequestCount() != 2 || len(sleeper.Delays) != 1 {
		t.Errorf("requests = %d, sleeps = %d; want 2 and 1", mock.GetRequestCount(), len(sleeper.Delays))
	}
}

func TestProvider_MissingCompletion(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/complete", testhelpers.OK(map[string]interface{}{"type": "completion"}))

	provider, err := NewProvider(testhelpers.TestConfig(Name, DisplayName, mock.URL()), providers.Dependencies{
		Sleeper: &testhelpers.RecordingSleeper{},
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	_, err = provider.Call(context.Background(), "prompt")

	var ce *providers.CallError
	if !errors.As(err, &ce) || ce.Kind != providers.KindExhaustedRetries {
		t.Fatalf("Call() error = %v, want exhausted_retries", err)
	}
	var last *providers.CallError
	if !errors.As(ce.Cause, &last) || last.Kind != providers.KindMalformedResponse {
		t.Errorf("last attempt = %v, want malformed_response", ce.Cause)
	}
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{}, providers.Dependencies{})

	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("NewProvider() error = %v, want ConfigError", err)
	}
}
