package anthropic

import (
	"encoding/json"
	"fmt"

	"datolab/autoseo/pkg/providers"
)

// CompleteRequest is an Anthropic text completion request.
type CompleteRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens"`
	StopSequences []string `json:"stop_sequences"`
}

// CompleteResponse is the part of an Anthropic completion response read by
// the provider.
type CompleteResponse struct {
	Completion *string `json:"completion"`
	StopReason string  `json:"stop_reason"`
	Model      string  `json:"model"`
}

// buildRequest builds the completion request for prompt.
func buildRequest(cfg providers.ProviderConfig, prompt string) *CompleteRequest {
	stop := cfg.StopSequences
	if stop == nil {
		stop = []string{}
	}
	return &CompleteRequest{
		Model:         cfg.Model,
		Prompt:        prompt,
		MaxTokens:     cfg.MaxTokens,
		StopSequences: stop,
	}
}

// extractText returns the completion field.
func extractText(body []byte) (string, error) {
	var resp CompleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Completion == nil {
		return "", fmt.Errorf("response does not contain expected 'completion'")
	}
	return *resp.Completion, nil
}
