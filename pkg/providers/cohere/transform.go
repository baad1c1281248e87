package cohere

import (
	"encoding/json"
	"fmt"

	"datolab/autoseo/pkg/providers"
)

// GenerateRequest is a Cohere generate request.
type GenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

// GenerateResponse is the part of a Cohere generate response read by the
// provider.
type GenerateResponse struct {
	ID          string       `json:"id"`
	Generations []Generation `json:"generations"`
}

// Generation is one generated text.
type Generation struct {
	ID   string  `json:"id"`
	Text *string `json:"text"`
}

// buildRequest builds the generate request for prompt.
func buildRequest(cfg providers.ProviderConfig, prompt string) *GenerateRequest {
	return &GenerateRequest{
		Model:       cfg.Model,
		Prompt:      prompt,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

// extractText returns generations[0].text.
func extractText(body []byte) (string, error) {
	var resp GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Generations) == 0 || resp.Generations[0].Text == nil {
		return "", fmt.Errorf("response does not contain expected 'generations[0].text'")
	}
	return *resp.Generations[0].Text, nil
}
