package openai

import (
	"encoding/json"
	"fmt"

	"datolab/autoseo/pkg/providers"
)

// ChatRequest is an OpenAI chat completions request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	N           int           `json:"n"`
	Temperature float64       `json:"temperature"`
}

// ChatMessage is one message in an OpenAI chat request or response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the part of an OpenAI chat completions response read by
// the provider.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

// buildRequest builds the chat request for a single user prompt.
func buildRequest(cfg providers.ProviderConfig, prompt string) *ChatRequest {
	return &ChatRequest{
		Model: cfg.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   cfg.MaxTokens,
		N:           1,
		Temperature: cfg.Temperature,
	}
}

// extractText returns choices[0].message.content.
func extractText(body []byte) (string, error) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("response does not contain expected 'choices[0].message.content'")
	}
	return resp.Choices[0].Message.Content, nil
}
