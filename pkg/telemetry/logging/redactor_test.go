package logging

import (
	"strings"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bearer token", "Authorization: Bearer abc.def-123", "Authorization: Bearer ***"},
		{"secret key", "key sk-ant-api03-abcdef was rejected", "key sk-*** was rejected"},
		{"password", "password=hunter2 ok", "password: *** ok"},
		{"clean", "Rate limit updated", "Rate limit updated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRedactor_ExtraPatterns(t *testing.T) {
	r := NewRedactor(map[string]string{
		"cohere_key": `co-[a-z0-9]{8}`,
		"broken":     `([`,
	})

	if got := r.RedactString("using co-abcd1234"); got != "using ***" {
		t.Errorf("expected extra pattern to apply, got %q", got)
	}
}

func TestRedactor_RedactFields(t *testing.T) {
	r := NewRedactor(nil)

	fields := map[string]any{
		"api_key":     "sk-live-1234567890",
		"admin_token": "tok-abcdef",
		"max_tokens":  150,
		"headers":     map[string]string{"Authorization": "Bearer xyz"},
		"request_data": map[string]any{
			"messages": []any{
				map[string]any{"content": "my key is sk-abcdefgh123"},
			},
		},
	}

	out := r.RedactFields(fields)

	if out["api_key"] != "sk-l***" {
		t.Errorf("expected api key prefix, got %v", out["api_key"])
	}
	if out["admin_token"] != "tok-***" {
		t.Errorf("expected token redacted, got %v", out["admin_token"])
	}
	if out["max_tokens"] != 150 {
		t.Errorf("expected max_tokens untouched, got %v", out["max_tokens"])
	}

	headers := out["headers"].(map[string]any)
	if headers["Authorization"] != "Bear***" {
		t.Errorf("expected authorization header redacted, got %v", headers["Authorization"])
	}

	msg := out["request_data"].(map[string]any)["messages"].([]any)[0].(map[string]any)["content"].(string)
	if strings.Contains(msg, "abcdefgh123") {
		t.Errorf("expected nested content redacted, got %q", msg)
	}

	if fields["api_key"] != "sk-live-1234567890" {
		t.Error("expected input map to be left unchanged")
	}
}

func TestRedactor_NilIsPassthrough(t *testing.T) {
	var r *Redactor
	if got := r.RedactString("sk-abcdefgh"); got != "sk-abcdefgh" {
		t.Errorf("expected passthrough, got %q", got)
	}
	fields := map[string]any{"api_key": "x"}
	if got := r.RedactFields(fields); got["api_key"] != "x" {
		t.Errorf("expected passthrough, got %v", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"SMTP_PASSWORD", true},
		{"api_key", true},
		{"Authorization", true},
		{"access_token", true},
		{"max_tokens", false},
		{"response_length", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isSensitiveKey(tt.key); got != tt.want {
			t.Errorf("isSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"abc", "***"},
		{"sk-1234567890", "sk-1***"},
	}
	for _, tt := range tests {
		if got := RedactAPIKey(tt.input); got != tt.want {
			t.Errorf("RedactAPIKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
