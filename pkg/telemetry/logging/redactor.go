package logging

import (
	"regexp"
	"sort"
	"strings"
)

// Redactor scrubs credentials from log messages and context values before
// they reach the log store or an alert.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

// NewRedactor creates a Redactor with the built-in credential patterns plus
// any extra patterns supplied by name. Invalid extra patterns are skipped.
func NewRedactor(extra map[string]string) *Redactor {
	r := &Redactor{}
	r.addDefaultPatterns()

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		regex, err := regexp.Compile(extra[name])
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        name,
			regex:       regex,
			replacement: "***",
		})
	}

	return r
}

// addDefaultPatterns adds the built-in credential patterns.
func (r *Redactor) addDefaultPatterns() {
	defaults := []struct {
		name        string
		regex       string
		replacement string
	}{
		// Bearer tokens go first so the api_key pattern does not split them.
		{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
		// OpenAI and Anthropic style secret keys
		{PatternAPIKey, `sk-[a-zA-Z0-9_\-]{6,}`, "sk-***"},
		{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s"]+`, "$1: ***"},
	}

	for _, p := range defaults {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
}

// RedactString redacts credentials from a string value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// RedactFields returns a copy of fields with sensitive keys masked and
// credential patterns removed from string values. Nested maps and slices are
// walked.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if r == nil || len(fields) == 0 {
		return fields
	}

	out := make(map[string]any, len(fields))
	for key, value := range fields {
		out[key] = r.redactValue(key, value)
	}
	return out
}

func (r *Redactor) redactValue(key string, value any) any {
	if isSensitiveKey(key) {
		if s, ok := value.(string); ok {
			return RedactAPIKey(s)
		}
		if value == nil {
			return nil
		}
		return "***"
	}

	switch v := value.(type) {
	case string:
		return r.RedactString(v)
	case map[string]any:
		return r.RedactFields(v)
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = r.redactValue(k, s)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.redactValue("", item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = r.RedactString(item)
		}
		return out
	default:
		return value
	}
}

// isSensitiveKey checks if a key name indicates a credential.
func isSensitiveKey(key string) bool {
	if key == "" {
		return false
	}
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "secret",
		"api_key", "apikey", "api-key", "authorization", "private_key",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	// admin_token, access_token; max_tokens is a request parameter
	return strings.HasSuffix(lowerKey, "token")
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}

	// Keep first 4 characters for identification
	return apiKey[:4] + "***"
}
