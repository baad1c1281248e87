package suggestions

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const fence = "```"

// numericPattern matches integers, decimals and exponent notation.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// StripCodeFence removes a surrounding Markdown code fence. Trimmed text that
// starts and ends with ``` loses its first and last line; everything between
// is returned verbatim. The second result reports whether a fence was removed.
func StripCodeFence(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, fence) || !strings.HasSuffix(trimmed, fence) {
		return trimmed, false
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed, false
	}
	return strings.Join(lines[1:len(lines)-1], "\n"), true
}

// ParseSuggestions decodes a model response of the form {"<field>": [...]}.
//
// The fence is stripped first. String elements are trimmed; empty strings
// and case-insensitive duplicates are dropped; elements failing IsValidTag
// and non-string elements are reported in Rejected. The accepted items are
// then truncated to requested.
func ParseSuggestions(text, field string, requested int) (*ParsedSuggestions, error) {
	body, stripped := StripCodeFence(text)

	if !json.Valid([]byte(body)) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, excerpt(body))
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: response is not an object", ErrMissingField)
	}

	raw, ok := doc[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q not present", ErrMissingField, field)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil || elements == nil {
		return nil, fmt.Errorf("%w: %q is not an array", ErrMissingField, field)
	}

	if requested < 0 {
		requested = 0
	}
	result := &ParsedSuggestions{
		Items:          make([]string, 0, min(requested, len(elements))),
		RequestedCount: requested,
		Stripped:       stripped,
	}

	seen := make(map[string]struct{}, len(elements))
	for _, element := range elements {
		var s string
		if err := json.Unmarshal(element, &s); err != nil {
			result.Rejected = append(result.Rejected, string(element))
			continue
		}

		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !IsValidTag(s) {
			result.Rejected = append(result.Rejected, s)
			continue
		}
		if len(result.Items) < requested {
			result.Items = append(result.Items, s)
		}
	}

	return result, nil
}

// IsValidTag reports whether s is usable as a term name: it must not be
// purely numeric and must contain at least one letter.
func IsValidTag(s string) bool {
	s = strings.TrimSpace(s)
	if numericPattern.MatchString(s) {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func excerpt(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
