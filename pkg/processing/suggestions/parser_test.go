package suggestions

import (
	"errors"
	"reflect"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		want         string
		wantStripped bool
	}{
		{
			name:         "json fence",
			input:        "```json\n{\"tags\":[]}\n```",
			want:         `{"tags":[]}`,
			wantStripped: true,
		},
		{
			name:         "bare fence with surrounding whitespace",
			input:        "\n  ```\n{\"a\": 1}\n```  \n",
			want:         `{"a": 1}`,
			wantStripped: true,
		},
		{
			name:         "inner content preserved verbatim",
			input:        "```json\n{\n  \"tags\": [\"A\"]\n}\n```",
			want:         "{\n  \"tags\": [\"A\"]\n}",
			wantStripped: true,
		},
		{
			name:  "no fence",
			input: `  {"tags":["A"]} `,
			want:  `{"tags":["A"]}`,
		},
		{
			name:  "opening fence only",
			input: "```json\n{\"tags\":[]}",
			want:  "```json\n{\"tags\":[]}",
		},
		{
			name:  "single line",
			input: "```",
			want:  "```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stripped := StripCodeFence(tt.input)
			if got != tt.want {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.want)
			}
			if stripped != tt.wantStripped {
				t.Errorf("stripped = %v, want %v", stripped, tt.wantStripped)
			}
		})
	}
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		field        string
		requested    int
		wantItems    []string
		wantRejected []string
	}{
		{
			name:      "truncates to requested",
			text:      `{"categories":["A","B","C"]}`,
			field:     FieldCategories,
			requested: 2,
			wantItems: []string{"A", "B"},
		},
		{
			name:      "fewer than requested is not an error",
			text:      `{"categories":["A","B","C"]}`,
			field:     FieldCategories,
			requested: 5,
			wantItems: []string{"A", "B", "C"},
		},
		{
			name:      "fenced response",
			text:      "```json\n{\"tags\": [\"Go\", \"Testing\"]}\n```",
			field:     FieldTags,
			requested: 5,
			wantItems: []string{"Go", "Testing"},
		},
		{
			name:         "invalid names rejected",
			text:         `{"tags":["2024","SEO","123","Web3","--"]}`,
			field:        FieldTags,
			requested:    5,
			wantItems:    []string{"SEO", "Web3"},
			wantRejected: []string{"2024", "123", "--"},
		},
		{
			name:      "trims and drops empty and duplicate names",
			text:      `{"tags":["  Go ", "", "go", "GO", "Rust"]}`,
			field:     FieldTags,
			requested: 5,
			wantItems: []string{"Go", "Rust"},
		},
		{
			name:         "non-string elements rejected",
			text:         `{"tags":[42, "Go", {"name":"x"}, null]}`,
			field:        FieldTags,
			requested:    5,
			wantItems:    []string{"Go"},
			wantRejected: []string{"42", `{"name":"x"}`},
		},
		{
			name:      "zero requested",
			text:      `{"tags":["Go"]}`,
			field:     FieldTags,
			requested: 0,
			wantItems: []string{},
		},
		{
			name:      "other fields ignored",
			text:      `{"categories":["News"],"tags":["Go"]}`,
			field:     FieldCategories,
			requested: 4,
			wantItems: []string{"News"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestions(tt.text, tt.field, tt.requested)
			if err != nil {
				t.Fatalf("ParseSuggestions() error = %v", err)
			}
			if !reflect.DeepEqual(got.Items, tt.wantItems) {
				t.Errorf("Items = %q, want %q", got.Items, tt.wantItems)
			}
			if !reflect.DeepEqual(got.Rejected, tt.wantRejected) {
				t.Errorf("Rejected = %q, want %q", got.Rejected, tt.wantRejected)
			}
			if got.RequestedCount != tt.requested {
				t.Errorf("RequestedCount = %d, want %d", got.RequestedCount, tt.requested)
			}
		})
	}
}

func TestParseSuggestions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{name: "not json", text: "Here are some tags: Go, Rust", wantErr: ErrMalformedJSON},
		{name: "truncated json", text: `{"tags": ["Go"`, wantErr: ErrMalformedJSON},
		{name: "empty", text: "", wantErr: ErrMalformedJSON},
		{name: "field absent", text: `{"categories": ["Go"]}`, wantErr: ErrMissingField},
		{name: "field not array", text: `{"tags": "Go, Rust"}`, wantErr: ErrMissingField},
		{name: "field null", text: `{"tags": null}`, wantErr: ErrMissingField},
		{name: "top-level array", text: `["Go"]`, wantErr: ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuggestions(tt.text, FieldTags, 5)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseSuggestions() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSuggestions_Stripped(t *testing.T) {
	got, err := ParseSuggestions("```json\n{\"tags\":[\"Go\"]}\n```", FieldTags, 1)
	if err != nil {
		t.Fatalf("ParseSuggestions() error = %v", err)
	}
	if !got.Stripped {
		t.Error("Stripped = false, want true")
	}
}

func TestIsValidTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"123", false},
		{"2024", false},
		{"3.14", false},
		{"-7", false},
		{"1e5", false},
		{" 42 ", false},
		{"", false},
		{"!!!", false},
		{"10-20", false},
		{"SEO", true},
		{"Web3", true},
		{"Go 1.22", true},
		{"Café", true},
		{"C++", true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := IsValidTag(tt.tag); got != tt.want {
				t.Errorf("IsValidTag(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}
