package logging

import (
	"fmt"
	"math"
	"testing"
)

func sampleLines() []string {
	return []string{
		`[2024-05-01 10:00:00] [info] | No user | New rate limit window started for openai`,
		`[2024-05-01 10:00:05] [warning] | No user | OpenAI API request failed | Context: {"api":"OpenAI","attempt":1}`,
		`[2024-05-01 10:00:03] [error] | No user | API Error (Cohere): max retries reached | Context: {"api":"Cohere"}`,
		`[2024-05-01 10:00:05] [info] | User: admin | Rate limit updated | Context: {"api":"openai","new_limit":90}`,
		`not a log line`,
	}
}

func TestQueryLines_NewestFirst(t *testing.T) {
	page := QueryLines(sampleLines(), Query{})

	if page.Total != 5 {
		t.Fatalf("expected 5 records, got %d", page.Total)
	}

	// Equal timestamps keep the later line first; unparseable lines sort last.
	want := []string{
		"User: admin | Rate limit updated | Context: {\"api\":\"openai\",\"new_limit\":90}",
		"No user | OpenAI API request failed | Context: {\"api\":\"OpenAI\",\"attempt\":1}",
		"No user | API Error (Cohere): max retries reached | Context: {\"api\":\"Cohere\"}",
		"No user | New rate limit window started for openai",
		"not a log line",
	}
	for i, w := range want {
		if page.Records[i].Message != w {
			t.Errorf("record %d: expected message %q, got %q", i, w, page.Records[i].Message)
		}
	}
}

func TestQueryLines_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{"level", Query{Level: "warning"}, 1},
		{"level is case-insensitive", Query{Level: "ERROR"}, 1},
		{"source", Query{Source: "openai"}, 3},
		{"search", Query{Search: "MAX RETRIES"}, 1},
		{"combined", Query{Level: "info", Source: "OpenAI"}, 2},
		{"no match", Query{Search: "anthropic"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := QueryLines(sampleLines(), tt.query)
			if page.Total != tt.want {
				t.Errorf("expected %d records, got %d", tt.want, page.Total)
			}
			if page.Records == nil {
				t.Error("expected non-nil records")
			}
		})
	}
}

func TestQueryLines_Pagination(t *testing.T) {
	lines := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		lines = append(lines, fmt.Sprintf("[2024-05-01 10:%02d:%02d] [info] | No user | entry %d", i/60, i%60, i))
	}

	tests := []struct {
		page      int
		wantCount int
		wantFirst string
	}{
		{1, 50, "No user | entry 119"},
		{2, 50, "No user | entry 69"},
		{3, 20, "No user | entry 19"},
		{4, 0, ""},
		{0, 50, "No user | entry 119"},
		{math.MaxInt/PageSize + 2, 0, ""},
		{math.MaxInt, 0, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			page := QueryLines(lines, Query{Page: tt.page})
			if page.TotalPages != 3 {
				t.Errorf("expected 3 pages, got %d", page.TotalPages)
			}
			if page.PerPage != PageSize {
				t.Errorf("expected per page %d, got %d", PageSize, page.PerPage)
			}
			if len(page.Records) != tt.wantCount {
				t.Fatalf("expected %d records, got %d", tt.wantCount, len(page.Records))
			}
			if tt.wantCount > 0 && page.Records[0].Message != tt.wantFirst {
				t.Errorf("expected first %q, got %q", tt.wantFirst, page.Records[0].Message)
			}
		})
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		line      string
		timestamp string
		level     string
		message   string
	}{
		{
			line:      `[2024-05-01 10:00:00] [WARNING] | No user | slow`,
			timestamp: "2024-05-01 10:00:00",
			level:     "warning",
			message:   "No user | slow",
		},
		{
			line:      `plain text`,
			timestamp: "",
			level:     "info",
			message:   "plain text",
		},
	}

	for _, tt := range tests {
		rec := ParseRecord(tt.line)
		if rec.Timestamp != tt.timestamp || rec.Level != tt.level || rec.Message != tt.message {
			t.Errorf("ParseRecord(%q) = %+v", tt.line, rec)
		}
		if rec.Raw != tt.line {
			t.Errorf("expected raw line preserved, got %q", rec.Raw)
		}
	}
}
