package logging

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// PageSize is the fixed number of records per query page.
const PageSize = 50

// Query filters and paginates the log file for the admin surface.
// Every filter is a case-insensitive substring match on the raw line.
type Query struct {
	// Level matches "[level]".
	Level string

	// Source matches a provider name such as "OpenAI".
	Source string

	// Search matches any text.
	Search string

	// Page is 1-based. Values below 1 are treated as 1.
	Page int
}

// Record is one parsed log line.
type Record struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Raw       string `json:"raw"`
}

// Page is one page of query results, newest first.
type Page struct {
	Records     []Record `json:"logs"`
	CurrentPage int      `json:"current_page"`
	TotalPages  int      `json:"total_pages"`
	PerPage     int      `json:"per_page"`
	Total       int      `json:"total"`
}

var (
	timestampPattern = regexp.MustCompile(`\[(.*?)\]`)
	levelPattern     = regexp.MustCompile(`(?i)\[(error|warning|info)\]`)
)

// Query runs q against the current log file.
func (l *Logger) Query(q Query) (*Page, error) {
	lines, err := l.store.Lines(0)
	if err != nil {
		return nil, err
	}
	return QueryLines(lines, q), nil
}

// QueryLines filters, sorts, and paginates lines given in write order.
func QueryLines(lines []string, q Query) *Page {
	level := strings.ToLower(strings.TrimSpace(q.Level))
	source := strings.ToLower(strings.TrimSpace(q.Source))
	search := strings.ToLower(strings.TrimSpace(q.Search))

	type candidate struct {
		line string
		ts   time.Time
	}

	// Walk backwards so equal timestamps keep the later line first.
	matched := make([]candidate, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		lower := strings.ToLower(line)
		if level != "" && !strings.Contains(lower, "["+level+"]") {
			continue
		}
		if source != "" && !strings.Contains(lower, source) {
			continue
		}
		if search != "" && !strings.Contains(lower, search) {
			continue
		}
		matched = append(matched, candidate{line: line, ts: lineTime(line)})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ts.After(matched[j].ts)
	})

	page := q.Page
	if page < 1 {
		page = 1
	}

	total := len(matched)
	result := &Page{
		Records:     []Record{},
		CurrentPage: page,
		TotalPages:  (total + PageSize - 1) / PageSize,
		PerPage:     PageSize,
		Total:       total,
	}

	// Compare before multiplying so a huge page cannot overflow.
	if page-1 >= (total+PageSize-1)/PageSize {
		return result
	}
	offset := (page - 1) * PageSize
	end := min(offset+PageSize, total)

	for _, c := range matched[offset:end] {
		result.Records = append(result.Records, ParseRecord(c.line))
	}
	return result
}

// ParseRecord extracts the timestamp, level, and message of a raw line.
// The message is everything after the level bracket.
func ParseRecord(line string) Record {
	rec := Record{Raw: line, Level: string(LevelInfo)}

	if m := timestampPattern.FindStringSubmatch(line); m != nil {
		rec.Timestamp = m[1]
	}
	if m := levelPattern.FindStringSubmatch(line); m != nil {
		rec.Level = strings.ToLower(m[1])
	}
	if idx := strings.Index(line, "] |"); idx >= 0 {
		rec.Message = strings.TrimSpace(line[idx+3:])
	} else {
		rec.Message = line
	}
	return rec
}

// lineTime parses the leading timestamp, or returns the zero time.
func lineTime(line string) time.Time {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}
	}
	t, err := time.ParseInLocation(TimestampLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
