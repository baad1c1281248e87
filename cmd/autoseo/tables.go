package main

import (
	"strconv"
	"strings"

	"datolab/autoseo/pkg/content"
	"datolab/autoseo/pkg/limits/ratelimit"
	"datolab/autoseo/pkg/seo"
	"datolab/autoseo/pkg/telemetry/logging"
)

// reportTable renders a processing report one item per row.
type reportTable struct {
	*seo.Report
}

func (t reportTable) Header() []string {
	return []string{"ITEM", "TITLE", "CATEGORIES", "TAGS", "DEFAULT", "OUTCOME"}
}

func (t reportTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Items))
	for _, item := range t.Items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ItemID, 10),
			truncate(item.Title, 40),
			joinOrDash(item.CategoriesAdded),
			joinOrDash(item.TagsAdded),
			orDash(item.DefaultCategory),
			item.Outcome(),
		})
	}
	return rows
}

// limitTable renders limiter snapshots.
type limitTable []ratelimit.Status

func (t limitTable) Header() []string {
	return []string{"PROVIDER", "LIMIT", "SOURCE", "CURRENT", "RESETS IN"}
}

func (t limitTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		reset := "-"
		if s.WindowStart != nil {
			reset = strconv.Itoa(s.ResetSeconds) + "s"
		}
		rows = append(rows, []string{
			s.Provider,
			strconv.Itoa(s.Limit),
			s.Source,
			strconv.Itoa(s.CurrentCount),
			reset,
		})
	}
	return rows
}

// logTable renders one page of log records.
type logTable struct {
	*logging.Page
}

func (t logTable) Header() []string {
	return []string{"TIME", "LEVEL", "MESSAGE"}
}

func (t logTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records))
	for _, r := range t.Records {
		rows = append(rows, []string{r.Timestamp, r.Level, truncate(r.Message, 120)})
	}
	return rows
}

// itemRow is one content item with its terms.
type itemRow struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

type itemTable []itemRow

func (t itemTable) Header() []string {
	return []string{"ID", "TITLE", "STATUS", "CATEGORIES", "TAGS"}
}

func (t itemTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, item := range t {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			truncate(item.Title, 40),
			item.Status,
			joinOrDash(item.Categories),
			joinOrDash(item.Tags),
		})
	}
	return rows
}

// relatedTable renders items ranked by shared terms.
type relatedTable []content.RelatedItem

func (t relatedTable) Header() []string {
	return []string{"ID", "TITLE", "STATUS", "SHARED"}
}

func (t relatedTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			strconv.FormatInt(r.Item.ID, 10),
			truncate(r.Item.Title, 40),
			r.Item.Status,
			strconv.Itoa(r.Shared),
		})
	}
	return rows
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
