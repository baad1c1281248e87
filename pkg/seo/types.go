package seo

import (
	"context"
	"time"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/content"
	"datolab/autoseo/pkg/telemetry/logging"
)

// ContentStore is the content collaborator the driver works against.
// *content.MemoryStore and *content.SQLiteStore implement it.
type ContentStore interface {
	DraftItems(ctx context.Context) ([]content.Item, error)
	CategoryCount(ctx context.Context, itemID int64) (int, error)
	TagCount(ctx context.Context, itemID int64) (int, error)
	FindOrCreateCategory(ctx context.Context, name string) (content.Term, bool, error)
	FindOrCreateTag(ctx context.Context, name string) (content.Term, bool, error)
	SetItemCategories(ctx context.Context, itemID int64, termIDs []int64) error
	SetItemTags(ctx context.Context, itemID int64, names []string) error
	RemoveDefaultCategory(ctx context.Context, itemID int64, slug string) (content.DefaultCategoryResult, error)
}

// Caller sends one prompt to a provider. providers.Provider implements it.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
	Name() string
}

// EventLogger receives driver entries. *logging.Logger implements it.
type EventLogger interface {
	Log(ctx context.Context, level logging.Level, message string, fields map[string]any)
}

// Recorder receives driver metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordItem(outcome string)
	RecordTerms(kind string, n int)
	RecordRejected(kind string, n int)
	RecordRun(duration time.Duration)
}

// Progress observes a run item by item. *cli.Progress implements it.
type Progress interface {
	Start(total int)
	Update(done int)
	Finish()
}

// Options bound how many terms each item is filled up to.
type Options struct {
	// MaxCategories is the category count each item is filled up to.
	MaxCategories int

	// MaxTags is the tag count each item is filled up to.
	MaxTags int

	// DefaultCategory is the slug removed from every processed item.
	DefaultCategory string

	// BatchLimit caps the items processed per run. Zero means all.
	BatchLimit int
}

// OptionsFromConfig resolves the configured options, applying defaults for
// unset values.
func OptionsFromConfig(cfg config.SEOConfig) Options {
	opts := Options{
		MaxCategories:   config.IntValue(cfg.MaxCategories, config.DefaultMaxCategories),
		MaxTags:         config.IntValue(cfg.MaxTags, config.DefaultMaxTags),
		DefaultCategory: cfg.DefaultCategory,
		BatchLimit:      cfg.BatchLimit,
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = config.DefaultDefaultCategory
	}
	return opts
}

// Item outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
)

// ItemReport describes what one item received.
type ItemReport struct {
	ItemID          int64    `json:"item_id"`
	Title           string   `json:"title"`
	CategoriesAdded []string `json:"categories_added"`
	TagsAdded       []string `json:"tags_added"`
	Rejected        []string `json:"rejected,omitempty"`
	DefaultCategory string   `json:"default_category"`
	Errors          []string `json:"errors,omitempty"`
}

// Outcome is OutcomeFailed when any step of the item failed.
func (r *ItemReport) Outcome() string {
	if len(r.Errors) > 0 {
		return OutcomeFailed
	}
	return OutcomeProcessed
}

// Report summarizes one run.
type Report struct {
	RunID     string        `json:"run_id"`
	Provider  string        `json:"provider"`
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	Items     []*ItemReport `json:"items"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
