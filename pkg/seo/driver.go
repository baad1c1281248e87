package seo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"datolab/autoseo/pkg/content"
	"datolab/autoseo/pkg/processing/suggestions"
	"datolab/autoseo/pkg/telemetry/logging"
)

// Config holds the driver's collaborators.
type Config struct {
	Provider Caller
	Store    ContentStore
	Options  Options

	// Logger receives per-item entries. Optional.
	Logger EventLogger

	// Metrics receives item and run outcomes. Optional.
	Metrics Recorder

	// Progress observes each run item by item. Optional.
	Progress Progress

	// Now is the clock (default time.Now).
	Now func() time.Time
}

// Driver fills draft items up to the configured category and tag counts.
// Items are processed one at a time; a failing item never stops the batch.
type Driver struct {
	provider Caller
	store    ContentStore
	opts     Options
	logger   EventLogger
	metrics  Recorder
	progress Progress
	now      func() time.Time
}

// NewDriver creates a driver.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Provider == nil {
		return nil, errors.New("seo: provider is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("seo: content store is required")
	}
	if cfg.Options.MaxCategories < 0 || cfg.Options.MaxTags < 0 {
		return nil, fmt.Errorf("seo: negative term limits (categories %d, tags %d)",
			cfg.Options.MaxCategories, cfg.Options.MaxTags)
	}
	if cfg.Options.DefaultCategory == "" {
		cfg.Options.DefaultCategory = content.DefaultCategorySlug
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Driver{
		provider: cfg.Provider,
		store:    cfg.Store,
		opts:     cfg.Options,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		progress: cfg.Progress,
		now:      cfg.Now,
	}, nil
}

// run is the per-run state.
type run struct {
	terms map[string]content.Term // kind + lowercase name
}

// Run processes every draft item. The returned error is non-nil only when
// the drafts cannot be listed or ctx is cancelled; item failures are
// recorded in the report.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:    uuid.NewString(),
		Provider: d.provider.Name(),
		Started:  d.now(),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	ctx = logging.WithProvider(ctx, report.Provider)

	defer func() {
		report.Finished = d.now()
		if d.metrics != nil {
			d.metrics.RecordRun(report.Duration())
		}
	}()

	d.log(ctx, logging.LevelInfo, "Starting SEO processing", nil)

	items, err := d.store.DraftItems(ctx)
	if err != nil {
		d.log(ctx, logging.LevelError, "Failed to list draft items", map[string]any{"error": err.Error()})
		return report, fmt.Errorf("failed to list draft items: %w", err)
	}
	if len(items) == 0 {
		d.log(ctx, logging.LevelInfo, "No draft items found", nil)
		return report, nil
	}
	if d.opts.BatchLimit > 0 && len(items) > d.opts.BatchLimit {
		items = items[:d.opts.BatchLimit]
	}
	if d.progress != nil {
		d.progress.Start(len(items))
		defer d.progress.Finish()
	}

	state := &run{terms: make(map[string]content.Term)}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			d.log(ctx, logging.LevelWarning, "SEO processing interrupted", map[string]any{
				"processed": report.Processed,
				"failed":    report.Failed,
				"remaining": len(items) - len(report.Items),
			})
			return report, err
		}

		ir := d.processItem(ctx, state, item)
		report.Items = append(report.Items, ir)
		if ir.Outcome() == OutcomeFailed {
			report.Failed++
		} else {
			report.Processed++
		}
		if d.metrics != nil {
			d.metrics.RecordItem(ir.Outcome())
		}
		if d.progress != nil {
			d.progress.Update(len(report.Items))
		}
	}

	d.log(ctx, logging.LevelInfo, "SEO processing complete", map[string]any{
		"processed": report.Processed,
		"failed":    report.Failed,
	})
	return report, nil
}

// ProcessItem fills a single item using a fresh term cache.
func (d *Driver) ProcessItem(ctx context.Context, item content.Item) *ItemReport {
	return d.processItem(ctx, &run{terms: make(map[string]content.Term)}, item)
}

func (d *Driver) processItem(ctx context.Context, state *run, item content.Item) *ItemReport {
	ir := &ItemReport{ItemID: item.ID, Title: item.Title}
	d.log(ctx, logging.LevelInfo, fmt.Sprintf("Processing item %d: %s", item.ID, item.Title), nil)

	d.fill(ctx, state, item, ir, termCategory)
	d.fill(ctx, state, item, ir, termTag)
	d.removeDefault(ctx, item, ir)

	return ir
}

// termKind binds one term taxonomy to its store operations.
type termKind struct {
	name   string // "category" or "tag"
	plural string
	field  string
	max    func(Options) int
	count  func(ContentStore, context.Context, int64) (int, error)
	find   func(ContentStore, context.Context, string) (content.Term, bool, error)
	assign func(ContentStore, context.Context, int64, content.Term) error
	added  func(*ItemReport) *[]string
}

var termCategory = termKind{
	name:   "category",
	plural: "categories",
	field:  suggestions.FieldCategories,
	max:    func(o Options) int { return o.MaxCategories },
	count:  ContentStore.CategoryCount,
	find:   ContentStore.FindOrCreateCategory,
	assign: func(s ContentStore, ctx context.Context, id int64, t content.Term) error {
		return s.SetItemCategories(ctx, id, []int64{t.ID})
	},
	added: func(r *ItemReport) *[]string { return &r.CategoriesAdded },
}

var termTag = termKind{
	name:   "tag",
	plural: "tags",
	field:  suggestions.FieldTags,
	max:    func(o Options) int { return o.MaxTags },
	count:  ContentStore.TagCount,
	find:   ContentStore.FindOrCreateTag,
	assign: func(s ContentStore, ctx context.Context, id int64, t content.Term) error {
		return s.SetItemTags(ctx, id, []string{t.Name})
	},
	added: func(r *ItemReport) *[]string { return &r.TagsAdded },
}

// fill requests and assigns the terms of one kind the item is missing.
func (d *Driver) fill(ctx context.Context, state *run, item content.Item, ir *ItemReport, kind termKind) {
	current, err := kind.count(d.store, ctx, item.ID)
	if err != nil {
		d.fail(ctx, ir, fmt.Sprintf("Failed to count %s for item %d", kind.plural, item.ID), err)
		return
	}

	limit := kind.max(d.opts)
	needed := max(0, limit-current)
	if needed == 0 {
		d.log(ctx, logging.LevelInfo, fmt.Sprintf("Item %d already has the maximum number of %s", item.ID, kind.plural), nil)
		return
	}

	d.log(ctx, logging.LevelInfo, fmt.Sprintf("Generating up to %d %s", needed, kind.plural), map[string]any{
		"item_id": item.ID,
		"current": current,
		"max":     limit,
	})

	text, err := d.provider.Call(ctx, Prompt(kind.field, item, needed))
	if err != nil {
		d.fail(ctx, ir, fmt.Sprintf("Provider error while generating %s for item %d", kind.plural, item.ID), err)
		return
	}

	parsed, err := suggestions.ParseSuggestions(text, kind.field, needed)
	if err != nil {
		d.fail(ctx, ir, fmt.Sprintf("Failed to parse %s response for item %d", kind.plural, item.ID), err)
		return
	}
	if parsed.Stripped {
		d.log(ctx, logging.LevelInfo, "Stripped Markdown code blocks from response", map[string]any{"item_id": item.ID})
	}

	for _, name := range parsed.Rejected {
		d.log(ctx, logging.LevelWarning, fmt.Sprintf("Invalid %s generated (numeric or irrelevant): %s", kind.name, name),
			map[string]any{"item_id": item.ID})
	}
	ir.Rejected = append(ir.Rejected, parsed.Rejected...)
	if d.metrics != nil {
		d.metrics.RecordRejected(kind.name, len(parsed.Rejected))
	}

	assigned := 0
	for _, name := range parsed.Items {
		term, err := d.term(ctx, state, kind, name)
		if err != nil {
			d.fail(ctx, ir, fmt.Sprintf("Failed to create %s: %s", kind.name, name), err)
			continue
		}
		if err := kind.assign(d.store, ctx, item.ID, term); err != nil {
			d.fail(ctx, ir, fmt.Sprintf("Failed to assign %s %s to item %d", kind.name, term.Name, item.ID), err)
			continue
		}
		added := kind.added(ir)
		*added = append(*added, term.Name)
		assigned++
	}
	if d.metrics != nil {
		d.metrics.RecordTerms(kind.name, assigned)
	}
}

// term resolves name through the run cache so each distinct name reaches
// the store once per run.
func (d *Driver) term(ctx context.Context, state *run, kind termKind, name string) (content.Term, error) {
	key := kind.name + "\x00" + strings.ToLower(name)
	if term, ok := state.terms[key]; ok {
		return term, nil
	}

	term, created, err := kind.find(d.store, ctx, name)
	if err != nil {
		return content.Term{}, err
	}
	if created {
		d.log(ctx, logging.LevelInfo, fmt.Sprintf("Created new %s: %s", kind.name, term.Name), nil)
	} else {
		d.log(ctx, logging.LevelInfo, fmt.Sprintf("%s exists: %s", capitalize(kind.name), term.Name), nil)
	}
	state.terms[key] = term
	return term, nil
}

func (d *Driver) removeDefault(ctx context.Context, item content.Item, ir *ItemReport) {
	slug := d.opts.DefaultCategory
	result, err := d.store.RemoveDefaultCategory(ctx, item.ID, slug)
	if err != nil {
		d.fail(ctx, ir, fmt.Sprintf("Failed to remove '%s' category from item %d", slug, item.ID), err)
		return
	}
	ir.DefaultCategory = result.String()

	switch result {
	case content.DefaultRemoved:
		d.log(ctx, logging.LevelInfo, fmt.Sprintf("Removed '%s' category from item %d", slug, item.ID), nil)
	case content.DefaultNotAssigned:
		d.log(ctx, logging.LevelInfo, fmt.Sprintf("'%s' category is not assigned to item %d", slug, item.ID), nil)
	case content.DefaultMissing:
		d.log(ctx, logging.LevelWarning, fmt.Sprintf("'%s' category does not exist", slug), nil)
	}
}

// fail records an item error and logs it as a warning.
func (d *Driver) fail(ctx context.Context, ir *ItemReport, message string, err error) {
	ir.Errors = append(ir.Errors, fmt.Sprintf("%s: %v", message, err))
	d.log(ctx, logging.LevelWarning, message, map[string]any{
		"item_id": ir.ItemID,
		"error":   err.Error(),
	})
}

func (d *Driver) log(ctx context.Context, level logging.Level, message string, fields map[string]any) {
	if d.logger != nil {
		d.logger.Log(ctx, level, message, fields)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
