package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Item statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "publish"
)

// Taxonomy names a term namespace.
type Taxonomy string

const (
	TaxonomyCategory Taxonomy = "category"
	TaxonomyTag      Taxonomy = "post_tag"
)

// DefaultCategoryName is the category every store starts with and assigns
// to items created without categories.
const (
	DefaultCategoryName = "Uncategorized"
	DefaultCategorySlug = "uncategorized"
)

// ErrItemNotFound is returned for operations on an unknown item.
var ErrItemNotFound = errors.New("item not found")

// ErrTermNotFound is returned when a term id does not exist.
var ErrTermNotFound = errors.New("term not found")

// Item is one content record.
type Item struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewItem describes an item to add.
type NewItem struct {
	Title   string
	Content string
	Excerpt string

	// Status defaults to StatusDraft.
	Status string

	// Categories are category names, created when absent. Empty assigns the
	// default category.
	Categories []string

	// Tags are tag names, created when absent.
	Tags []string
}

// Term is a category or tag.
type Term struct {
	ID       int64    `json:"id"`
	Taxonomy Taxonomy `json:"taxonomy"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
}

// RelatedItem is an item and the number of terms it shares with another.
type RelatedItem struct {
	Item   Item `json:"item"`
	Shared int  `json:"shared"`
}

func (t *Term) isDefaultCategory() bool {
	return t.Taxonomy == TaxonomyCategory && t.Slug == DefaultCategorySlug
}

func sortRelated(items []RelatedItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Shared != items[j].Shared {
			return items[i].Shared > items[j].Shared
		}
		return items[i].Item.ID < items[j].Item.ID
	})
}

// DefaultCategoryResult is the outcome of RemoveDefaultCategory.
type DefaultCategoryResult int

const (
	// DefaultRemoved means the category was assigned and has been removed.
	DefaultRemoved DefaultCategoryResult = iota

	// DefaultNotAssigned means the item did not carry the category.
	DefaultNotAssigned

	// DefaultMissing means no category with the slug exists.
	DefaultMissing
)

// String returns the result name.
func (r DefaultCategoryResult) String() string {
	switch r {
	case DefaultRemoved:
		return "removed"
	case DefaultNotAssigned:
		return "not_assigned"
	case DefaultMissing:
		return "missing"
	default:
		return fmt.Sprintf("DefaultCategoryResult(%d)", int(r))
	}
}

// Store is a content store. The processing driver uses the subset it
// declares; the remaining methods serve seeding and inspection.
type Store interface {
	DraftItems(ctx context.Context) ([]Item, error)
	CategoryCount(ctx context.Context, itemID int64) (int, error)
	TagCount(ctx context.Context, itemID int64) (int, error)

	// FindOrCreateCategory returns the category named name, matched
	// case-insensitively, creating it when absent. The bool reports creation.
	FindOrCreateCategory(ctx context.Context, name string) (Term, bool, error)
	FindOrCreateTag(ctx context.Context, name string) (Term, bool, error)

	// SetItemCategories adds the categories to the item's existing ones.
	SetItemCategories(ctx context.Context, itemID int64, termIDs []int64) error

	// SetItemTags adds the named tags to the item's existing ones, creating
	// tags that do not exist.
	SetItemTags(ctx context.Context, itemID int64, names []string) error

	RemoveDefaultCategory(ctx context.Context, itemID int64, slug string) (DefaultCategoryResult, error)

	AddItem(ctx context.Context, item NewItem) (Item, error)
	Item(ctx context.Context, itemID int64) (Item, error)
	ItemTerms(ctx context.Context, itemID int64, taxonomy Taxonomy) ([]Term, error)

	// RelatedItems returns the other items sharing at least one category or
	// tag with the item, most shared terms first and then by id. The default
	// category is not counted as shared.
	RelatedItems(ctx context.Context, itemID int64) ([]RelatedItem, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// StorageError represents an error from a store backend.
type StorageError struct {
	Backend   string // "memory" or "sqlite"
	Operation string // Operation that failed
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("content store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func newStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// Slugify lowercases name and joins its letter and digit runs with hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("term name is empty")
	}
	return name, nil
}
