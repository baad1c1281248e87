package content

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]*Item
	terms  map[int64]*Term
	index  map[string]int64 // taxonomy + lowercase name
	links  map[int64]map[int64]struct{}
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates a store holding only the default category.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		items: make(map[int64]*Item),
		terms: make(map[int64]*Term),
		index: make(map[string]int64),
		links: make(map[int64]map[int64]struct{}),
		now:   time.Now,
	}
	s.createTerm(TaxonomyCategory, DefaultCategoryName)
	return s
}

func termKey(taxonomy Taxonomy, name string) string {
	return string(taxonomy) + "\x00" + strings.ToLower(name)
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// createTerm must be called with the lock held.
func (s *MemoryStore) createTerm(taxonomy Taxonomy, name string) *Term {
	term := &Term{ID: s.id(), Taxonomy: taxonomy, Name: name, Slug: Slugify(name)}
	s.terms[term.ID] = term
	s.index[termKey(taxonomy, name)] = term.ID
	return term
}

// findOrCreate must be called with the lock held.
func (s *MemoryStore) findOrCreate(taxonomy Taxonomy, name string) (Term, bool, error) {
	name, err := validName(name)
	if err != nil {
		return Term{}, false, newStorageError("memory", "find_or_create_term", err)
	}
	if id, ok := s.index[termKey(taxonomy, name)]; ok {
		return *s.terms[id], false, nil
	}
	return *s.createTerm(taxonomy, name), true, nil
}

// DraftItems returns draft items ordered by id.
func (s *MemoryStore) DraftItems(ctx context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Item
	for _, item := range s.items {
		if item.Status == StatusDraft {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) count(itemID int64, taxonomy Taxonomy) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[itemID]; !ok {
		return 0, ErrItemNotFound
	}
	n := 0
	for termID := range s.links[itemID] {
		if s.terms[termID].Taxonomy == taxonomy {
			n++
		}
	}
	return n, nil
}

// CategoryCount returns the number of categories on the item.
func (s *MemoryStore) CategoryCount(ctx context.Context, itemID int64) (int, error) {
	return s.count(itemID, TaxonomyCategory)
}

// TagCount returns the number of tags on the item.
func (s *MemoryStore) TagCount(ctx context.Context, itemID int64) (int, error) {
	return s.count(itemID, TaxonomyTag)
}

// FindOrCreateCategory implements Store.
func (s *MemoryStore) FindOrCreateCategory(ctx context.Context, name string) (Term, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findOrCreate(TaxonomyCategory, name)
}

// FindOrCreateTag implements Store.
func (s *MemoryStore) FindOrCreateTag(ctx context.Context, name string) (Term, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findOrCreate(TaxonomyTag, name)
}

// SetItemCategories implements Store.
func (s *MemoryStore) SetItemCategories(ctx context.Context, itemID int64, termIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return ErrItemNotFound
	}
	for _, termID := range termIDs {
		term, ok := s.terms[termID]
		if !ok || term.Taxonomy != TaxonomyCategory {
			return ErrTermNotFound
		}
	}
	for _, termID := range termIDs {
		s.link(itemID, termID)
	}
	return nil
}

// SetItemTags implements Store.
func (s *MemoryStore) SetItemTags(ctx context.Context, itemID int64, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return ErrItemNotFound
	}
	for _, name := range names {
		term, _, err := s.findOrCreate(TaxonomyTag, name)
		if err != nil {
			return err
		}
		s.link(itemID, term.ID)
	}
	return nil
}

// link must be called with the lock held.
func (s *MemoryStore) link(itemID, termID int64) {
	if s.links[itemID] == nil {
		s.links[itemID] = make(map[int64]struct{})
	}
	s.links[itemID][termID] = struct{}{}
}

// RemoveDefaultCategory implements Store.
func (s *MemoryStore) RemoveDefaultCategory(ctx context.Context, itemID int64, slug string) (DefaultCategoryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return 0, ErrItemNotFound
	}

	var target *Term
	for _, term := range s.terms {
		if term.Taxonomy == TaxonomyCategory && term.Slug == slug {
			if target == nil || term.ID < target.ID {
				target = term
			}
		}
	}
	if target == nil {
		return DefaultMissing, nil
	}
	if _, ok := s.links[itemID][target.ID]; !ok {
		return DefaultNotAssigned, nil
	}
	delete(s.links[itemID], target.ID)
	return DefaultRemoved, nil
}

// AddItem implements Store.
func (s *MemoryStore) AddItem(ctx context.Context, n NewItem) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &Item{
		ID:        s.id(),
		Title:     n.Title,
		Content:   n.Content,
		Excerpt:   n.Excerpt,
		Status:    n.Status,
		CreatedAt: s.now().UTC(),
	}
	if item.Status == "" {
		item.Status = StatusDraft
	}

	categories := n.Categories
	if len(categories) == 0 {
		categories = []string{DefaultCategoryName}
	}
	var termIDs []int64
	for _, name := range categories {
		term, _, err := s.findOrCreate(TaxonomyCategory, name)
		if err != nil {
			return Item{}, err
		}
		termIDs = append(termIDs, term.ID)
	}
	for _, name := range n.Tags {
		term, _, err := s.findOrCreate(TaxonomyTag, name)
		if err != nil {
			return Item{}, err
		}
		termIDs = append(termIDs, term.ID)
	}

	s.items[item.ID] = item
	for _, termID := range termIDs {
		s.link(item.ID, termID)
	}
	return *item, nil
}

// Item returns one item.
func (s *MemoryStore) Item(ctx context.Context, itemID int64) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return *item, nil
}

// ItemTerms returns the item's terms in the taxonomy ordered by name.
func (s *MemoryStore) ItemTerms(ctx context.Context, itemID int64, taxonomy Taxonomy) ([]Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[itemID]; !ok {
		return nil, ErrItemNotFound
	}
	var out []Term
	for termID := range s.links[itemID] {
		if term := s.terms[termID]; term.Taxonomy == taxonomy {
			out = append(out, *term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RelatedItems returns items sharing terms with the item.
func (s *MemoryStore) RelatedItems(ctx context.Context, itemID int64) ([]RelatedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[itemID]; !ok {
		return nil, ErrItemNotFound
	}
	shared := make(map[int64]int)
	for otherID, terms := range s.links {
		if otherID == itemID {
			continue
		}
		for termID := range s.links[itemID] {
			if s.terms[termID].isDefaultCategory() {
				continue
			}
			if _, ok := terms[termID]; ok {
				shared[otherID]++
			}
		}
	}

	out := make([]RelatedItem, 0, len(shared))
	for otherID, n := range shared {
		out = append(out, RelatedItem{Item: *s.items[otherID], Shared: n})
	}
	sortRelated(out)
	return out, nil
}

// Ping succeeds unless ctx is done.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
