package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens or creates the database at config.Path.
func NewSQLiteStore(config SQLiteConfig) (*SQLiteStore, error) {
	if config.Path == "" {
		return nil, newStorageError("sqlite", "open", errors.New("database path is required"))
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newStorageError("sqlite", "create_dir", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on",
		config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}

	// Single writer; find-or-create relies on it.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "content.sqlite"),
		now:    time.Now,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite content store initialized", "path", config.Path)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return newStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return newStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return newStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// DraftItems returns draft items ordered by id.
func (s *SQLiteStore) DraftItems(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, excerpt, status, created_at FROM items WHERE status = ? ORDER BY id`,
		StatusDraft)
	if err != nil {
		return nil, newStorageError("sqlite", "draft_items", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Content, &item.Excerpt, &item.Status, &item.CreatedAt); err != nil {
			return nil, newStorageError("sqlite", "draft_items", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "draft_items", err)
	}
	return out, nil
}

func (s *SQLiteStore) itemExists(ctx context.Context, q querier, itemID int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return newStorageError("sqlite", "item_exists", err)
	}
	return nil
}

func (s *SQLiteStore) count(ctx context.Context, itemID int64, taxonomy Taxonomy) (int, error) {
	if err := s.itemExists(ctx, s.db, itemID); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM item_terms it
		JOIN terms t ON t.id = it.term_id
		WHERE it.item_id = ? AND t.taxonomy = ?`, itemID, string(taxonomy)).Scan(&n)
	if err != nil {
		return 0, newStorageError("sqlite", "count_terms", err)
	}
	return n, nil
}

// CategoryCount returns the number of categories on the item.
func (s *SQLiteStore) CategoryCount(ctx context.Context, itemID int64) (int, error) {
	return s.count(ctx, itemID, TaxonomyCategory)
}

// TagCount returns the number of tags on the item.
func (s *SQLiteStore) TagCount(ctx context.Context, itemID int64) (int, error) {
	return s.count(ctx, itemID, TaxonomyTag)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) findOrCreate(ctx context.Context, q querier, taxonomy Taxonomy, name string) (Term, bool, error) {
	name, err := validName(name)
	if err != nil {
		return Term{}, false, newStorageError("sqlite", "find_or_create_term", err)
	}

	term := Term{Taxonomy: taxonomy}
	err = q.QueryRowContext(ctx,
		`SELECT id, name, slug FROM terms WHERE taxonomy = ? AND name = ? COLLATE NOCASE`,
		string(taxonomy), name).Scan(&term.ID, &term.Name, &term.Slug)
	if err == nil {
		return term, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Term{}, false, newStorageError("sqlite", "find_term", err)
	}

	term.Name = name
	term.Slug = Slugify(name)
	res, err := q.ExecContext(ctx,
		`INSERT INTO terms (taxonomy, name, slug) VALUES (?, ?, ?)`,
		string(taxonomy), term.Name, term.Slug)
	if err != nil {
		return Term{}, false, newStorageError("sqlite", "create_term", err)
	}
	if term.ID, err = res.LastInsertId(); err != nil {
		return Term{}, false, newStorageError("sqlite", "create_term", err)
	}
	return term, true, nil
}

// FindOrCreateCategory implements Store.
func (s *SQLiteStore) FindOrCreateCategory(ctx context.Context, name string) (Term, bool, error) {
	return s.findOrCreate(ctx, s.db, TaxonomyCategory, name)
}

// FindOrCreateTag implements Store.
func (s *SQLiteStore) FindOrCreateTag(ctx context.Context, name string) (Term, bool, error) {
	return s.findOrCreate(ctx, s.db, TaxonomyTag, name)
}

// SetItemCategories implements Store.
func (s *SQLiteStore) SetItemCategories(ctx context.Context, itemID int64, termIDs []int64) error {
	return s.inTx(ctx, "set_item_categories", func(tx *sql.Tx) error {
		if err := s.itemExists(ctx, tx, itemID); err != nil {
			return err
		}
		for _, termID := range termIDs {
			var taxonomy string
			err := tx.QueryRowContext(ctx, `SELECT taxonomy FROM terms WHERE id = ?`, termID).Scan(&taxonomy)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && Taxonomy(taxonomy) != TaxonomyCategory) {
				return ErrTermNotFound
			}
			if err != nil {
				return err
			}
			if err := link(ctx, tx, itemID, termID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetItemTags implements Store.
func (s *SQLiteStore) SetItemTags(ctx context.Context, itemID int64, names []string) error {
	return s.inTx(ctx, "set_item_tags", func(tx *sql.Tx) error {
		if err := s.itemExists(ctx, tx, itemID); err != nil {
			return err
		}
		for _, name := range names {
			term, _, err := s.findOrCreate(ctx, tx, TaxonomyTag, name)
			if err != nil {
				return err
			}
			if err := link(ctx, tx, itemID, term.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func link(ctx context.Context, q querier, itemID, termID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_terms (item_id, term_id) VALUES (?, ?)`, itemID, termID)
	return err
}

// RemoveDefaultCategory implements Store.
func (s *SQLiteStore) RemoveDefaultCategory(ctx context.Context, itemID int64, slug string) (DefaultCategoryResult, error) {
	var result DefaultCategoryResult
	err := s.inTx(ctx, "remove_default_category", func(tx *sql.Tx) error {
		if err := s.itemExists(ctx, tx, itemID); err != nil {
			return err
		}

		var termID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM terms WHERE taxonomy = ? AND slug = ? ORDER BY id LIMIT 1`,
			string(TaxonomyCategory), slug).Scan(&termID)
		if errors.Is(err, sql.ErrNoRows) {
			result = DefaultMissing
			return nil
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM item_terms WHERE item_id = ? AND term_id = ?`, itemID, termID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			result = DefaultNotAssigned
			return nil
		}
		result = DefaultRemoved
		return nil
	})
	return result, err
}

// AddItem implements Store.
func (s *SQLiteStore) AddItem(ctx context.Context, n NewItem) (Item, error) {
	item := Item{
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

	err := s.inTx(ctx, "add_item", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO items (title, content, excerpt, status, created_at) VALUES (?, ?, ?, ?, ?)`,
			item.Title, item.Content, item.Excerpt, item.Status, item.CreatedAt)
		if err != nil {
			return err
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		add := func(taxonomy Taxonomy, names []string) error {
			for _, name := range names {
				term, _, err := s.findOrCreate(ctx, tx, taxonomy, name)
				if err != nil {
					return err
				}
				if err := link(ctx, tx, item.ID, term.ID); err != nil {
					return err
				}
			}
			return nil
		}
		if err := add(TaxonomyCategory, categories); err != nil {
			return err
		}
		return add(TaxonomyTag, n.Tags)
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// Item returns one item.
func (s *SQLiteStore) Item(ctx context.Context, itemID int64) (Item, error) {
	var item Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, excerpt, status, created_at FROM items WHERE id = ?`, itemID).
		Scan(&item.ID, &item.Title, &item.Content, &item.Excerpt, &item.Status, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, newStorageError("sqlite", "get_item", err)
	}
	return item, nil
}

// ItemTerms returns the item's terms in the taxonomy ordered by name.
func (s *SQLiteStore) ItemTerms(ctx context.Context, itemID int64, taxonomy Taxonomy) ([]Term, error) {
	if err := s.itemExists(ctx, s.db, itemID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug FROM item_terms it
		JOIN terms t ON t.id = it.term_id
		WHERE it.item_id = ? AND t.taxonomy = ?
		ORDER BY t.name`, itemID, string(taxonomy))
	if err != nil {
		return nil, newStorageError("sqlite", "item_terms", err)
	}
	defer rows.Close()

	var out []Term
	for rows.Next() {
		term := Term{Taxonomy: taxonomy}
		if err := rows.Scan(&term.ID, &term.Name, &term.Slug); err != nil {
			return nil, newStorageError("sqlite", "item_terms", err)
		}
		out = append(out, term)
	}
	return out, rows.Err()
}

// RelatedItems returns items sharing terms with the item.
func (s *SQLiteStore) RelatedItems(ctx context.Context, itemID int64) ([]RelatedItem, error) {
	if err := s.itemExists(ctx, s.db, itemID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.title, i.content, i.excerpt, i.status, i.created_at, COUNT(*) AS shared
		FROM item_terms mine
		JOIN terms t ON t.id = mine.term_id
		JOIN item_terms other ON other.term_id = mine.term_id AND other.item_id != mine.item_id
		JOIN items i ON i.id = other.item_id
		WHERE mine.item_id = ? AND NOT (t.taxonomy = ? AND t.slug = ?)
		GROUP BY i.id
		ORDER BY shared DESC, i.id`,
		itemID, string(TaxonomyCategory), DefaultCategorySlug)
	if err != nil {
		return nil, newStorageError("sqlite", "related_items", err)
	}
	defer rows.Close()

	var out []RelatedItem
	for rows.Next() {
		var r RelatedItem
		if err := rows.Scan(&r.Item.ID, &r.Item.Title, &r.Item.Content, &r.Item.Excerpt,
			&r.Item.Status, &r.Item.CreatedAt, &r.Shared); err != nil {
			return nil, newStorageError("sqlite", "related_items", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "related_items", err)
	}
	return out, nil
}

// inTx runs fn in a transaction. ErrItemNotFound and ErrTermNotFound pass
// through unwrapped; other errors become StorageErrors.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newStorageError("sqlite", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		var se *StorageError
		if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrTermNotFound) || errors.As(err, &se) {
			return err
		}
		return newStorageError("sqlite", op, err)
	}
	if err := tx.Commit(); err != nil {
		return newStorageError("sqlite", op, err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.config.Path
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return newStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newStorageError("sqlite", "close", err)
	}
	return nil
}
