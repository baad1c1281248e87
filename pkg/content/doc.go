// Package content provides reference content stores for the processing
// driver.
//
// A store holds items, categories and tags. It is deliberately small: the
// driver only needs draft items, term counts, find-or-create for terms,
// additive assignment, and removal of the default category.
//
// Two backends are available:
//
//   - MemoryStore for tests and dry runs
//   - SQLiteStore backed by github.com/mattn/go-sqlite3
//
// Both start with the "Uncategorized" category and assign it to items added
// without categories. Term names match case-insensitively.
package content
