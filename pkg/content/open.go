package content

import (
	"fmt"
	"strings"

	"datolab/autoseo/pkg/config"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates the store selected by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		s, err := NewSQLiteStore(SQLiteConfig{Path: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown content backend %q (supported: memory, sqlite)", cfg.Backend)
	}
}
