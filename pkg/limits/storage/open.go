package storage

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

// Open creates the backend selected by cfg.
func Open(cfg config.StoreConfig) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	case BackendSQLite:
		return NewSQLiteBackend(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
