// Package storage provides persistence backends for rate limit state.
//
// # Overview
//
// A provider's state is its persisted per-minute ceiling and its current
// counting window. Two implementations are provided:
//
//   - Memory: fast in-memory storage (default, no persistence)
//   - SQLite: file-based persistence shared by every process using the file
//
// # Usage
//
//	backend, err := storage.Open(config.StoreConfig{Backend: "sqlite", SQLitePath: "data/ratelimits.db"})
//
//	state := &storage.LimitState{
//	    Provider: "openai",
//	    Limit:    90,
//	    Window:   &storage.WindowState{Start: time.Now(), Count: 1},
//	}
//	err = backend.Save(ctx, state)
//
//	state, err = backend.Load(ctx, "openai") // nil, nil when absent
//
//	err = backend.Update(ctx, "openai", func(s *storage.LimitState) (bool, error) {
//	    s.Window.Count++
//	    return true, nil
//	})
//
// # Thread Safety
//
// All backends are safe for concurrent use. Load, Save, and List hand out
// copies; mutating a returned state does not affect the stored one. Update
// is atomic: in memory under the backend lock, in sqlite under the database
// write lock, which also excludes other processes.
//
// # Cleanup
//
// Windows older than the retention period (70 seconds by default) are dropped
// by Cleanup. The memory backend runs it on a ticker; the sqlite backend is
// cleaned by the scheduler in serve mode.
package storage
