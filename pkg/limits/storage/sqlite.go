package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// Several processes sharing the same database file see the same windows and
// ceilings, so a serve process and a one-shot CLI run count against one limit.
//
// SQLiteBackend uses a write-ahead log (WAL) for better concurrent performance
// and automatic checkpointing to balance write performance with durability.
type SQLiteBackend struct {
	db               *sql.DB
	dbPath           string
	snapshotInterval time.Duration
	done             chan struct{}
	mu               sync.RWMutex
	closeOnce        sync.Once

	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	SnapshotInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a new SQLite storage backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:               db,
		dbPath:           cfg.DBPath,
		snapshotInterval: cfg.SnapshotInterval,
		done:             make(chan struct{}),
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go backend.checkpointLoop()

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_limits (
		provider TEXT PRIMARY KEY,
		rate_limit INTEGER NOT NULL DEFAULT 0,
		window_start INTEGER,
		window_count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_limits_window_start ON rate_limits(window_start);
	`

	_, err := s.db.Exec(schema)
	return err
}

const saveQuery = `
	INSERT INTO rate_limits (provider, rate_limit, window_start, window_count, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (provider) DO UPDATE SET
		rate_limit = excluded.rate_limit,
		window_start = excluded.window_start,
		window_count = excluded.window_count,
		updated_at = excluded.updated_at
`

const loadQuery = `
	SELECT provider, rate_limit, window_start, window_count, updated_at
	FROM rate_limits
	WHERE provider = ?
`

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(saveQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(loadQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM rate_limits WHERE provider = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT provider, rate_limit, window_start, window_count, updated_at
		FROM rate_limits
		ORDER BY provider
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Save persists the state for a provider.
func (s *SQLiteBackend) Save(ctx context.Context, state *LimitState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.saveStmt.ExecContext(ctx, saveArgs(state)...); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

func saveArgs(state *LimitState) []any {
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	var (
		windowStart sql.NullInt64
		windowCount int
	)
	if state.Window != nil {
		windowStart = sql.NullInt64{Int64: state.Window.Start.UnixNano(), Valid: true}
		windowCount = state.Window.Count
	}
	return []any{state.Provider, state.Limit, windowStart, windowCount, updated.UnixNano()}
}

// Load retrieves the state for a provider.
func (s *SQLiteBackend) Load(ctx context.Context, provider string) (*LimitState, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := scanState(s.loadStmt.QueryRowContext(ctx, provider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	return state, nil
}

// Update applies fn inside a BEGIN IMMEDIATE transaction. The write lock is
// taken before the read, so another process sharing the file waits (up to
// the busy timeout) instead of reading a state that is about to change.
func (s *SQLiteBackend) Update(ctx context.Context, provider string, fn UpdateFunc) (err error) {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin update: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	state, err := scanState(conn.QueryRowContext(ctx, loadQuery, provider))
	if errors.Is(err, sql.ErrNoRows) {
		state, err = &LimitState{Provider: provider}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	save, err := fn(state)
	if err != nil {
		return err
	}
	if save {
		state.Provider = provider
		if _, err = conn.ExecContext(ctx, saveQuery, saveArgs(state)...); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

// Delete removes the state for a provider.
func (s *SQLiteBackend) Delete(ctx context.Context, provider string) error {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.deleteStmt.ExecContext(ctx, provider); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return nil
}

// List returns every stored state ordered by provider.
func (s *SQLiteBackend) List(ctx context.Context) ([]*LimitState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var states []*LimitState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return states, nil
}

// Cleanup drops windows that started before olderThan and removes rows left
// with neither a ceiling nor a window.
func (s *SQLiteBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE rate_limits
		SET window_start = NULL, window_count = 0
		WHERE window_start IS NOT NULL AND window_start < ?
	`, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}

	dropped, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE rate_limit = 0 AND window_start IS NULL`); err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	return int(dropped), nil
}

// Close releases any resources held by the backend.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{s.saveStmt, s.loadStmt, s.deleteStmt, s.listStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// Path returns the database file path.
func (s *SQLiteBackend) Path() string {
	return s.dbPath
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteBackend) checkpointLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*LimitState, error) {
	var (
		state       LimitState
		windowStart sql.NullInt64
		windowCount int
		updatedAt   int64
	)

	if err := row.Scan(&state.Provider, &state.Limit, &windowStart, &windowCount, &updatedAt); err != nil {
		return nil, err
	}

	state.UpdatedAt = time.Unix(0, updatedAt)
	if windowStart.Valid {
		state.Window = &WindowState{
			Start: time.Unix(0, windowStart.Int64),
			Count: windowCount,
		}
	}

	return &state, nil
}
