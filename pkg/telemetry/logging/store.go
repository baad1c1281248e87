package logging

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxSize is the size ceiling that triggers rotation (5 MiB).
	DefaultMaxSize int64 = 5 * 1024 * 1024

	// DefaultMaxBackups is how many rotated files are kept.
	DefaultMaxBackups = 5

	// BackupTimeLayout is embedded in rotated file names.
	BackupTimeLayout = "2006-01-02-15-04-05.000000"

	backupSuffix = ".bak"
)

// FileStore is the append-only log file plus its rotated backups.
// All operations are serialized by one mutex so an append never races a
// rotation.
type FileStore struct {
	path          string
	maxSize       int64
	maxBackups    int
	rotateOnWrite bool
	now           func() time.Time

	mu sync.Mutex
}

// StoreConfig configures a FileStore.
type StoreConfig struct {
	// Path is the log file location. The parent directory is created.
	Path string

	// MaxSize is the rotation ceiling in bytes.
	// Default: 5 MiB
	MaxSize int64

	// MaxBackups is how many rotated files to keep. Negative keeps none.
	// Default: 5
	MaxBackups int

	// RotateOnWrite checks the ceiling before every append.
	RotateOnWrite bool

	// Now overrides the clock used for backup names.
	Now func() time.Time
}

// NewFileStore creates a store for cfg.Path.
func NewFileStore(cfg StoreConfig) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxBackups < 0 {
		cfg.MaxBackups = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &FileStore{
		path:          cfg.Path,
		maxSize:       cfg.MaxSize,
		maxBackups:    cfg.MaxBackups,
		rotateOnWrite: cfg.RotateOnWrite,
		now:           cfg.Now,
	}, nil
}

// Path returns the current log file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes one line. When rotate-on-write is enabled and the file is
// over the ceiling, it is rotated first and the line starts the new file.
func (s *FileStore) Append(line string) (rotated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rotateOnWrite {
		rotated, err = s.rotateLocked()
		if err != nil {
			return false, err
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return rotated, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return rotated, fmt.Errorf("failed to write log entry: %w", err)
	}
	return rotated, nil
}

// RotateIfNeeded rotates the log file when it exceeds the size ceiling.
func (s *FileStore) RotateIfNeeded() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rotateLocked()
}

func (s *FileStore) rotateLocked() (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() <= s.maxSize {
		return false, nil
	}

	backup := s.backupName()
	if err := os.Rename(s.path, backup); err != nil {
		return false, fmt.Errorf("failed to rotate log file: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return true, fmt.Errorf("failed to create log file: %w", err)
	}
	f.Close()

	if err := s.pruneLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// backupName returns an unused backup path for the current time.
func (s *FileStore) backupName() string {
	base := fmt.Sprintf("%s.%s", s.path, s.now().Format(BackupTimeLayout))
	name := base + backupSuffix
	for i := 1; ; i++ {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s-%d%s", base, i, backupSuffix)
	}
}

type backupFile struct {
	path    string
	modTime time.Time
}

// backupsLocked lists backups newest first by modification time, ties broken
// by name.
func (s *FileStore) backupsLocked() ([]backupFile, error) {
	matches, err := filepath.Glob(s.path + ".*" + backupSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]backupFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{path: m, modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].modTime.After(backups[j].modTime)
		}
		return backups[i].path > backups[j].path
	})
	return backups, nil
}

func (s *FileStore) pruneLocked() error {
	backups, err := s.backupsLocked()
	if err != nil {
		return err
	}
	if len(backups) <= s.maxBackups {
		return nil
	}

	var errs []error
	for _, b := range backups[s.maxBackups:] {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove backup %s: %w", b.path, err))
		}
	}
	return errors.Join(errs...)
}

// Backups returns the rotated backup paths, newest first.
func (s *FileStore) Backups() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.backupsLocked()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(backups))
	for i, b := range backups {
		paths[i] = b.path
	}
	return paths, nil
}

// Lines returns the non-empty lines of the current log file in write order.
// maxLines of 0 returns every line; otherwise only the most recent maxLines.
func (s *FileStore) Lines(maxLines int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if maxLines > 0 && len(lines) > maxLines {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return lines, nil
}

// Clear empties the current log file. Backups are kept.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, nil, 0o644); err != nil {
		return fmt.Errorf("failed to clear log file: %w", err)
	}
	return nil
}

// Size returns the current log file size in bytes.
func (s *FileStore) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
