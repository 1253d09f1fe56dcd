package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rbacarra/cliweather/internal/models"
	"github.com/rbacarra/cliweather/internal/observability"
)

// FileStore persists one JSON file per cache key under dir. The directory is
// shared across process invocations; concurrent invocations are not locked
// against each other (last writer wins), which is acceptable for a
// single-user interactive tool.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates the cache directory if needed and returns a store
// backed by it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create cache dir: %v", ErrPersistence, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// path derives the file name for a key. MD5 keeps names short and free of
// characters that need escaping.
func (s *FileStore) path(key Key) string {
	sum := md5.Sum([]byte(key.String()))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// Get loads the entry for key. Missing files are a plain miss. Unreadable or
// corrupt files are removed, reported as ErrPersistence, and treated as a
// miss by callers.
func (s *FileStore) Get(ctx context.Context, key Key) (models.ForecastSeries, bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, false, err
	}
	p := s.path(key)
	raw, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, false, nil
		}
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		return nil, false, false, fmt.Errorf("%w: read %s: %v", ErrPersistence, p, err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(p)
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		return nil, false, false, fmt.Errorf("%w: corrupt entry %s: %v", ErrPersistence, p, err)
	}
	return entry.Payload, entry.Fresh(s.now()), true, nil
}

// Put overwrites any existing entry for key.
func (s *FileStore) Put(ctx context.Context, key Key, payload models.ForecastSeries, fetchedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(Entry{Key: key, FetchedAt: fetchedAt, Payload: payload})
	if err != nil {
		return fmt.Errorf("%w: encode entry: %v", ErrPersistence, err)
	}
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("put").Inc()
		return fmt.Errorf("%w: write entry: %v", ErrPersistence, err)
	}
	return nil
}

// Remove deletes the entry for key if present.
func (s *FileStore) Remove(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		observability.CacheErrorsTotal.WithLabelValues("remove").Inc()
		return fmt.Errorf("%w: remove entry: %v", ErrPersistence, err)
	}
	return nil
}

// Clear removes every cache file and returns how many were deleted.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	return s.sweep(ctx, func(Entry, error) bool { return true })
}

// Prune removes only stale and corrupt cache files.
func (s *FileStore) Prune(ctx context.Context) (int, error) {
	now := s.now()
	return s.sweep(ctx, func(e Entry, err error) bool {
		return err != nil || !e.Fresh(now)
	})
}

// sweep walks the cache dir and deletes files the predicate selects. The
// predicate receives the decoded entry and any decode error.
func (s *FileStore) sweep(ctx context.Context, shouldDelete func(Entry, error) bool) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("clear").Inc()
		return 0, fmt.Errorf("%w: read cache dir: %v", ErrPersistence, err)
	}
	removed := 0
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		p := filepath.Join(s.dir, de.Name())
		entry, derr := s.decode(p)
		if !shouldDelete(entry, derr) {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			observability.CacheErrorsTotal.WithLabelValues("clear").Inc()
			return removed, fmt.Errorf("%w: remove %s: %v", ErrPersistence, p, err)
		}
		removed++
	}
	return removed, nil
}

// Stats counts total, fresh, and stale entries. Corrupt files count as stale.
func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: read cache dir: %v", ErrPersistence, err)
	}
	now := s.now()
	var st Stats
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		st.Total++
		entry, derr := s.decode(filepath.Join(s.dir, de.Name()))
		if derr == nil && entry.Fresh(now) {
			st.Fresh++
		} else {
			st.Stale++
		}
	}
	return st, nil
}

func (s *FileStore) decode(path string) (Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
