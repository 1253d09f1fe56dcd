package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/rbacarra/cliweather/internal/models"
	"github.com/rbacarra/cliweather/internal/observability"
)

const keyPrefix = "cliweather:"

// hardExpiry caps how long memcached keeps an entry around. Freshness is
// computed from FetchedAt, so an entry past the 30-minute window is still
// retrievable for stale fallback until memcached drops it here.
const hardExpiry = 24 * time.Hour

// MemcachedStore implements Store on memcached, for users who point several
// machines at one shared cache.
type MemcachedStore struct {
	client *memcache.Client
	now    func() time.Time
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns use package defaults if zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedStore, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedStore{client: client, now: time.Now}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemcachedStore) key(k Key) string {
	return keyPrefix + k.String()
}

// Get implements Store.Get. Connection and decode failures report
// ErrPersistence so the caller falls back to a live fetch.
func (s *MemcachedStore) Get(ctx context.Context, key Key) (models.ForecastSeries, bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, false, err
	}
	item, err := s.client.Get(s.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return nil, false, false, nil
		}
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		return nil, false, false, fmt.Errorf("%w: memcached get: %v", ErrPersistence, err)
	}
	var entry Entry
	if err := json.Unmarshal(item.Value, &entry); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		return nil, false, false, fmt.Errorf("%w: decode entry: %v", ErrPersistence, err)
	}
	return entry.Payload, entry.Fresh(s.now()), true, nil
}

// Put implements Store.Put.
func (s *MemcachedStore) Put(ctx context.Context, key Key, payload models.ForecastSeries, fetchedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(Entry{Key: key, FetchedAt: fetchedAt, Payload: payload})
	if err != nil {
		return fmt.Errorf("%w: encode entry: %v", ErrPersistence, err)
	}
	if err := s.client.Set(&memcache.Item{
		Key:        s.key(key),
		Value:      raw,
		Expiration: int32(hardExpiry.Seconds()),
	}); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("put").Inc()
		return fmt.Errorf("%w: memcached set: %v", ErrPersistence, err)
	}
	return nil
}

// Remove implements Store.Remove.
func (s *MemcachedStore) Remove(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Delete(s.key(key)); err != nil && err != memcache.ErrCacheMiss {
		observability.CacheErrorsTotal.WithLabelValues("remove").Inc()
		return fmt.Errorf("%w: memcached delete: %v", ErrPersistence, err)
	}
	return nil
}

// Clear flushes every entry on the server. Memcached cannot report how many
// keys it held, so the count is always zero.
func (s *MemcachedStore) Clear(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.client.FlushAll(); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("clear").Inc()
		return 0, fmt.Errorf("%w: memcached flush: %v", ErrPersistence, err)
	}
	return 0, nil
}

// Ping checks if memcached is reachable.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

// Close closes the client connections.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
