package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Store keeps serialized tables for a limited time.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSource serves tables from a Store and refreshes them from the
// wrapped Source when they expire. Only USD tables are stored; other bases
// are derived on read.
type CachedSource struct {
	next  Source
	store Store
	ttl   time.Duration
}

// NewCachedSource wraps next with store.
func NewCachedSource(next Source, store Store, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, store: store, ttl: ttl}
}

const cacheKey = "rates:USD"

// GetRates implements Source. Store failures are logged and bypassed; only
// a failure of the wrapped source is returned.
func (c *CachedSource) GetRates(ctx context.Context, base currency.Code) (*currency.Table, error) {
	log := logger.Named("rates")

	if raw, ok, err := c.store.Get(ctx, cacheKey); err != nil {
		log.Warnw("rate cache read failed", "error", err)
	} else if ok {
		var table currency.Table
		if err := json.Unmarshal(raw, &table); err == nil {
			if out, err := table.Rebase(base); err == nil {
				return out, nil
			}
		}
		log.Warnw("discarding unreadable cached rate table", "key", cacheKey)
	}

	table, err := c.next.GetRates(ctx, currency.USD)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(table); err == nil {
		if err := c.store.Set(ctx, cacheKey, raw, c.ttl); err != nil {
			log.Warnw("rate cache write failed", "error", err)
		}
	}

	out, err := table.Rebase(base)
	if err != nil {
		return nil, unavailable("%v", err)
	}
	return out, nil
}

// RedisStore is a Store backed by redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// ConnectRedis returns a client for addr, or nil when addr is empty, in
// which case callers run without a shared cache.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}
