// Package cache implements the query-keyed result cache: TTL-bounded,
// size-bounded, process-resident, and persisted through a Store as one
// serialized [key, entry] pair array.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// Entry is one cached answer set.
type Entry struct {
	Results   []common.FoodRecord `json:"results"`
	MatchType common.MatchType    `json:"match_type"`
	CreatedAt time.Time           `json:"created_at"`
}

// Manager owns the result cache. All mutation happens under one mutex hold,
// including the evict-then-persist sequence, so a concurrent host cannot lose
// writes.
type Manager struct {
	cfg   config.CacheConfig
	store Store

	mu      sync.Mutex
	entries map[string]Entry
	order   []string // oldest first
}

// NewManager creates a cache manager over the given store and warms it from
// the persisted payload. Returns nil when the cache is disabled. A corrupt
// persisted payload is treated as a cold cache.
func NewManager(cfg config.CacheConfig, store Store) *Manager {
	if !cfg.Enabled {
		common.LogInfo("result cache disabled")
		return nil
	}

	m := &Manager{
		cfg:     cfg,
		store:   store,
		entries: make(map[string]Entry),
	}
	m.restore()

	common.LogInfo("result cache initialized",
		zap.Int("entries", len(m.order)),
		zap.Int("max_entries", cfg.MaxEntries),
		zap.Duration("ttl", cfg.TTL),
		zap.String("backend", cfg.Backend),
	)
	return m
}

// Get returns the entry for queryKey, or ok=false on miss. Expiry is checked
// lazily here: an expired entry is dropped and reported absent.
func (m *Manager) Get(queryKey string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[queryKey]
	if !ok {
		common.LogCacheMiss("result", queryKey)
		return Entry{}, false
	}
	if time.Since(entry.CreatedAt) > m.cfg.TTL {
		m.remove(queryKey)
		common.LogInfo("cache entry expired", zap.String("key", queryKey))
		return Entry{}, false
	}
	common.LogCacheHit("result", queryKey)
	return entry, true
}

// Put stores the entry under queryKey, evicts down to the size bound and
// persists — one atomic update under the lock.
func (m *Manager) Put(ctx context.Context, queryKey string, entry Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[queryKey]; exists {
		m.remove(queryKey)
	}
	m.entries[queryKey] = entry
	m.order = append(m.order, queryKey)

	for len(m.order) > m.cfg.MaxEntries {
		oldest := m.order[0]
		m.remove(oldest)
	}

	m.persist(ctx)
}

// Close persists the current state and closes the store.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	m.persist(context.Background())
	m.mu.Unlock()
	return m.store.Close()
}

// remove deletes queryKey from the map and the order list. Caller holds the
// lock.
func (m *Manager) remove(queryKey string) {
	delete(m.entries, queryKey)
	for i, k := range m.order {
		if k == queryKey {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// persistedPair is one ["queryKey", {entry}] element of the stored array.
type persistedPair [2]json.RawMessage

// persist serializes the entries oldest-first and saves them. Caller holds
// the lock. Persistence failures are logged, not surfaced; the in-memory
// cache stays authoritative for this process.
func (m *Manager) persist(ctx context.Context) {
	pairs := make([]persistedPair, 0, len(m.order))
	for _, key := range m.order {
		rawKey, err := json.Marshal(key)
		if err != nil {
			continue
		}
		rawEntry, err := json.Marshal(m.entries[key])
		if err != nil {
			continue
		}
		pairs = append(pairs, persistedPair{rawKey, rawEntry})
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		common.LogError("failed to serialize cache", zap.Error(err))
		return
	}
	if err := m.store.Save(ctx, data); err != nil {
		common.LogError("failed to persist cache", zap.Error(err))
	}
}

// restore warms the cache from the persisted payload. Anything unreadable
// means a cold cache, rebuilt on the next write.
func (m *Manager) restore() {
	data, err := m.store.Load(context.Background())
	if err != nil {
		common.LogWarn("persisted cache unreadable, starting cold", zap.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}

	var pairs []persistedPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		common.LogWarn("persisted cache corrupt, starting cold", zap.Error(err))
		return
	}

	for _, pair := range pairs {
		var key string
		var entry Entry
		if err := json.Unmarshal(pair[0], &key); err != nil {
			continue
		}
		if err := json.Unmarshal(pair[1], &entry); err != nil {
			continue
		}
		if _, dup := m.entries[key]; dup {
			continue
		}
		m.entries[key] = entry
		m.order = append(m.order, key)
	}
}

// NewStore builds the configured store backend.
func NewStore(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.Namespace)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return NewBadgerStore(cfg.BadgerPath, cfg.Namespace, false)
	}
}
