package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
)

// DefaultQueryCacheTTL bounds how long a cached query result is served.
const DefaultQueryCacheTTL = 5 * time.Minute

// QueryHandler executes one query type and returns its result.
type QueryHandler func(ctx context.Context, q *Query) (interface{}, error)

type cacheEntry struct {
	result   interface{}
	storedAt time.Time
}

// QueryBus routes each query to exactly one registered handler and caches
// results under a key derived from the query name and payload. Entries expire
// after the TTL and are evicted lazily on the next access; commands never
// invalidate the cache automatically, so coherence across writes is the
// caller's responsibility.
type QueryBus struct {
	handlers map[string]QueryHandler
	cache    map[string]cacheEntry
	ttl      time.Duration
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewQueryBus(logger *zap.Logger, ttl time.Duration) *QueryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	return &QueryBus{
		handlers: make(map[string]QueryHandler),
		cache:    make(map[string]cacheEntry),
		ttl:      ttl,
		logger:   logger,
	}
}

// Register binds a query name to a handler with the same last-registration-
// wins semantics as the command bus.
func (b *QueryBus) Register(name string, handler QueryHandler) {
	if name == "" || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[name]; exists {
		b.logger.Warn("query handler replaced", zap.String("query", name))
	}
	b.handlers[name] = handler
}

// Execute returns the cached result while it is fresh, otherwise invokes the
// handler and stores the result under the derived key.
func (b *QueryBus) Execute(ctx context.Context, q *Query) (interface{}, error) {
	if q == nil {
		return nil, domain.ErrInvalidPayload
	}
	b.mu.RLock()
	handler, ok := b.handlers[q.Name]
	b.mu.RUnlock()
	if !ok {
		return nil, domain.NewErrorf(domain.ErrCodeNotRegistered, "query handler %s not registered", q.Name)
	}

	key := cacheKey(q)
	if result, hit := b.lookup(key); hit {
		return result, nil
	}

	result, err := handler(ctx, q)
	if err != nil {
		b.logger.Error("query failed",
			zap.String("query", q.Name),
			zap.String("query_id", q.QueryID),
			zap.Error(err))
		return nil, err
	}

	b.mu.Lock()
	b.cache[key] = cacheEntry{result: result, storedAt: time.Now()}
	b.mu.Unlock()
	return result, nil
}

// InvalidateCache removes every cached entry for the given query name.
func (b *QueryBus) InvalidateCache(queryName string) {
	prefix := queryName + "::"
	b.mu.Lock()
	defer b.mu.Unlock()
	for key := range b.cache {
		if strings.HasPrefix(key, prefix) {
			delete(b.cache, key)
		}
	}
}

// ClearCache removes all cached entries.
func (b *QueryBus) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]cacheEntry)
}

// CacheSize returns the number of live cache entries, for monitoring.
func (b *QueryBus) CacheSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cache)
}

// Reset clears registrations and cache, for test isolation.
func (b *QueryBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string]QueryHandler)
	b.cache = make(map[string]cacheEntry)
}

// lookup returns a fresh cached result and lazily deletes a stale one.
func (b *QueryBus) lookup(key string) (interface{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.cache[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > b.ttl {
		delete(b.cache, key)
		return nil, false
	}
	return entry.result, true
}

// cacheKey derives a deterministic key from the query name and payload.
// JSON marshalling sorts map keys, so equal payloads yield equal keys.
func cacheKey(q *Query) string {
	payload, err := json.Marshal(q.Data)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", q.Data))
	}
	return q.Name + "::" + string(payload)
}
