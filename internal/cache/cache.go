// Package cache memoises search results in a key-value store. Segments are
// immutable, so a result stays valid for as long as the same segment set is
// served; keys carry a generation derived from the segment names.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/query"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/search"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/metrics"
)

const keyPrefix = "fuzzysearch:"

// Store is the byte store behind QueryCache. *redis.Client implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Result is a cached search outcome.
type Result struct {
	Hits      []search.Hit `json:"hits"`
	TotalHits uint64       `json:"total_hits"`
}

type QueryCache struct {
	store      Store
	generation string
	ttl        time.Duration
	metrics    *metrics.Metrics
	group      singleflight.Group
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// New returns a cache over store. m may be nil.
func New(store Store, generation string, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:      store,
		generation: generation,
		ttl:        ttl,
		metrics:    m,
		logger:     slog.Default().With("component", "query-cache"),
	}
}

// Generation fingerprints an ordered segment set.
func Generation(segmentNames []string) string {
	sum := sha256.Sum256([]byte(strings.Join(segmentNames, "\n")))
	return hex.EncodeToString(sum[:8])
}

// Get returns the cached result of q. Store failures count as misses.
func (c *QueryCache) Get(ctx context.Context, q query.Query, limit int) (*Result, bool) {
	key := c.buildKey(q, limit)
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.miss("error")
		return nil, false
	}
	if !ok {
		c.miss("miss")
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss("error")
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.ObserveCache("hit")
	}
	c.logger.Debug("cache hit", "query", q.String(), "key", key)
	return &result, true
}

// Set stores result. Failures are logged and otherwise ignored.
func (c *QueryCache) Set(ctx context.Context, q query.Query, limit int, result *Result) {
	key := c.buildKey(q, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result of q or computes and stores it.
// Concurrent misses on the same key share one computation. Errors are not
// cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	q query.Query,
	limit int,
	computeFn func() (*Result, error),
) (*Result, bool, error) {
	if result, ok := c.Get(ctx, q, limit); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(c.buildKey(q, limit), func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, q, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Result), false, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss(result string) {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.ObserveCache(result)
	}
}

func (c *QueryCache) buildKey(q query.Query, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", q.String(), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.generation, hash[:16])
}
