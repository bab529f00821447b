package cache

import (
	"context"
	"fmt"
	"time"

	"opportunityHub/domain"
	"opportunityHub/internal/worker"
	"opportunityHub/pkg/logger"
	"opportunityHub/pkg/metrics"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached recommendation list.
type Key struct {
	UserID           uint
	Kind             domain.RecommendationKind
	AlgorithmVersion string
}

func (k Key) String() string {
	return fmt.Sprintf("reco:%s:%s:user:%d", k.Kind, k.AlgorithmVersion, k.UserID)
}

// Entry is a computed recommendation list. ComputedAt is the
// computation start time; installs keep the entry with the later start,
// so a slow computation cannot clobber a fresher result.
type Entry struct {
	Items      []domain.ScoredItem `json:"items"`
	ComputedAt time.Time           `json:"computed_at"`
}

// RemoteTier is the shared cache tier behind the in-process one.
// A nil *Entry with nil error means miss.
type RemoteTier interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// KindConfig is the TTL tier and size bound for one recommendation kind.
type KindConfig struct {
	TTL        time.Duration
	MaxEntries int
}

type ComputeFunc func(ctx context.Context) ([]domain.ScoredItem, error)

// Tiered fronts the recommendation algorithms with an in-process LRU
// tier and a shared remote tier. At most one computation per key runs
// at a time; tier failures degrade to direct computation.
type Tiered struct {
	memory  map[domain.RecommendationKind]*lru.LRU[string, Entry]
	kinds   map[domain.RecommendationKind]KindConfig
	remote  RemoteTier
	group   singleflight.Group
	timeout time.Duration

	// refreshPool retries failed computations off the request path so
	// the next reader finds a warm entry.
	refreshPool *worker.Pool
}

func NewTiered(
	kinds map[domain.RecommendationKind]KindConfig,
	remote RemoteTier,
	timeout time.Duration,
	refreshPool *worker.Pool,
) *Tiered {
	memory := make(map[domain.RecommendationKind]*lru.LRU[string, Entry], len(kinds))
	for kind, cfg := range kinds {
		kindLabel := string(kind)
		onEvict := func(string, Entry) {
			metrics.CacheEvictionsTotal.WithLabelValues(kindLabel).Inc()
		}
		memory[kind] = lru.NewLRU[string, Entry](cfg.MaxEntries, onEvict, cfg.TTL)
	}

	return &Tiered{
		memory:      memory,
		kinds:       kinds,
		remote:      remote,
		timeout:     timeout,
		refreshPool: refreshPool,
	}
}

// GetOrCompute returns the cached list for the key, or runs compute
// under singleflight and installs the result in both tiers. Concurrent
// callers for the same key share one computation and its result.
func (c *Tiered) GetOrCompute(
	ctx context.Context,
	userID uint,
	kind domain.RecommendationKind,
	algorithmVersion string,
	compute func(ctx context.Context) ([]domain.ScoredItem, error),
) ([]domain.ScoredItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	key := Key{UserID: userID, Kind: kind, AlgorithmVersion: algorithmVersion}

	cfg, ok := c.kinds[key.Kind]
	if !ok {
		return nil, fmt.Errorf("no cache tier configured for kind %q", key.Kind)
	}

	keyStr := key.String()
	kindLabel := string(key.Kind)

	if entry, ok := c.memory[key.Kind].Get(keyStr); ok && c.fresh(entry, cfg.TTL) {
		metrics.CacheHitsTotal.WithLabelValues(kindLabel, "memory").Inc()
		return entry.Items, nil
	}

	metrics.CacheMissesTotal.WithLabelValues(kindLabel).Inc()

	v, err, _ := c.group.Do(keyStr, func() (any, error) {
		return c.lookupOrCompute(ctx, key, cfg, compute)
	})
	if err != nil {
		return nil, err
	}

	return v.(Entry).Items, nil
}

func (c *Tiered) lookupOrCompute(ctx context.Context, key Key, cfg KindConfig, compute ComputeFunc) (Entry, error) {
	keyStr := key.String()
	kindLabel := string(key.Kind)

	// Remote tier is fail-open: errors count as misses.
	if c.remote != nil {
		entry, err := c.remote.Get(ctx, keyStr)
		if err != nil {
			logger.Warn("remote cache tier read failed", "key", keyStr, "error", err)
		} else if entry != nil && c.fresh(*entry, cfg.TTL) {
			metrics.CacheHitsTotal.WithLabelValues(kindLabel, "remote").Inc()
			c.installMemory(key, *entry)
			return *entry, nil
		}
	}

	startedAt := time.Now()

	computeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	items, err := compute(computeCtx)
	if err != nil {
		c.scheduleRefresh(key, cfg, compute)
		return Entry{}, err
	}

	entry := Entry{Items: items, ComputedAt: startedAt}
	c.install(key, entry, cfg.TTL)

	return entry, nil
}

// scheduleRefresh retries a failed computation in the background. Drops
// silently when the refresh pool is saturated or absent.
func (c *Tiered) scheduleRefresh(key Key, cfg KindConfig, compute ComputeFunc) {
	if c.refreshPool == nil {
		return
	}

	_ = c.refreshPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		startedAt := time.Now()
		items, err := compute(ctx)
		if err != nil {
			logger.Warn("background recommendation refresh failed", "key", key.String(), "error", err)
			return
		}

		c.install(key, Entry{Items: items, ComputedAt: startedAt}, cfg.TTL)
	})
}

func (c *Tiered) install(key Key, entry Entry, ttl time.Duration) {
	c.installMemory(key, entry)

	if c.remote == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	keyStr := key.String()
	existing, err := c.remote.Get(ctx, keyStr)
	if err == nil && existing != nil && existing.ComputedAt.After(entry.ComputedAt) {
		return
	}

	if err := c.remote.Set(ctx, keyStr, entry, ttl); err != nil {
		logger.Warn("remote cache tier write failed", "key", keyStr, "error", err)
	}
}

func (c *Tiered) installMemory(key Key, entry Entry) {
	mem := c.memory[key.Kind]
	keyStr := key.String()

	if existing, ok := mem.Peek(keyStr); ok && existing.ComputedAt.After(entry.ComputedAt) {
		return
	}

	mem.Add(keyStr, entry)
}

func (c *Tiered) fresh(entry Entry, ttl time.Duration) bool {
	return time.Since(entry.ComputedAt) < ttl
}
