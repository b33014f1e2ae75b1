// internal/scoring/cache.go

package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/metrics"
	"talentrank-workers/internal/models"
)

// CacheKey identifies one component score. Provider version is part of the
// key, so retraining or a scorer upgrade invalidates old entries by rotation
// instead of an explicit purge.
type CacheKey struct {
	ResumeFingerprint string
	JobFingerprint    string
	Provider          models.ProviderID
	ProviderVersion   string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("score:%s:%s:%s:%s", k.ResumeFingerprint, k.JobFingerprint, k.Provider, k.ProviderVersion)
}

// ScoreCache wraps redis with a singleflight group so concurrent rankings of
// overlapping candidate pools compute each missing component score once.
// Cache unavailability degrades to computing every score; it never fails a
// scoring run. Failed computations are never cached.
type ScoreCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger logger.Logger
}

// NewScoreCache builds a cache over rdb. A nil client disables caching and
// keeps only request collapsing.
func NewScoreCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *ScoreCache {
	return &ScoreCache{rdb: rdb, ttl: ttl, logger: log}
}

// GetOrCompute returns the cached component score for key, or runs compute
// and caches its result. Concurrent callers with the same key share a single
// compute invocation.
func (c *ScoreCache) GetOrCompute(ctx context.Context, key CacheKey, compute func(context.Context) (*models.ComponentScore, error)) (*models.ComponentScore, error) {
	if score, ok := c.lookup(ctx, key); ok {
		metrics.ScoreCacheHits.WithLabelValues(string(key.Provider)).Inc()
		return score, nil
	}
	metrics.ScoreCacheMisses.WithLabelValues(string(key.Provider)).Inc()

	// The flight runs detached from the caller's cancellation: one ranking
	// abandoning its request must not discard a compute that sibling jobs
	// would otherwise find in the cache. Providers bound their own work.
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// Another flight may have finished between our miss and here.
		if score, ok := c.lookup(flightCtx, key); ok {
			return score, nil
		}
		score, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		c.store(flightCtx, key, score)
		return score, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.ComponentScore), nil
}

func (c *ScoreCache) lookup(ctx context.Context, key CacheKey) (*models.ComponentScore, bool) {
	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("score cache read failed", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
		return nil, false
	}
	var score models.ComponentScore
	if err := json.Unmarshal(data, &score); err != nil {
		c.logger.Warn("score cache entry corrupt, recomputing", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
		return nil, false
	}
	return &score, true
}

func (c *ScoreCache) store(ctx context.Context, key CacheKey, score *models.ComponentScore) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(score)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("score cache write failed", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
	}
}
