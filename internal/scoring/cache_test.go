// internal/scoring/cache_test.go

package scoring

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

func testCacheKey() CacheKey {
	return CacheKey{
		ResumeFingerprint: "resumefp",
		JobFingerprint:    "jobfp",
		Provider:          models.ProviderKeyword,
		ProviderVersion:   "1",
	}
}

func newTestCache(t *testing.T) (*ScoreCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewScoreCache(rdb, time.Hour, logger.NewTestLogger(t)), mr
}

func TestCacheKey_String(t *testing.T) {
	key := testCacheKey()
	assert.Equal(t, "score:resumefp:jobfp:keyword:1", key.String())
}

func TestScoreCache_ComputesOnceThenHits(t *testing.T) {
	cache, _ := newTestCache(t)

	var computes int32
	compute := func(ctx context.Context) (*models.ComponentScore, error) {
		atomic.AddInt32(&computes, 1)
		return &models.ComponentScore{ProviderID: models.ProviderKeyword, Value: 75, Coverage: 1}, nil
	}

	first, err := cache.GetOrCompute(context.Background(), testCacheKey(), compute)
	require.NoError(t, err)
	second, err := cache.GetOrCompute(context.Background(), testCacheKey(), compute)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&computes))
	assert.Equal(t, first.Value, second.Value)
}

func TestScoreCache_VersionRotationInvalidates(t *testing.T) {
	cache, _ := newTestCache(t)

	var computes int32
	compute := func(ctx context.Context) (*models.ComponentScore, error) {
		atomic.AddInt32(&computes, 1)
		return &models.ComponentScore{ProviderID: models.ProviderTrainedModel, Value: 50, Coverage: 1}, nil
	}

	key := testCacheKey()
	key.Provider = models.ProviderTrainedModel
	_, err := cache.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)

	key.ProviderVersion = "2"
	_, err = cache.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&computes), "new provider version must miss the old entry")
}

func TestScoreCache_FailuresNeverCached(t *testing.T) {
	cache, mr := newTestCache(t)

	_, err := cache.GetOrCompute(context.Background(), testCacheKey(), func(ctx context.Context) (*models.ComponentScore, error) {
		return nil, fmt.Errorf("provider blew up")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists(testCacheKey().String()))

	// A later successful compute goes through.
	score, err := cache.GetOrCompute(context.Background(), testCacheKey(), func(ctx context.Context) (*models.ComponentScore, error) {
		return &models.ComponentScore{ProviderID: models.ProviderKeyword, Value: 40, Coverage: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, score.Value)
}

func TestScoreCache_RedisDownDegradesToCompute(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewScoreCache(rdb, time.Hour, logger.NewTestLogger(t))
	mr.Close()

	score, err := cache.GetOrCompute(context.Background(), testCacheKey(), func(ctx context.Context) (*models.ComponentScore, error) {
		return &models.ComponentScore{ProviderID: models.ProviderKeyword, Value: 30, Coverage: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, score.Value)
}

func TestScoreCache_NilClientAlwaysComputes(t *testing.T) {
	cache := NewScoreCache(nil, time.Hour, logger.NewTestLogger(t))

	var computes int32
	for i := 0; i < 2; i++ {
		_, err := cache.GetOrCompute(context.Background(), testCacheKey(), func(ctx context.Context) (*models.ComponentScore, error) {
			atomic.AddInt32(&computes, 1)
			return &models.ComponentScore{ProviderID: models.ProviderKeyword, Value: 10, Coverage: 1}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&computes))
}

func TestScoreCache_AbandonedCallerStillPopulatesCache(t *testing.T) {
	cache, mr := newTestCache(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	score, err := cache.GetOrCompute(ctx, testCacheKey(), func(ctx context.Context) (*models.ComponentScore, error) {
		require.NoError(t, ctx.Err(), "compute must run detached from the caller's cancellation")
		return &models.ComponentScore{ProviderID: models.ProviderKeyword, Value: 65, Coverage: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 65.0, score.Value)
	assert.True(t, mr.Exists(testCacheKey().String()), "result must be cached despite the cancelled request")

	// The next ranking finds the entry instead of recomputing.
	var computes int32
	cached, err := cache.GetOrCompute(context.Background(), testCacheKey(), func(ctx context.Context) (*models.ComponentScore, error) {
		atomic.AddInt32(&computes, 1)
		return nil, fmt.Errorf("unexpected recompute")
	})
	require.NoError(t, err)
	assert.Equal(t, 65.0, cached.Value)
	assert.Equal(t, int32(0), atomic.LoadInt32(&computes))
}

func TestScoreCache_ConcurrentCallersShareOneCompute(t *testing.T) {
	cache, _ := newTestCache(t)

	var computes int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (*models.ComponentScore, error) {
		atomic.AddInt32(&computes, 1)
		<-release
		return &models.ComponentScore{ProviderID: models.ProviderKeyword, Value: 88, Coverage: 1}, nil
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			score, err := cache.GetOrCompute(context.Background(), testCacheKey(), compute)
			assert.NoError(t, err)
			assert.Equal(t, 88.0, score.Value)
		}()
	}
	close(start)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&computes), "singleflight must collapse concurrent misses")
}
