package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
	"github.com/user/domcapture-service/pkg/utils"
)

const captureCachePrefix = "capture:"

// CacheRepoImpl implements CaptureCacheRepository on Redis, for deployments
// where multiple orchestrator processes share one cache. TTL expiry is
// native; LRU eviction is left to Redis' maxmemory policy.
type CacheRepoImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheRepo creates a Redis-backed capture cache.
func NewCacheRepo(client *redis.Client, ttl time.Duration) *CacheRepoImpl {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CacheRepoImpl{client: client, ttl: ttl}
}

// generateKey creates a consistent Redis key for a target by hashing it.
func (r *CacheRepoImpl) generateKey(target string) string {
	return fmt.Sprintf("%s%s", captureCachePrefix, utils.Hash(target))
}

// Get returns the cached state for a target, or ErrCacheMiss.
//
// The selector map survives the JSON round trip with each node's links
// encoded as arena ids; full graph traversal is only available on the
// capture that produced the state.
func (r *CacheRepoImpl) Get(ctx context.Context, target string) (*entity.SerializedDOMState, error) {
	payload, err := r.client.Get(ctx, r.generateKey(target)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrCacheMiss
		}
		return nil, err
	}
	var state entity.SerializedDOMState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decoding cached capture: %w", err)
	}
	return &state, nil
}

// Put stores the state under the target key with the cache TTL.
func (r *CacheRepoImpl) Put(ctx context.Context, target string, state *entity.SerializedDOMState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding capture for cache: %w", err)
	}
	// SET with EX is atomic and bounds entry lifetime server-side.
	return r.client.Set(ctx, r.generateKey(target), payload, r.ttl).Err()
}

// Invalidate removes the entry for a target.
func (r *CacheRepoImpl) Invalidate(ctx context.Context, target string) error {
	return r.client.Del(ctx, r.generateKey(target)).Err()
}

// Clear removes every capture cache entry.
func (r *CacheRepoImpl) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, captureCachePrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
