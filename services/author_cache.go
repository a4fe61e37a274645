package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"pressroom-cms/models"
	"pressroom-cms/repositories"
)

const authorCacheTTL = 15 * time.Minute

// RedisClient is the slice of *redis.Client the cache needs. Tests supply a fake.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthorCache is a read-through cache over the author table. Invalidation is
// explicit: author create/rename/delete and publish/unpublish call Invalidate.
// A nil redis client disables caching and reads go straight to the repository.
type AuthorCache struct {
	rdb     RedisClient
	authors repositories.AuthorRepository
	log     *zap.Logger
}

func NewAuthorCache(rdb RedisClient, authors repositories.AuthorRepository, log *zap.Logger) *AuthorCache {
	return &AuthorCache{rdb: rdb, authors: authors, log: log}
}

// GetMany returns the authors for ids, preserving the input order. Authors
// that no longer exist are skipped.
func (c *AuthorCache) GetMany(ctx context.Context, ids []uint) ([]models.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found := make(map[uint]models.Author, len(ids))
	var misses []uint

	for _, id := range ids {
		if c.rdb == nil {
			misses = append(misses, id)
			continue
		}
		raw, err := c.rdb.Get(ctx, authorKey(id)).Result()
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var author models.Author
		if err := json.Unmarshal([]byte(raw), &author); err != nil {
			misses = append(misses, id)
			continue
		}
		found[id] = author
	}

	if len(misses) > 0 {
		loaded, err := c.authors.GetByIDs(misses)
		if err != nil {
			return nil, err
		}
		for _, author := range loaded {
			found[author.ID] = author
			c.store(ctx, author)
		}
	}

	out := make([]models.Author, 0, len(ids))
	for _, id := range ids {
		if author, ok := found[id]; ok {
			out = append(out, author)
		}
	}
	return out, nil
}

// Invalidate drops the cached entries for ids. Failures are logged only; a
// stale cache entry expires with the TTL anyway.
func (c *AuthorCache) Invalidate(ctx context.Context, ids ...uint) {
	if c.rdb == nil || len(ids) == 0 {
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, authorKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("author cache invalidation failed", zap.Uints("author_ids", ids), zap.Error(err))
	}
}

func (c *AuthorCache) store(ctx context.Context, author models.Author) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(author)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, authorKey(author.ID), raw, authorCacheTTL).Err(); err != nil {
		c.log.Warn("author cache store failed", zap.Uint("author_id", author.ID), zap.Error(err))
	}
}

func authorKey(id uint) string {
	return fmt.Sprintf("author:%d", id)
}
