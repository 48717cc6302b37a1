package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RankCachePrefix is the key prefix for per-user top-feed rankings
	RankCachePrefix = "feed:top:user:"

	// RankCacheTTL bounds how stale a cached ranking may get. The ranking
	// is recomputed from scratch on the next miss; there is no fan-out and
	// no background refresh.
	RankCacheTTL = 60 * time.Second
)

// RankedPost is a feed post id with its dense ranking sequence (higher
// sequence = more reactions).
type RankedPost struct {
	PostID   int64
	Sequence int64
}

// RankCache holds the computed "top" feed ordering for a user so that
// paging through the ranking stays consistent for its short lifetime.
// The interface exists so services can run with a nil cache (Redis absent)
// and tests can substitute a fake.
type RankCache interface {
	// Exists reports whether a ranking is cached for the user.
	Exists(ctx context.Context, userID int64) (bool, error)

	// Warm stores a freshly computed ranking, replacing any previous one.
	Warm(ctx context.Context, userID int64, posts []RankedPost) error

	// Page returns up to limit post ids ordered by sequence descending.
	// A non-nil cursor restricts the page to sequences strictly below it.
	Page(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]RankedPost, error)

	// Invalidate drops the cached ranking for a user.
	Invalidate(ctx context.Context, userID int64) error
}

// RedisRankCache implements RankCache using Redis sorted sets: member is the
// post id, score is the ranking sequence.
type RedisRankCache struct {
	client *redis.Client
}

// NewRankCache creates a RankCache backed by Redis.
func NewRankCache(client *redis.Client) RankCache {
	return &RedisRankCache{client: client}
}

func rankKey(userID int64) string {
	return fmt.Sprintf("%s%d", RankCachePrefix, userID)
}

func (c *RedisRankCache) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := c.client.Exists(ctx, rankKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check rank cache exists: %w", err)
	}
	return exists > 0, nil
}

// Warm bulk-inserts the ranking using a pipeline: DEL + ZADD + EXPIRE.
func (c *RedisRankCache) Warm(ctx context.Context, userID int64, posts []RankedPost) error {
	key := rankKey(userID)

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Sequence),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}
	pipe.Expire(ctx, key, RankCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[RankCache] Warm FAILED: user=%d posts=%d err=%v", userID, len(posts), err)
		return fmt.Errorf("warm rank cache: %w", err)
	}

	log.Printf("[RankCache] Warm OK: user=%d posts=%d", userID, len(posts))
	return nil
}

// Page reads the ranking with ZREVRANGEBYSCORE. The cursor is exclusive
// ("(" prefix) so the row that produced it is not repeated.
func (c *RedisRankCache) Page(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]RankedPost, error) {
	key := rankKey(userID)

	max := "+inf"
	if cursorSeq != nil {
		max = fmt.Sprintf("(%d", *cursorSeq)
	}

	results, err := c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: int64(limit),
	}).Result()
	if err != nil {
		log.Printf("[RankCache] Page FAILED: user=%d err=%v", userID, err)
		return nil, fmt.Errorf("page rank cache: %w", err)
	}

	posts := make([]RankedPost, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse post id: %w", err)
		}
		posts[i] = RankedPost{PostID: id, Sequence: int64(z.Score)}
	}

	return posts, nil
}

func (c *RedisRankCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, rankKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate rank cache: %w", err)
	}
	return nil
}
