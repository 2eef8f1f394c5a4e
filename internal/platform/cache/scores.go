package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Score is one member of a sorted set.
type Score struct {
	Member string
	Value  float64
}

// SetScore adds or updates member in the sorted set at key.
func (c *Cache) SetScore(ctx context.Context, key, member string, value float64) error {
	key = c.key(key)
	if err := c.client.ZAdd(ctx, key, redis.Z{Score: value, Member: member}).Err(); err != nil {
		return fmt.Errorf("zadd %s: %w", key, err)
	}
	return nil
}

// ReplaceScores atomically replaces the sorted set at key with scores.
func (c *Cache) ReplaceScores(ctx context.Context, key string, scores []Score) error {
	key = c.key(key)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(scores) > 0 {
		members := make([]redis.Z, 0, len(scores))
		for _, s := range scores {
			members = append(members, redis.Z{Score: s.Value, Member: s.Member})
		}
		pipe.ZAdd(ctx, key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// TopScores returns the n highest scores at key, ties broken by member in
// ascending order.
func (c *Cache) TopScores(ctx context.Context, key string, n int) ([]Score, error) {
	if n <= 0 {
		return []Score{}, nil
	}
	key = c.key(key)

	top, err := c.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s: %w", key, err)
	}
	if len(top) < n {
		return sortScores(toScores(top), n), nil
	}

	// Redis orders equal scores by member descending, so pull every member
	// tied with the cut-off and sort locally.
	floor := top[len(top)-1].Score
	all, err := c.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatFloat(floor, 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore %s: %w", key, err)
	}
	return sortScores(toScores(all), n), nil
}

func toScores(zs []redis.Z) []Score {
	out := make([]Score, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, Score{Member: member, Value: z.Score})
	}
	return out
}

func sortScores(scores []Score, n int) []Score {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Member < scores[j].Member
	})
	return scores[:min(n, len(scores))]
}
