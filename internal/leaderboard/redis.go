package leaderboard

import (
	"context"

	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
)

const defaultKey = "leaderboard:xp"

// RedisRanker keeps xp in a Redis sorted set.
type RedisRanker struct {
	cache *cache.Cache
	key   string
}

// NewRedisRanker creates a ranker on c. The key is inside the cache
// namespace; an empty key uses "leaderboard:xp".
func NewRedisRanker(c *cache.Cache, key string) *RedisRanker {
	if key == "" {
		key = defaultKey
	}
	return &RedisRanker{cache: c, key: key}
}

func (r *RedisRanker) Top(ctx context.Context, n int) ([]Score, error) {
	top, err := r.cache.TopScores(ctx, r.key, n)
	if err != nil {
		return nil, err
	}
	scores := make([]Score, 0, len(top))
	for _, s := range top {
		scores = append(scores, Score{Username: s.Member, XP: int(s.Value)})
	}
	return scores, nil
}

func (r *RedisRanker) Update(ctx context.Context, username string, xp int) error {
	return r.cache.SetScore(ctx, r.key, username, float64(xp))
}

func (r *RedisRanker) Rebuild(ctx context.Context, scores []Score) error {
	members := make([]cache.Score, 0, len(scores))
	for _, s := range scores {
		members = append(members, cache.Score{Member: s.Username, Value: float64(s.XP)})
	}
	return r.cache.ReplaceScores(ctx, r.key, members)
}
