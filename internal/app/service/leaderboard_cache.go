package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chimu/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache keeps the materialized leaderboard per jam in redis. Every
// rating write and project status change invalidates the jam's entry, so a
// cached read is never stale relative to recorded scores.
type LeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLeaderboardCache(rdb *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb, ttl: ttl}
}

func leaderboardKey(jamID string) string {
	return "leaderboard:" + jamID
}

// Get returns the cached leaderboard, or (nil, nil) on a miss.
func (c *LeaderboardCache) Get(ctx context.Context, jamID string) (*model.Leaderboard, error) {
	data, err := c.rdb.Get(ctx, leaderboardKey(jamID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var lb model.Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, nil
	}
	return &lb, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, lb *model.Leaderboard) error {
	data, err := json.Marshal(lb)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, leaderboardKey(lb.JamID), data, c.ttl).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, jamID string) error {
	return c.rdb.Del(ctx, leaderboardKey(jamID)).Err()
}
