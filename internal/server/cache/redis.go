package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/expensetracker/internal/logging"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "summary:"

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// RedisSummaryCache keeps summaries as JSON under summary:<userID>:<gen>.
// The current generation lives in summary:gen:<userID> and is bumped on
// every write to the user's transactions.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration, logger logging.Logger) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl, logger: logger}
}

func genKey(userID string) string {
	return keyPrefix + "gen:" + userID
}

func dataKey(userID string, gen int64) string {
	return keyPrefix + userID + ":" + strconv.FormatInt(gen, 10)
}

// Get returns the summary cached for the user's current generation. Misses,
// Redis errors and undecodable values all report false; only the latter two
// are logged. When the generation itself cannot be read NoGeneration is
// returned so the caller's Set is dropped.
func (c *RedisSummaryCache) Get(ctx context.Context, userID string) (*models.Summary, int64, bool) {
	gen, err := c.client.Get(ctx, genKey(userID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		gen = 0
	case err != nil:
		c.logger.Warn(ctx, "summary cache read failed", "user_id", userID, "error", err)
		return nil, NoGeneration, false
	}

	data, err := c.client.Get(ctx, dataKey(userID, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "summary cache read failed", "user_id", userID, "error", err)
		}
		return nil, gen, false
	}

	var s models.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn(ctx, "summary cache entry is corrupt", "user_id", userID, "error", err)
		return nil, gen, false
	}
	return &s, gen, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, userID string, gen int64, s *models.Summary) {
	if gen == NoGeneration {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn(ctx, "summary cache marshal failed", "user_id", userID, "error", err)
		return
	}
	if err := c.client.Set(ctx, dataKey(userID, gen), data, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "summary cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate starts a new generation. Entries of older generations are left
// to expire.
func (c *RedisSummaryCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Incr(ctx, genKey(userID)).Err(); err != nil {
		c.logger.Warn(ctx, "summary cache invalidate failed", "user_id", userID, "error", err)
	}
}
