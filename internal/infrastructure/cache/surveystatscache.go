// Package cache holds Redis-backed read caches. Nothing here feeds a
// permission decision: the gate always counts from durable storage, and
// these caches only serve display surfaces like the usage dashboard.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quillform/internal/shared/logger"
)

const surveyStatsTTL = 5 * time.Minute

// SurveyStatsCache caches per-account survey counts for the usage panel.
type SurveyStatsCache struct {
	client *redis.Client
	logger logger.Interface
}

// NewSurveyStatsCache creates a SurveyStatsCache.
func NewSurveyStatsCache(client *redis.Client, log logger.Interface) *SurveyStatsCache {
	return &SurveyStatsCache{client: client, logger: log}
}

func (c *SurveyStatsCache) key(accountID uint) string {
	return fmt.Sprintf("stats:surveys:%d", accountID)
}

// Get returns the cached count and whether it was present. Cache errors
// degrade to a miss.
func (c *SurveyStatsCache) Get(ctx context.Context, accountID uint) (int, bool) {
	val, err := c.client.Get(ctx, c.key(accountID)).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.logger.Warnw("survey stats cache read failed", "account_id", accountID, "error", err)
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the count.
func (c *SurveyStatsCache) Set(ctx context.Context, accountID uint, count int) {
	if err := c.client.Set(ctx, c.key(accountID), count, surveyStatsTTL).Err(); err != nil {
		c.logger.Warnw("survey stats cache write failed", "account_id", accountID, "error", err)
	}
}

// Invalidate drops the cached count after a create or delete.
func (c *SurveyStatsCache) Invalidate(ctx context.Context, accountID uint) {
	if err := c.client.Del(ctx, c.key(accountID)).Err(); err != nil {
		c.logger.Warnw("survey stats cache invalidation failed", "account_id", accountID, "error", err)
	}
}
