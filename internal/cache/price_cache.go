// Package cache holds the short-lived price cache backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

const dateKeyFormat = "2006-01-02"

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// PriceCache stores one day's resolved prices as a single JSON map under
// a per-date key with a bounded TTL. Misses and transport errors are
// both reported as a nil map so callers fall through to the database.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPriceCache builds the cache around an established Redis client.
func NewPriceCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PriceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceCache{client: client, ttl: ttl, logger: logger}
}

// GetDay returns the cached price map for the given day, or nil on miss.
func (c *PriceCache) GetDay(ctx context.Context, day time.Time) (map[models.Classification]float64, error) {
	data, err := c.client.Get(ctx, c.key(day)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("price cache read failed", zap.Error(err))
		}
		return nil, nil
	}

	var prices map[models.Classification]float64
	if err := json.Unmarshal([]byte(data), &prices); err != nil {
		c.logger.Warn("price cache entry corrupt, dropping", zap.Error(err))
		_ = c.client.Del(ctx, c.key(day)).Err()
		return nil, nil
	}

	return prices, nil
}

// SetDay stores the price map for the given day with the configured TTL.
func (c *PriceCache) SetDay(ctx context.Context, day time.Time, prices map[models.Classification]float64) error {
	data, err := json.Marshal(prices)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(day), data, c.ttl).Err()
}

// Invalidate drops the cached prices for the given day. Every price
// write must call this before reporting success to the caller.
func (c *PriceCache) Invalidate(ctx context.Context, day time.Time) error {
	return c.client.Del(ctx, c.key(day)).Err()
}

func (c *PriceCache) key(day time.Time) string {
	return fmt.Sprintf("prices:%s", day.Format(dateKeyFormat))
}
