package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bds_scrooper/models"
)

var ErrCacheMiss = errors.New("cache miss")

// ResultCache keeps recent search results in Redis.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResultCache(ctx context.Context, url string, ttl time.Duration) (*ResultCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewResultCacheWithClient(rdb, ttl), nil
}

func NewResultCacheWithClient(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl}
}

func (c *ResultCache) Close() error {
	return c.rdb.Close()
}

func (c *ResultCache) GetResult(ctx context.Context, key string) (*models.SearchResult, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	var result models.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return &result, nil
}

func (c *ResultCache) SetResult(ctx context.Context, key string, result *models.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
